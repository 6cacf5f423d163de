package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/logging"
	"github.com/zeeshanhm/zara/internal/session"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4"

// ChatCompleter abstracts the chat-completions endpoint so tests can fake
// the model.
type ChatCompleter interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiCompleter wraps the OpenAI SDK client.
type openaiCompleter struct {
	client openai.Client
}

func (c openaiCompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// NewCompleter creates a ChatCompleter backed by the OpenAI API. The API key
// is read from the OPENAI_API_KEY environment variable.
func NewCompleter() (ChatCompleter, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("agent: OPENAI_API_KEY environment variable is not set")
	}
	return openaiCompleter{client: openai.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Config holds agent construction options.
type Config struct {
	// Model is the chat model name (default: DefaultModel).
	Model string

	// Temperature for completions.
	Temperature float64
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() Config {
	return Config{Model: DefaultModel, Temperature: 0.7}
}

// Agent drives the two-hop completion flow for one user turn.
type Agent struct {
	completer ChatCompleter
	scheduler Scheduler
	config    Config
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

// New creates an Agent. logger and metrics may be nil.
func New(completer ChatCompleter, scheduler Scheduler, config Config, logger *slog.Logger, metrics *instrumentation.Metrics) *Agent {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		completer: completer,
		scheduler: scheduler,
		config:    config,
		logger:    logging.WithComponent(logger, "agent"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Respond produces the assistant reply for userInput given the prior
// conversation. If the model requests a calendar tool, the tool runs
// synchronously and a second completion folds its result into the reply.
func (a *Agent) Respond(ctx context.Context, history []session.Turn, userInput string) (string, error) {
	messages := a.buildMessages(history, userInput)

	params := openai.ChatCompletionNewParams{
		Model:       a.config.Model,
		Messages:    messages,
		Tools:       toolDefinitions(),
		Temperature: openai.Float(a.config.Temperature),
	}

	completion, err := a.complete(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("agent: model returned no choices")
	}
	msg := completion.Choices[0].Message

	outcome, err := classify(msg)
	if err != nil {
		return "", err
	}

	switch out := outcome.(type) {
	case PlainReply:
		return out.Text, nil

	case ToolInvocation:
		return a.respondWithTool(ctx, params, msg, out)

	default:
		return "", fmt.Errorf("agent: unhandled model outcome %T", outcome)
	}
}

// respondWithTool runs the requested calendar operation and issues the
// second completion with the tool result appended.
func (a *Agent) respondWithTool(ctx context.Context, params openai.ChatCompletionNewParams, msg openai.ChatCompletionMessage, call ToolInvocation) (string, error) {
	logger := a.logger.With(logging.Tool(call.Name))

	toolCtx, span := instrumentation.StartToolSpan(ctx, call.Name)
	start := a.now()
	result, err := a.runTool(toolCtx, call)
	instrumentation.EndSpan(span, err)
	a.metrics.RecordToolInvocation(ctx, call.Name, statusOf(err), time.Since(start))
	if err != nil {
		logger.Error("tool invocation failed", logging.Err(err))
		return "", err
	}
	logger.Debug("tool invocation complete")

	params.Messages = append(params.Messages, msg.ToParam(), openai.ToolMessage(result, call.ID))

	completion, err := a.complete(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("agent: model returned no choices for tool follow-up")
	}

	outcome, err := classify(completion.Choices[0].Message)
	if err != nil {
		return "", err
	}
	reply, ok := outcome.(PlainReply)
	if !ok {
		// One tool call per turn: a second request is a protocol violation.
		return "", fmt.Errorf("agent: model requested a second tool call in the same turn")
	}
	return reply.Text, nil
}

func (a *Agent) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	start := a.now()
	completion, err := a.completer.Complete(ctx, params)
	a.metrics.RecordModelCall(ctx, a.config.Model, statusOf(err), time.Since(start))
	if err != nil {
		a.logger.Error("model call failed", logging.Model(a.config.Model), logging.Err(err))
		return nil, fmt.Errorf("agent: model call: %w", err)
	}
	return completion, nil
}

// buildMessages assembles the system prompt, the session history and the
// new user input in conversation order.
func (a *Agent) buildMessages(history []session.Turn, userInput string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt(a.now())))

	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	return append(messages, openai.UserMessage(userInput))
}

func statusOf(err error) string {
	if err != nil {
		return logging.StatusError
	}
	return logging.StatusSuccess
}
