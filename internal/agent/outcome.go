package agent

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Outcome is the normalized result of one model completion: either a plain
// text reply or a single tool invocation. The type set is closed; handle
// both in a type switch with an error default.
type Outcome interface {
	outcome()
}

// PlainReply is a completion that contains only assistant text.
type PlainReply struct {
	Text string
}

// ToolInvocation is a completion that requests one calendar tool call.
type ToolInvocation struct {
	ID   string
	Name string
	Args json.RawMessage
}

func (PlainReply) outcome()     {}
func (ToolInvocation) outcome() {}

// classify normalizes a chat-completion message into an Outcome. A response
// carrying more than one tool call is rejected: the agent executes at most
// one calendar operation per user turn.
func classify(msg openai.ChatCompletionMessage) (Outcome, error) {
	switch len(msg.ToolCalls) {
	case 0:
		return PlainReply{Text: msg.Content}, nil
	case 1:
		call := msg.ToolCalls[0]
		return ToolInvocation{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		}, nil
	default:
		return nil, fmt.Errorf("agent: model requested %d tool calls in one turn, at most one is supported", len(msg.ToolCalls))
	}
}
