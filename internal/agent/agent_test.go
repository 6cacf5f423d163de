package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeeshanhm/zara/internal/calendar"
	"github.com/zeeshanhm/zara/internal/session"
)

// scriptedCompleter returns canned completions in order and records the
// params of every call.
type scriptedCompleter struct {
	responses []*openai.ChatCompletion
	calls     []openai.ChatCompletionNewParams
	err       error
}

func (c *scriptedCompleter) Complete(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	c.calls = append(c.calls, params)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.calls) > len(c.responses) {
		return nil, fmt.Errorf("unexpected completion call %d", len(c.calls))
	}
	return c.responses[len(c.calls)-1], nil
}

type fakeScheduler struct {
	free, busy []calendar.Window
	slotsErr   error
	booking    *calendar.Booking
	bookErr    error

	slotsCalls []calendar.Window
	bookCalls  []calendar.BookingInput
}

func (s *fakeScheduler) AvailableSlots(_ context.Context, window calendar.Window) ([]calendar.Window, []calendar.Window, error) {
	s.slotsCalls = append(s.slotsCalls, window)
	if s.slotsErr != nil {
		return nil, nil, s.slotsErr
	}
	return s.free, s.busy, nil
}

func (s *fakeScheduler) CreateEvent(_ context.Context, input calendar.BookingInput) (*calendar.Booking, error) {
	s.bookCalls = append(s.bookCalls, input)
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.booking, nil
}

func textCompletion(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func toolCompletion(calls ...openai.ChatCompletionMessageToolCallUnion) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{ToolCalls: calls}},
		},
	}
}

func toolCall(id, name, args string) openai.ChatCompletionMessageToolCallUnion {
	return openai.ChatCompletionMessageToolCallUnion{
		ID:   id,
		Type: "function",
		Function: openai.ChatCompletionMessageFunctionToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestAgent(completer ChatCompleter, scheduler Scheduler) *Agent {
	a := New(completer, scheduler, DefaultConfig(), nil, nil)
	a.now = func() time.Time {
		return time.Date(2025, 5, 30, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	}
	return a
}

func TestRespondPlainReply(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		textCompletion("Hi Zeeshan, how can I help?"),
	}}
	scheduler := &fakeScheduler{}
	a := newTestAgent(completer, scheduler)

	reply, err := a.Respond(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi Zeeshan, how can I help?", reply)

	assert.Len(t, completer.calls, 1)
	assert.Empty(t, scheduler.slotsCalls)
	assert.Empty(t, scheduler.bookCalls)
}

func TestRespondCarriesHistory(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		textCompletion("Sure."),
	}}
	a := newTestAgent(completer, &fakeScheduler{})

	history := []session.Turn{
		{Role: session.RoleUser, Content: "are you free tomorrow?"},
		{Role: session.RoleAssistant, Content: "Let me check."},
	}
	_, err := a.Respond(context.Background(), history, "morning works")
	require.NoError(t, err)

	// System prompt, two history turns, new user input.
	require.Len(t, completer.calls, 1)
	assert.Len(t, completer.calls[0].Messages, 4)
	assert.NotEmpty(t, completer.calls[0].Tools)
}

func TestRespondBooksSlot(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCompletion(toolCall("call_1", ToolBookSlot, `{"slot":"2025-06-01T10:00:00+05:30"}`)),
		textCompletion("Booked! Your Meet link is https://meet.example/abc."),
	}}
	scheduler := &fakeScheduler{booking: &calendar.Booking{
		EventID:  "evt123",
		MeetLink: "https://meet.example/abc",
	}}
	a := newTestAgent(completer, scheduler)

	reply, err := a.Respond(context.Background(), nil, "book 10am on June 1")
	require.NoError(t, err)
	assert.Equal(t, "Booked! Your Meet link is https://meet.example/abc.", reply)

	require.Len(t, scheduler.bookCalls, 1)
	input := scheduler.bookCalls[0]
	assert.Equal(t, "Meeting with Zeeshan", input.Summary)
	assert.Equal(t, "Auto-scheduled via assistant.", input.Description)

	want, err := time.Parse(time.RFC3339, "2025-06-01T10:00:00+05:30")
	require.NoError(t, err)
	assert.True(t, input.Start.Equal(want))
	assert.True(t, input.End.Equal(want.Add(calendar.SlotLength)))

	// The follow-up completion carries the tool call and its result.
	require.Len(t, completer.calls, 2)
	assert.Len(t, completer.calls[1].Messages, len(completer.calls[0].Messages)+2)
}

func TestRespondReportsAvailability(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2025-06-01T09:00:00+05:30")
	end, _ := time.Parse(time.RFC3339, "2025-06-01T12:00:00+05:30")

	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCompletion(toolCall("call_1", ToolGetAvailableSlots,
			`{"start_time":"2025-06-01T09:00:00+05:30","end_time":"2025-06-01T12:00:00+05:30"}`)),
		textCompletion("You are free from 9 to 12."),
	}}
	scheduler := &fakeScheduler{
		free: []calendar.Window{{Start: start, End: start.Add(30 * time.Minute)}},
	}
	a := newTestAgent(completer, scheduler)

	reply, err := a.Respond(context.Background(), nil, "when am I free on June 1?")
	require.NoError(t, err)
	assert.Equal(t, "You are free from 9 to 12.", reply)

	require.Len(t, scheduler.slotsCalls, 1)
	assert.True(t, scheduler.slotsCalls[0].Start.Equal(start))
	assert.True(t, scheduler.slotsCalls[0].End.Equal(end))
	assert.Empty(t, scheduler.bookCalls)
}

func TestRespondSchedulerError(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCompletion(toolCall("call_1", ToolGetAvailableSlots,
			`{"start_time":"2025-06-01T09:00:00+05:30","end_time":"2025-06-01T12:00:00+05:30"}`)),
	}}
	wantErr := errors.New("freebusy query failed")
	a := newTestAgent(completer, &fakeScheduler{slotsErr: wantErr})

	_, err := a.Respond(context.Background(), nil, "when am I free?")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	// No follow-up completion after a failed tool.
	assert.Len(t, completer.calls, 1)
}

func TestRespondRejectsMultipleToolCalls(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCompletion(
			toolCall("call_1", ToolGetAvailableSlots, `{}`),
			toolCall("call_2", ToolBookSlot, `{}`),
		),
	}}
	scheduler := &fakeScheduler{}
	a := newTestAgent(completer, scheduler)

	_, err := a.Respond(context.Background(), nil, "do both")
	require.Error(t, err)
	assert.Empty(t, scheduler.slotsCalls)
	assert.Empty(t, scheduler.bookCalls)
}

func TestRespondRejectsToolCallAfterToolResult(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCompletion(toolCall("call_1", ToolBookSlot, `{"slot":"2025-06-01T10:00:00+05:30"}`)),
		toolCompletion(toolCall("call_2", ToolBookSlot, `{"slot":"2025-06-01T11:00:00+05:30"}`)),
	}}
	scheduler := &fakeScheduler{booking: &calendar.Booking{EventID: "evt123"}}
	a := newTestAgent(completer, scheduler)

	_, err := a.Respond(context.Background(), nil, "book it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second tool call")
	// The first booking went through before the violation was detected.
	assert.Len(t, scheduler.bookCalls, 1)
}

func TestRespondModelError(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("rate limited")}
	a := newTestAgent(completer, &fakeScheduler{})

	_, err := a.Respond(context.Background(), nil, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model call")
}

func TestRespondNoChoices(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{{}}}
	a := newTestAgent(completer, &fakeScheduler{})

	_, err := a.Respond(context.Background(), nil, "hello")
	require.Error(t, err)
}
