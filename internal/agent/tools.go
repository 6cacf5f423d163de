package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/zeeshanhm/zara/internal/calendar"
)

// Tool names exposed to the model.
const (
	ToolGetAvailableSlots = "get_available_slots"
	ToolBookSlot          = "book_slot"
)

// Scheduler is the calendar surface the agent's tools run against.
// *calendar.Client satisfies it.
type Scheduler interface {
	AvailableSlots(ctx context.Context, window calendar.Window) (free, busy []calendar.Window, err error)
	CreateEvent(ctx context.Context, input calendar.BookingInput) (*calendar.Booking, error)
}

// toolDefinitions returns the function tools advertised on every completion.
func toolDefinitions() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolGetAvailableSlots,
			Description: openai.String("Use this to get available calendar time slots for meetings."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"start_time": map[string]any{
						"type":        "string",
						"description": "Start time for availability window, e.g. '2025-05-30T09:00:00+05:30'",
					},
					"end_time": map[string]any{
						"type":        "string",
						"description": "End time for availability window, e.g. '2025-05-30T14:00:00+05:30'",
					},
				},
				"required": []string{"start_time", "end_time"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolBookSlot,
			Description: openai.String("Use this to book a selected time slot. Input should be an ISO string like '2025-06-01T10:00:00+05:30'."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"slot": map[string]any{
						"type":        "string",
						"description": "Start time of the confirmed slot in ISO format",
					},
				},
				"required": []string{"slot"},
			},
		}),
	}
}

type availabilityArgs struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type bookArgs struct {
	Slot string `json:"slot"`
}

// runTool dispatches a single tool invocation to the scheduler and renders
// the result as text for the follow-up completion.
func (a *Agent) runTool(ctx context.Context, call ToolInvocation) (string, error) {
	switch call.Name {
	case ToolGetAvailableSlots:
		var args availabilityArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return "", fmt.Errorf("agent: parsing %s arguments: %w", call.Name, err)
		}
		return a.getAvailableSlots(ctx, args)

	case ToolBookSlot:
		var args bookArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return "", fmt.Errorf("agent: parsing %s arguments: %w", call.Name, err)
		}
		return a.bookSlot(ctx, args)

	default:
		return "", fmt.Errorf("agent: model requested unknown tool %q", call.Name)
	}
}

func (a *Agent) getAvailableSlots(ctx context.Context, args availabilityArgs) (string, error) {
	start, err := time.Parse(time.RFC3339, args.StartTime)
	if err != nil {
		// Returned as tool output so the model can correct itself.
		return "Invalid datetime format. Use ISO format (e.g., '2025-06-01T10:00:00+05:30')", nil
	}
	end, err := time.Parse(time.RFC3339, args.EndTime)
	if err != nil {
		return "Invalid datetime format. Use ISO format (e.g., '2025-06-01T10:00:00+05:30')", nil
	}

	free, busy, err := a.scheduler.AvailableSlots(ctx, calendar.Window{Start: start, End: end})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("BUSY SLOTS:\n%s\n\nFREE SLOTS:\n%s", formatSlots(busy), formatSlots(free)), nil
}

func (a *Agent) bookSlot(ctx context.Context, args bookArgs) (string, error) {
	start, err := time.Parse(time.RFC3339, args.Slot)
	if err != nil {
		return "Could not understand the time slot. Please use a format like '2025-05-30T09:00:00+05:30'.", nil
	}

	booking, err := a.scheduler.CreateEvent(ctx, calendar.BookingInput{
		Summary:     "Meeting with Zeeshan",
		Description: "Auto-scheduled via assistant.",
		Start:       start,
		End:         start.Add(calendar.SlotLength),
	})
	if err != nil {
		return "", err
	}

	meetLink := booking.MeetLink
	if meetLink == "" {
		meetLink = "No meet link generated"
	}
	return fmt.Sprintf("Slot booked for %s (event %s). Meet link: %s",
		start.Format("02 Jan 03:04 PM"), booking.EventID, meetLink), nil
}

// formatSlots renders windows as natural-language lines for the model.
func formatSlots(slots []calendar.Window) string {
	if len(slots) == 0 {
		return "None"
	}
	lines := make([]string, len(slots))
	for i, s := range slots {
		lines[i] = fmt.Sprintf("%s to %s",
			s.Start.Format("02 Jan 03:04 PM"), s.End.Format("03:04 PM"))
	}
	return strings.Join(lines, "\n")
}
