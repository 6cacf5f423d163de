package calendar

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the window is non-empty.
func (w Window) IsValid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// Overlaps reports whether two windows share any time.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// BookingInput describes an event to be created on the calendar.
type BookingInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Booking is the result of a successful event creation.
type Booking struct {
	EventID  string
	MeetLink string
	Start    time.Time
	End      time.Time
}

// freeSlots computes the open slots of length slotLen inside window, given
// the busy windows reported by the calendar. Candidate slots advance on a
// slotLen grid from the window start; any overlap with a busy window
// disqualifies the candidate.
func freeSlots(window Window, busy []Window, slotLen time.Duration) []Window {
	var free []Window

	for start := window.Start; !start.Add(slotLen).After(window.End); start = start.Add(slotLen) {
		candidate := Window{Start: start, End: start.Add(slotLen)}
		overlaps := false
		for _, b := range busy {
			if candidate.Overlaps(b) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			free = append(free, candidate)
		}
	}

	return free
}
