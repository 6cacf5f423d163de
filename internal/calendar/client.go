package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/zeeshanhm/zara/internal/google"
	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/logging"
)

const (
	// CalendarID is the calendar all operations target.
	CalendarID = "primary"

	// Timezone is the single fixed zone the assistant schedules in.
	Timezone = "Asia/Kolkata"

	// SlotLength is the length of a bookable meeting slot.
	SlotLength = 30 * time.Minute
)

// Client wraps the Google Calendar service for the assistant's scheduling
// operations.
type Client struct {
	svc     *calendar.Service
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Calendar client authenticated with the credential
// loaded from cfg. Fails before any network call if the credential files
// are missing. metrics may be nil.
func NewClient(ctx context.Context, cfg google.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient, err := cfg.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("calendar: creating service: %w", err)
	}

	return &Client{
		svc:     svc,
		logger:  logging.WithComponent(logger, "calendar"),
		metrics: metrics,
	}, nil
}

// FreeBusy returns the busy windows on the primary calendar inside the
// given range.
func (c *Client) FreeBusy(ctx context.Context, window Window) ([]Window, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("calendar: invalid free/busy window %v..%v", window.Start, window.End)
	}

	req := &calendar.FreeBusyRequest{
		TimeMin:  window.Start.Format(time.RFC3339),
		TimeMax:  window.End.Format(time.RFC3339),
		TimeZone: Timezone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: CalendarID}},
	}

	spanCtx, span := instrumentation.StartCalendarSpan(ctx, "freebusy")
	start := time.Now()
	res, err := c.svc.Freebusy.Query(req).Context(spanCtx).Do()
	instrumentation.EndSpan(span, err)
	c.metrics.RecordCalendarOperation(ctx, "freebusy", statusOf(err), time.Since(start))
	if err != nil {
		c.logger.Error("free/busy query failed", logging.Operation("calendar.freebusy"), logging.Err(err))
		return nil, fmt.Errorf("calendar: querying free/busy: %w", err)
	}

	cal, ok := res.Calendars[CalendarID]
	if !ok {
		return nil, fmt.Errorf("calendar: free/busy response missing calendar %q", CalendarID)
	}

	var busy []Window
	for _, b := range cal.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar: parsing busy start %q: %w", b.Start, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("calendar: parsing busy end %q: %w", b.End, err)
		}
		busy = append(busy, Window{Start: start, End: end})
	}

	c.logger.Debug("free/busy query complete",
		logging.Operation("calendar.freebusy"),
		slog.Int("busy_windows", len(busy)))
	return busy, nil
}

// AvailableSlots returns the open meeting slots and the busy windows inside
// the given range. Slots are SlotLength long and aligned to the window start.
func (c *Client) AvailableSlots(ctx context.Context, window Window) (free, busy []Window, err error) {
	busy, err = c.FreeBusy(ctx, window)
	if err != nil {
		return nil, nil, err
	}
	return freeSlots(window, busy, SlotLength), busy, nil
}

// CreateEvent inserts an event on the primary calendar with a Google Meet
// conference attached, and returns the created event's identifier and link.
func (c *Client) CreateEvent(ctx context.Context, input BookingInput) (*Booking, error) {
	if input.Start.IsZero() || input.End.IsZero() || !input.End.After(input.Start) {
		return nil, fmt.Errorf("calendar: invalid event range %v..%v", input.Start, input.End)
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: Timezone,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	spanCtx, span := instrumentation.StartCalendarSpan(ctx, "create_event")
	start := time.Now()
	created, err := c.svc.Events.Insert(CalendarID, event).
		ConferenceDataVersion(1).
		Context(spanCtx).
		Do()
	instrumentation.EndSpan(span, err)
	c.metrics.RecordCalendarOperation(ctx, "create_event", statusOf(err), time.Since(start))
	if err != nil {
		c.logger.Error("event insert failed", logging.Operation("calendar.create_event"), logging.Err(err))
		return nil, fmt.Errorf("calendar: creating event: %w", err)
	}

	booking := &Booking{
		EventID:  created.Id,
		MeetLink: created.HangoutLink,
		Start:    input.Start,
		End:      input.End,
	}

	c.logger.Info("event created",
		logging.Operation("calendar.create_event"),
		slog.String("event_id", booking.EventID))
	return booking, nil
}

func statusOf(err error) string {
	if err != nil {
		return logging.StatusError
	}
	return logging.StatusSuccess
}

// Location returns the fixed scheduling timezone.
func Location() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
