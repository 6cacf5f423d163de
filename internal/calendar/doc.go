// Package calendar provides a client for the Google Calendar API scoped to
// the scheduling assistant's needs: querying free/busy windows and booking
// meeting slots on the primary calendar.
//
// All times are interpreted in a single fixed timezone (Asia/Kolkata). The
// OAuth credential is injected at construction via google.Config; this
// package holds no global state.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx, googleCfg, logger, metrics)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	window := calendar.Window{Start: time.Now(), End: time.Now().Add(48 * time.Hour)}
//	free, busy, err := client.AvailableSlots(ctx, window)
package calendar
