package models

import "time"

// Event represents a standard calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	UID         string    // The iCalendar UID (may be empty for providers that omit it)
	Summary     string    // Summary or title of the event
	Description string    // Detailed description of the event
	StartTime   time.Time // Start time of the event
	EndTime     time.Time // End time of the event
	Location    string    // Location of the event
	AllDay      bool      // True for date-only (all-day) events
	Source      string    // The source of the event (e.g., "ics", "caldav", "google")
}

// Duration returns how long the event lasts.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// InRange reports whether the event lies fully inside the given range.
// A zero start or end leaves that side unbounded. Boundary-equal events
// are included: an event starting exactly at start or ending exactly at
// end passes.
func (e *Event) InRange(start, end time.Time) bool {
	if !start.IsZero() && e.StartTime.Before(start) {
		return false
	}
	if !end.IsZero() && e.EndTime.After(end) {
		return false
	}
	return true
}
