// Package export writes analyzed events back out as an iCalendar file.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"caltime/internal/models"
)

// WriteICS encodes the events as a single VCALENDAR stream. Events
// without a UID get a generated one so the output is a valid calendar.
func WriteICS(w io.Writer, events []*models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//caltime//EN")

	for _, ev := range events {
		cal.Children = append(cal.Children, toComponent(ev))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// toComponent converts an internal Event model to an ical.Component (VEVENT).
func toComponent(ev *models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)

	uid := ev.UID
	if uid == "" {
		uid = GenerateUID()
	}
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, ev.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if ev.AllDay {
		setDate(ve, ical.PropDateTimeStart, ev.StartTime)
		setDate(ve, ical.PropDateTimeEnd, ev.EndTime)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartTime)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndTime)
	}

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	return ve
}

// setDate writes a date-only property (VALUE=DATE) for all-day events.
func setDate(ve *ical.Component, name string, t time.Time) {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDate)
	p.Value = t.Format("20060102")
	ve.Props.Set(p)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
