// Package ics loads calendar events from iCalendar data, expanding
// recurring events within an analysis window.
package ics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"caltime/internal/models"
)

// Options controls parsing and recurrence expansion.
type Options struct {
	// Location is the zone used for floating date-times and date-only
	// values. Defaults to time.Local.
	Location *time.Location

	// RangeStart and RangeEnd bound recurrence expansion. A zero value
	// falls back to one year before/after now; an unbounded RRULE has
	// to be cut off somewhere.
	RangeStart time.Time
	RangeEnd   time.Time

	// Source labels the resulting events (e.g. "ics", "caldav").
	Source string
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

func (o Options) window() (time.Time, time.Time) {
	start, end := o.RangeStart, o.RangeEnd
	if start.IsZero() {
		start = time.Now().AddDate(-1, 0, 0)
	}
	if end.IsZero() {
		end = time.Now().AddDate(1, 0, 0)
	}
	return start, end
}

// Parse decodes one or more VCALENDAR streams from r and returns the
// contained events. VEVENTs that cannot be parsed are skipped so one
// malformed entry does not discard the whole calendar.
func Parse(r io.Reader, opts Options) ([]*models.Event, error) {
	dec := ical.NewDecoder(r)

	var events []*models.Event
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}
		events = append(events, EventsFromCalendar(cal, opts)...)
	}
	return events, nil
}

// EventsFromCalendar converts the VEVENT components of a decoded
// calendar into events, expanding recurrences.
func EventsFromCalendar(cal *ical.Calendar, opts Options) []*models.Event {
	var events []*models.Event
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		parsed, err := parseEvent(comp, opts)
		if err != nil {
			// Skip events we can't parse.
			continue
		}
		events = append(events, parsed...)
	}
	return events
}

// parseEvent converts a VEVENT component to events. Recurring events
// yield one event per occurrence within the expansion window.
func parseEvent(comp *ical.Component, opts Options) ([]*models.Event, error) {
	loc := opts.location()

	base := models.Event{Source: opts.Source}
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		base.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		base.Summary = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		base.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		base.Location = prop.Value
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return nil, fmt.Errorf("missing DTSTART")
	}
	start, allDay, err := parseDateTimeProp(startProp, loc)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}

	var duration time.Duration
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		end, _, err := parseDateTimeProp(prop, loc)
		if err != nil {
			return nil, fmt.Errorf("parse end time: %w", err)
		}
		duration = end.Sub(start)
	} else if prop := comp.Props.Get(ical.PropDuration); prop != nil {
		duration, err = parseDuration(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("parse duration: %w", err)
		}
	} else if allDay {
		// A date-only event without DTEND spans the whole day.
		duration = 24 * time.Hour
	}

	rset, err := comp.RecurrenceSet(loc)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence: %w", err)
	}

	if rset == nil {
		base.StartTime = start
		base.EndTime = start.Add(duration)
		base.AllDay = allDay
		return []*models.Event{&base}, nil
	}

	windowStart, windowEnd := opts.window()
	// Look back by the event duration so occurrences straddling the
	// window start are still produced.
	occurrences := rset.Between(windowStart.Add(-duration), windowEnd, true)

	var events []*models.Event
	for _, occ := range occurrences {
		ev := base
		ev.StartTime = occ
		ev.EndTime = occ.Add(duration)
		ev.AllDay = allDay
		// Make the UID unique per occurrence.
		ev.UID = fmt.Sprintf("%s_%d", base.UID, occ.Unix())
		events = append(events, &ev)
	}
	return events, nil
}

// parseDateTimeProp parses a DTSTART/DTEND property, handling TZID and
// UTC values via the library, plus floating date-times and date-only
// (all-day) values. The bool result reports whether the value was
// date-only.
func parseDateTimeProp(prop *ical.Prop, loc *time.Location) (time.Time, bool, error) {
	if t, err := prop.DateTime(loc); err == nil {
		return t, isDateValue(prop), nil
	}
	// Floating local date-time, e.g. 20250101T090000.
	if t, err := time.ParseInLocation("20060102T150405", prop.Value, loc); err == nil {
		return t, false, nil
	}
	// Date-only, e.g. 20250101.
	t, err := time.ParseInLocation("20060102", prop.Value, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func isDateValue(prop *ical.Prop) bool {
	if strings.EqualFold(prop.Params.Get(ical.ParamValue), "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

// parseDuration parses an iCalendar DURATION value (RFC 5545 §3.3.6),
// e.g. "PT1H30M", "P1D", "-PT15M". Week/day/time designators are
// supported; the library exposes no parser for this property.
func parseDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var d time.Duration
	inTime := false
	num := ""
	components := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			num += string(c)
			continue
		}
		if c == 'T' {
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		num = ""
		switch {
		case c == 'W':
			d += time.Duration(n) * 7 * 24 * time.Hour
		case c == 'D':
			d += time.Duration(n) * 24 * time.Hour
		case c == 'H' && inTime:
			d += time.Duration(n) * time.Hour
		case c == 'M' && inTime:
			d += time.Duration(n) * time.Minute
		case c == 'S' && inTime:
			d += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		components++
	}
	// At least one component is required: a bare "P" or "PT" is not a
	// duration.
	if num != "" || components == 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		d = -d
	}
	return d, nil
}
