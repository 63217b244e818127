package main

import (
	"testing"
	"time"

	"caltime/internal/models"
)

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	got, err := parseDate("2025-03-10", loc)
	if err != nil {
		t.Fatalf("parseDate error: %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got, err = parseDate("2025-03-10T09:30:00Z", loc)
	if err != nil {
		t.Fatalf("parseDate error: %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected RFC 3339 result: %v", got)
	}

	if got, err := parseDate("", loc); err != nil || !got.IsZero() {
		t.Errorf("empty date should be zero, got %v, %v", got, err)
	}

	if _, err := parseDate("10/03/2025", loc); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestResolveLocation(t *testing.T) {
	if loc, err := resolveLocation("", ""); err != nil || loc != time.Local {
		t.Errorf("expected time.Local, got %v, %v", loc, err)
	}
	if loc, err := resolveLocation("UTC", "Europe/Berlin"); err != nil || loc != time.UTC {
		t.Errorf("flag should win, got %v, %v", loc, err)
	}
	loc, err := resolveLocation("", "Europe/Berlin")
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("config zone should apply, got %v, %v", loc, err)
	}
	if _, err := resolveLocation("Not/AZone", ""); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestFilterEvents(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

	ev := func(summary string, s, e time.Time, allDay bool) *models.Event {
		return &models.Event{Summary: summary, StartTime: s, EndTime: e, AllDay: allDay}
	}

	events := []*models.Event{
		ev("before", start.Add(-2*time.Hour), start.Add(-time.Hour), false),
		ev("on start boundary", start, start.Add(time.Hour), false),
		ev("inside", start.Add(24*time.Hour), start.Add(25*time.Hour), false),
		ev("on end boundary", end.Add(-time.Hour), end, false),
		ev("past end", end.Add(-time.Hour), end.Add(time.Hour), false),
		ev("all day", start.Add(24*time.Hour), start.Add(48*time.Hour), true),
	}

	kept := filterEvents(events, start, end, false)
	if len(kept) != 3 {
		t.Fatalf("expected 3 events, got %d", len(kept))
	}
	for _, e := range kept {
		switch e.Summary {
		case "on start boundary", "inside", "on end boundary":
		default:
			t.Errorf("unexpected event kept: %q", e.Summary)
		}
	}

	kept = filterEvents(events, start, end, true)
	if len(kept) != 4 {
		t.Errorf("expected 4 events with all-day included, got %d", len(kept))
	}

	// Open-ended range keeps everything except excluded all-day events.
	kept = filterEvents(events, time.Time{}, time.Time{}, false)
	if len(kept) != 5 {
		t.Errorf("expected 5 events for open range, got %d", len(kept))
	}
}
