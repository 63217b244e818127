package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"caltime/internal/ics"
	"caltime/internal/models"
)

func TestWriteICS(t *testing.T) {
	events := []*models.Event{
		{
			UID:       "kept-uid",
			Summary:   "Team sync",
			StartTime: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		},
		{
			// No UID: one must be generated.
			Summary:   "Holiday",
			StartTime: time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC),
			AllDay:    true,
		},
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, events); err != nil {
		t.Fatalf("WriteICS error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "UID:kept-uid") {
		t.Errorf("existing UID not preserved:\n%s", out)
	}
	if !strings.Contains(out, "DTSTART;VALUE=DATE:20250317") {
		t.Errorf("all-day event not encoded date-only:\n%s", out)
	}

	// The output must parse back with the same events.
	parsed, err := ics.Parse(strings.NewReader(out), ics.Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("re-parse error: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 events after re-parse, got %d", len(parsed))
	}
	for _, ev := range parsed {
		if ev.UID == "" {
			t.Errorf("event %q has empty UID after export", ev.Summary)
		}
	}
}
