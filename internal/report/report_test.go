package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"caltime/internal/models"
	"caltime/internal/rules"
)

func mustRules(t *testing.T, specs ...string) *rules.Set {
	t.Helper()
	rs, err := rules.Parse(specs)
	if err != nil {
		t.Fatalf("rules.Parse error: %v", err)
	}
	return rs
}

func event(summary string, start time.Time, d time.Duration) *models.Event {
	return &models.Event{
		Summary:   summary,
		StartTime: start,
		EndTime:   start.Add(d),
	}
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, mustRules(t))
	if len(r.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(r.Groups))
	}
	if r.TotalHours != 0 {
		t.Errorf("expected zero total, got %v", r.TotalHours)
	}
	if r.Events != 0 {
		t.Errorf("expected zero events, got %d", r.Events)
	}
}

func TestBuild_GroupsAndTotal(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Standup", base, 30*time.Minute),
		event("Standup", base.AddDate(0, 0, 1), 30*time.Minute),
		event("Deep work", base.Add(2*time.Hour), 3*time.Hour),
	}
	rs := mustRules(t, "/Standup/Meetings/")

	r := Build(events, rs)
	if r.Events != 3 {
		t.Fatalf("expected 3 events, got %d", r.Events)
	}
	if len(r.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(r.Groups))
	}
	// Sorted by duration descending: Deep work (3h) before Meetings (1h).
	if r.Groups[0].Label != "Deep work" || r.Groups[1].Label != "Meetings" {
		t.Errorf("unexpected order: %q, %q", r.Groups[0].Label, r.Groups[1].Label)
	}
	if r.Groups[1].Hours != 1.0 {
		t.Errorf("expected 1.0 hours for Meetings, got %v", r.Groups[1].Hours)
	}
	if r.TotalHours != 4.0 {
		t.Errorf("expected 4.0 total hours, got %v", r.TotalHours)
	}
}

func TestBuild_TieBrokenByLabel(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Beta", base, time.Hour),
		event("Alpha", base, time.Hour),
	}
	r := Build(events, mustRules(t))
	if r.Groups[0].Label != "Alpha" || r.Groups[1].Label != "Beta" {
		t.Errorf("expected alphabetical tie-break, got %q, %q", r.Groups[0].Label, r.Groups[1].Label)
	}
}

func TestWriteText(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Standup", base, 90*time.Minute),
	}
	r := Build(events, mustRules(t, "/Standup/Meetings/"))

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Meetings: 1.50") {
		t.Errorf("missing group line in output: %q", out)
	}
	if !strings.Contains(out, "TOTAL: 1.50 (1 event)") {
		t.Errorf("missing total line in output: %q", out)
	}
}

func TestWriteText_PluralEvents(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Standup", base, time.Hour),
		event("Standup", base.AddDate(0, 0, 1), time.Hour),
	}
	r := Build(events, mustRules(t))

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	if !strings.Contains(buf.String(), "TOTAL: 2.00 (2 events)") {
		t.Errorf("missing plural total line in output: %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Gym", base, 2*time.Hour),
	}
	r := Build(events, mustRules(t))

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded.TotalHours != 2.0 {
		t.Errorf("expected total_hours 2.0, got %v", decoded.TotalHours)
	}
	if len(decoded.Groups) != 1 || decoded.Groups[0].Label != "Gym" {
		t.Errorf("unexpected groups: %+v", decoded.Groups)
	}
}

func TestWriteCSV(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []*models.Event{
		event("Gym", base, time.Hour),
	}
	r := Build(events, mustRules(t))

	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "label,hours,events" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "Gym,1.00,1" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}
