// Package report aggregates classified calendar events into per-group
// durations and renders the result as text, JSON, or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"caltime/internal/models"
	"caltime/internal/rules"
)

// Group is one aggregated line of the report.
type Group struct {
	Label  string        `json:"label"`
	Total  time.Duration `json:"-"`
	Hours  float64       `json:"hours"`
	Events int           `json:"events"`
}

// Report is the result of one analysis run.
type Report struct {
	Groups     []Group `json:"groups"`
	TotalHours float64 `json:"total_hours"`
	Events     int     `json:"events"`

	total time.Duration
}

// Build classifies each event through the rule set and sums durations
// per group. Groups are ordered by total duration descending, ties
// broken by label.
func Build(events []*models.Event, rs *rules.Set) *Report {
	byLabel := make(map[string]*Group)
	r := &Report{}

	for _, ev := range events {
		d := ev.Duration()
		r.total += d
		r.Events++

		label := rs.Label(ev.Summary)
		g, ok := byLabel[label]
		if !ok {
			g = &Group{Label: label}
			byLabel[label] = g
		}
		g.Total += d
		g.Events++
	}

	for _, g := range byLabel {
		g.Hours = hours(g.Total)
		r.Groups = append(r.Groups, *g)
	}
	sort.Slice(r.Groups, func(i, j int) bool {
		if r.Groups[i].Total != r.Groups[j].Total {
			return r.Groups[i].Total > r.Groups[j].Total
		}
		return r.Groups[i].Label < r.Groups[j].Label
	})
	r.TotalHours = hours(r.total)

	return r
}

// WriteText renders the report as "label: hours" lines followed by a
// total line.
func (r *Report) WriteText(w io.Writer) error {
	for _, g := range r.Groups {
		if _, err := fmt.Fprintf(w, "%s: %s\n", g.Label, formatHours(g.Hours)); err != nil {
			return err
		}
	}
	noun := "events"
	if r.Events == 1 {
		noun = "event"
	}
	_, err := fmt.Fprintf(w, "TOTAL: %s (%d %s)\n", formatHours(r.TotalHours), r.Events, noun)
	return err
}

// WriteJSON renders the report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV renders the report as CSV with a header row.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "hours", "events"}); err != nil {
		return err
	}
	for _, g := range r.Groups {
		rec := []string{g.Label, formatHours(g.Hours), strconv.Itoa(g.Events)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func hours(d time.Duration) float64 {
	return d.Seconds() / 3600.0
}

// formatHours prints hours with two decimals, e.g. "1.50".
func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
