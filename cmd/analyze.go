package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"caltime/internal/caldav"
	"caltime/internal/config"
	"caltime/internal/google"
	"caltime/internal/ics"
	"caltime/internal/models"
	"caltime/internal/report"
	"caltime/internal/rules"
)

// sourceFlags are shared between the analyze and export commands.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "Start date, inclusive (YYYY-MM-DD or RFC 3339)."},
		&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "End date; events must end at or before it (YYYY-MM-DD or RFC 3339)."},
		&cli.StringFlag{Name: "calendar", Aliases: []string{"c"}, Usage: "Calendar .ics file path or http(s)/webcal URL."},
		&cli.StringFlag{Name: "caldav", Usage: "CalDAV calendar name. Endpoint and credentials come from the config file or CALDAV_* env vars."},
		&cli.StringFlag{Name: "google", Usage: "Google calendar ID to analyze."},
		&cli.StringFlag{Name: "google-account", Usage: "Named Google account (from the auth command). Defaults to the only saved account."},
		&cli.BoolFlag{Name: "allday", Usage: "Include all-day events."},
		&cli.StringFlag{Name: "timezone", Usage: "IANA timezone for date parsing and reporting."},
		&cli.StringFlag{Name: "encoding", Usage: "Calendar file encoding: utf-8 (default) or latin-1."},
		&cli.StringFlag{Name: "config", Usage: "Config file path. Defaults to the user config dir."},
		&cli.StringFlag{Name: "preset", Usage: "Name of a rule preset from the config file."},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Report time spent per group of matching events.",
		ArgsUsage: "[/pattern/replacement/flags ...]",
		Flags: append(sourceFlags(),
			&cli.StringFlag{Name: "format", Value: "text", Usage: "Output format: text, json, or csv."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(logLevel())

			in, err := gatherInput(c, logger)
			if err != nil {
				return err
			}

			logger.Info("Analyzing events.", "start", in.start, "end", in.end, "events", len(in.events))
			r := report.Build(in.events, in.rules)

			switch c.String("format") {
			case "", "text":
				return r.WriteText(os.Stdout)
			case "json":
				return r.WriteJSON(os.Stdout)
			case "csv":
				return r.WriteCSV(os.Stdout)
			default:
				return fmt.Errorf("unsupported format %q", c.String("format"))
			}
		},
	}
}

// analysisInput is everything the analyze and export commands share:
// the resolved date range, the compiled rules, and the loaded and
// filtered events.
type analysisInput struct {
	start  time.Time
	end    time.Time
	rules  *rules.Set
	events []*models.Event
}

func gatherInput(c *cli.Context, logger *slog.Logger) (*analysisInput, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	loc, err := resolveLocation(c.String("timezone"), cfg.Timezone)
	if err != nil {
		return nil, err
	}

	start, err := parseDate(c.String("start"), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(c.String("end"), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", c.String("end"), c.String("start"))
	}

	specs, err := ruleSpecs(c, cfg)
	if err != nil {
		return nil, err
	}
	rs, err := rules.Parse(specs)
	if err != nil {
		return nil, err
	}

	events, err := loadEvents(c, logger, cfg, loc, start, end)
	if err != nil {
		return nil, err
	}

	includeAllDay := c.Bool("allday") || cfg.IncludeAllDay
	events = filterEvents(events, start, end, includeAllDay)

	return &analysisInput{
		start:  start,
		end:    end,
		rules:  rs,
		events: events,
	}, nil
}

// ruleSpecs combines a config preset (if requested) with the positional
// rule arguments.
func ruleSpecs(c *cli.Context, cfg *config.Config) ([]string, error) {
	var specs []string
	if name := c.String("preset"); name != "" {
		preset, ok := cfg.Presets[name]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		specs = append(specs, preset...)
	}
	specs = append(specs, c.Args().Slice()...)
	return specs, nil
}

// loadEvents reads events from exactly one configured source.
func loadEvents(c *cli.Context, logger *slog.Logger, cfg *config.Config, loc *time.Location, start, end time.Time) ([]*models.Event, error) {
	sources := 0
	for _, f := range []string{"calendar", "caldav", "google"} {
		if c.String(f) != "" {
			sources++
		}
	}
	if sources == 0 {
		return nil, fmt.Errorf("no calendar source given: use --calendar, --caldav, or --google")
	}
	if sources > 1 {
		return nil, fmt.Errorf("choose exactly one of --calendar, --caldav, or --google")
	}

	opts := ics.Options{
		Location:   loc,
		RangeStart: start,
		RangeEnd:   end,
	}

	switch {
	case c.String("calendar") != "":
		opts.Source = "ics"
		encoding := c.String("encoding")
		if encoding == "" {
			encoding = cfg.Encoding
		}
		return ics.Load(c.Context, logger, c.String("calendar"), encoding, opts)

	case c.String("caldav") != "":
		opts.Source = "caldav"
		endpoint, username, password := caldavCredentials(cfg)
		client, err := caldav.NewClient(logger, endpoint, username, password, c.String("caldav"))
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		qStart, qEnd := opts.RangeStart, opts.RangeEnd
		if qStart.IsZero() {
			qStart = time.Now().AddDate(-1, 0, 0)
		}
		if qEnd.IsZero() {
			qEnd = time.Now().AddDate(1, 0, 0)
		}
		return client.FetchEvents(c.Context, qStart, qEnd, opts)

	default:
		account, err := googleAccount(c)
		if err != nil {
			return nil, err
		}
		client, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client: %w", err)
		}
		qStart, qEnd := start, end
		if qStart.IsZero() {
			qStart = time.Now().AddDate(-1, 0, 0)
		}
		if qEnd.IsZero() {
			qEnd = time.Now().AddDate(1, 0, 0)
		}
		return client.GetEvents(c.String("google"), qStart, qEnd)
	}
}

// caldavCredentials resolves the CalDAV connection from config, with
// environment variables taking precedence.
func caldavCredentials(cfg *config.Config) (endpoint, username, password string) {
	if cfg.CalDAV != nil {
		endpoint = cfg.CalDAV.Endpoint
		username = cfg.CalDAV.Username
		password = cfg.CalDAV.Password
	}
	if v := os.Getenv("CALDAV_ENDPOINT"); v != "" {
		endpoint = v
	}
	if v := os.Getenv("CALDAV_USERNAME"); v != "" {
		username = v
	}
	if v := os.Getenv("CALDAV_PASSWORD"); v != "" {
		password = v
	}
	return endpoint, username, password
}

func googleAccount(c *cli.Context) (string, error) {
	if acc := c.String("google-account"); acc != "" {
		return acc, nil
	}
	accounts, err := google.GetTokenAccounts()
	if err != nil {
		return "", fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no google accounts found. Run the 'auth' command first")
	}
	if len(accounts) > 1 {
		return "", fmt.Errorf("multiple google accounts found, pick one with --google-account")
	}
	return accounts[0], nil
}

// resolveLocation picks the timezone: flag first, then config, then the
// system zone.
func resolveLocation(flagZone, cfgZone string) (*time.Location, error) {
	zone := flagZone
	if zone == "" {
		zone = cfgZone
	}
	if zone == "" || zone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", zone, err)
	}
	return loc, nil
}

// parseDate parses a date argument as a plain date in loc or as a full
// RFC 3339 timestamp. An empty string leaves that bound open.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("not a valid date: '%s'", s)
}

// filterEvents keeps events fully inside the range, dropping all-day
// events unless requested.
func filterEvents(events []*models.Event, start, end time.Time, includeAllDay bool) []*models.Event {
	var kept []*models.Event
	for _, ev := range events {
		if ev.AllDay && !includeAllDay {
			continue
		}
		if !ev.InRange(start, end) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}
