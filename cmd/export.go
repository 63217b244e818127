package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"caltime/internal/export"
	"caltime/internal/models"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the filtered events to a new .ics file.",
		ArgsUsage: "[/pattern/replacement/flags ...]",
		Flags: append(sourceFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file. Defaults to stdout."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(logLevel())

			in, err := gatherInput(c, logger)
			if err != nil {
				return err
			}

			events := in.events
			// With rules given, export only the events they match.
			if !in.rules.Empty() {
				var matched []*models.Event
				for _, ev := range events {
					if in.rules.Matches(ev.Summary) {
						matched = append(matched, ev)
					}
				}
				events = matched
			}

			out := os.Stdout
			if path := c.String("output"); path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if err := export.WriteICS(out, events); err != nil {
				return err
			}
			logger.Info("Exported events.", "count", len(events))
			return nil
		},
	}
}
