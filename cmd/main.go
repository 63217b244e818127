package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"caltime/internal/config"
	"caltime/internal/google"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "caltime",
		Usage: "Analyze calendar events to track time spent on activities.",
		Commands: []*cli.Command{
			analyzeCommand(),
			exportCommand(),
			authCommand(),
			calendarsCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			cfg, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(cfg, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List the calendar IDs of an authenticated Google account.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "google-account", Usage: "Named Google account (from the auth command). Defaults to the only saved account."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(logLevel())

			account, err := googleAccount(c)
			if err != nil {
				return err
			}
			client, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			ids, err := client.DiscoverGoogleCalendars()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the caltime configuration file.",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default config file.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "Config file path. Defaults to the user config dir."},
				},
				Action: func(c *cli.Context) error {
					logger := setupLogger(logLevel())

					path, err := configPath(c)
					if err != nil {
						return err
					}
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("config file already exists: %s", path)
					}

					if err := config.Save(path, config.DefaultConfig()); err != nil {
						return fmt.Errorf("failed to write config: %w", err)
					}
					logger.Info("Wrote default config.", "path", path)
					return nil
				},
			},
		},
	}
}

// configPath resolves the config file path from the flag or the default
// location.
func configPath(c *cli.Context) (string, error) {
	if p := c.String("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func logLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return level
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
