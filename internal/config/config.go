// Package config holds the optional YAML configuration: default
// analysis settings, CalDAV connection details, and named rule presets.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CalDAVConfig holds the connection details for a CalDAV source.
type CalDAVConfig struct {
	// Endpoint is the CalDAV server URL, e.g. "https://caldav.example.com/".
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Calendar is the display name of the calendar to analyze.
	Calendar string `yaml:"calendar"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone used for date parsing and reporting.
	Timezone string `yaml:"timezone"`

	// Encoding is the default calendar file encoding ("utf-8" or "latin-1").
	Encoding string `yaml:"encoding"`

	// IncludeAllDay includes all-day events in the analysis by default.
	IncludeAllDay bool `yaml:"include_all_day"`

	// CalDAV, if non-nil, configures the CalDAV source.
	CalDAV *CalDAVConfig `yaml:"caldav,omitempty"`

	// Presets maps a preset name to a list of /pattern/replacement/flags
	// grouping rules, selectable with --preset.
	Presets map[string][]string `yaml:"presets"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Local",
		Encoding: "utf-8",
		Presets:  map[string][]string{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.Presets == nil {
		c.Presets = map[string][]string{}
	}
}

// DefaultPath returns the config file path: $CALTIME_CONFIG if set,
// otherwise <user config dir>/caltime/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("CALTIME_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "caltime", "config.yaml"), nil
}

// Load loads configuration from the given YAML path. A missing file is
// not an error: defaults are returned so the tool works without any
// config.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600 (it may hold credentials).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".caltime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
