package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Timezone != "Local" || cfg.Encoding != "utf-8" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_ParsesAndNormalizes(t *testing.T) {
	data := `
timezone: Europe/Berlin
caldav:
  endpoint: https://caldav.example.com/
  username: alex
  password: secret
  calendar: Work
presets:
  work:
    - /Standup.*/Meetings/i
    - /1:1.*/Meetings/
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("unexpected timezone: %q", cfg.Timezone)
	}
	// Encoding missing in file: normalized default.
	if cfg.Encoding != "utf-8" {
		t.Errorf("expected normalized encoding, got %q", cfg.Encoding)
	}
	if cfg.CalDAV == nil || cfg.CalDAV.Calendar != "Work" {
		t.Errorf("unexpected caldav config: %+v", cfg.CalDAV)
	}
	if len(cfg.Presets["work"]) != 2 {
		t.Errorf("unexpected presets: %+v", cfg.Presets)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timezone: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "America/New_York"
	cfg.Presets["personal"] = []string{"/Gym.*/Exercise/i"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600 perms, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Timezone != "America/New_York" {
		t.Errorf("unexpected timezone: %q", loaded.Timezone)
	}
	if got := loaded.Presets["personal"]; len(got) != 1 || got[0] != "/Gym.*/Exercise/i" {
		t.Errorf("unexpected preset: %+v", got)
	}
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv("CALTIME_CONFIG", "/tmp/custom.yaml")
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath error: %v", err)
	}
	if p != "/tmp/custom.yaml" {
		t.Errorf("unexpected path: %q", p)
	}
}
