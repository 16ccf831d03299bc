// config_test.go tests defaults, TOML loading, validation, and the notify
// ignore-pattern matching.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lookoutbot/lookout/internal/paths"
)

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Notify.LookupTimeoutSeconds != 5 {
		t.Errorf("LookupTimeoutSeconds = %d, want 5", cfg.Notify.LookupTimeoutSeconds)
	}
	if cfg.Countdown.Enabled {
		t.Error("countdown should be disabled by default")
	}
	if cfg.Countdown.Style != "block" {
		t.Errorf("Style = %q, want block", cfg.Countdown.Style)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notify.LookupTimeoutSeconds != 5 {
		t.Errorf("LookupTimeoutSeconds = %d, want default 5", cfg.Notify.LookupTimeoutSeconds)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
[log]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	// Unset sections keep their defaults.
	if cfg.Notify.LookupTimeoutSeconds != 5 {
		t.Errorf("LookupTimeoutSeconds = %d, want 5", cfg.Notify.LookupTimeoutSeconds)
	}
}

func TestLoad_FullFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[notify]
ignore = ["AFK*", "admin-*"]
lookup_timeout_seconds = 8

[countdown]
enabled = true
channel_id = "100000000000000001"
target_date = "2027-01-01"
hour_utc = 12
style = "keycap"

[log]
level = "warn"
max_size_mb = 25
`
	if err := os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Notify.Ignore) != 2 {
		t.Errorf("Ignore = %v, want two patterns", cfg.Notify.Ignore)
	}
	if cfg.LookupTimeout() != 8*time.Second {
		t.Errorf("LookupTimeout = %v, want 8s", cfg.LookupTimeout())
	}
	if !cfg.Countdown.Enabled || cfg.Countdown.HourUTC != 12 {
		t.Errorf("Countdown = %+v, want enabled at hour 12", cfg.Countdown)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	content := `
[log]
level = "verbose"
`
	if err := os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Notify.Ignore = []string{"AFK*"}

	if err := cfg.Save(filepath.Join(dir, paths.ConfigFile)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", loaded.Log.Level)
	}
	if len(loaded.Notify.Ignore) != 1 || loaded.Notify.Ignore[0] != "AFK*" {
		t.Errorf("Ignore = %v, want [AFK*]", loaded.Notify.Ignore)
	}
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid_defaults", func(c *Config) {}, ""},
		{"bad_level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"zero_max_size", func(c *Config) { c.Log.MaxSizeMB = 0 }, "max_size_mb"},
		{"zero_timeout", func(c *Config) { c.Notify.LookupTimeoutSeconds = 0 }, "lookup_timeout_seconds"},
		{"bad_glob", func(c *Config) { c.Notify.Ignore = []string{"[unclosed"} }, "ignore pattern"},
		{"hour_too_large", func(c *Config) { c.Countdown.HourUTC = 24 }, "hour_utc"},
		{"hour_negative", func(c *Config) { c.Countdown.HourUTC = -1 }, "hour_utc"},
		{"bad_style", func(c *Config) { c.Countdown.Style = "ascii" }, "style"},
		{"bad_date", func(c *Config) { c.Countdown.TargetDate = "May 26" }, "target_date"},
		{
			"enabled_without_channel",
			func(c *Config) { c.Countdown.Enabled = true; c.Countdown.ChannelID = "" },
			"channel_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Notify Ignore Matching
// ///////////////////////////////////////////////

func TestNotifyIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Notify.Ignore = []string{"AFK*", "admin-*", "Secret Base"}

	tests := []struct {
		name    string
		channel string
		want    bool
	}{
		{"prefix_glob", "AFK Lounge", true},
		{"dash_glob", "admin-voice", true},
		{"exact", "Secret Base", true},
		{"no_match", "Lounge", false},
		{"case_sensitive", "afk lounge", false},
		{"empty_name", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.NotifyIgnored(tt.channel); got != tt.want {
				t.Errorf("NotifyIgnored(%q) = %v, want %v", tt.channel, got, tt.want)
			}
		})
	}
}

func TestNotifyIgnored_NoPatterns(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NotifyIgnored("anything") {
		t.Error("empty pattern list must never ignore")
	}
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

func TestTargetTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Countdown.TargetDate = "2026-05-26"

	got, err := cfg.TargetTime()
	if err != nil {
		t.Fatalf("TargetTime: %v", err)
	}
	want := time.Date(2026, 5, 26, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TargetTime = %v, want %v", got, want)
	}
}

func TestToken(t *testing.T) {
	t.Setenv(TokenEnvVar, "  abc123  ")
	if got := Token(); got != "abc123" {
		t.Errorf("Token = %q, want trimmed value", got)
	}

	t.Setenv(TokenEnvVar, "")
	if got := Token(); got != "" {
		t.Errorf("Token = %q, want empty", got)
	}
}
