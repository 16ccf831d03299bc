// Package config provides configuration loading and defaults for the Lookout bot.
//
// Configuration is loaded from a TOML file in the bot's data directory.
// The Discord bot token is deliberately not part of the file: it comes from
// the DISCORD_TOKEN environment variable and is required at startup.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/lookoutbot/lookout/internal/paths"
	"github.com/lookoutbot/lookout/internal/storage"
)

// TokenEnvVar is the environment variable holding the Discord bot token.
const TokenEnvVar = "DISCORD_TOKEN"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Notify holds follow-notification settings.
	Notify NotifyConfig `toml:"notify"`
	// Countdown holds daily countdown announcer settings.
	Countdown CountdownConfig `toml:"countdown"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// NotifyConfig holds follow-notification settings.
type NotifyConfig struct {
	// Ignore is a list of glob patterns matched against destination channel
	// names. Joins into a matching channel produce no notifications.
	Ignore []string `toml:"ignore"`
	// LookupTimeoutSeconds bounds each external lookup (guild scan, DM send)
	// during fan-out so one hung call cannot stall the whole delivery.
	LookupTimeoutSeconds int `toml:"lookup_timeout_seconds"`
}

// CountdownConfig holds daily countdown announcer settings.
type CountdownConfig struct {
	// Enabled turns the countdown announcer on.
	Enabled bool `toml:"enabled"`
	// ChannelID is the channel the daily message is posted to.
	ChannelID string `toml:"channel_id"`
	// TargetDate is the date being counted down to, in YYYY-MM-DD form.
	TargetDate string `toml:"target_date"`
	// HourUTC is the hour of day (UTC) at which the daily post runs.
	HourUTC int `toml:"hour_utc"`
	// Style selects the day-count renderer: "block", "keycap", or "plain".
	Style string `toml:"style"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Notify: NotifyConfig{
			Ignore:               []string{},
			LookupTimeoutSeconds: 5,
		},
		Countdown: CountdownConfig{
			Enabled:    false,
			ChannelID:  "",
			TargetDate: "2026-05-26",
			HourUTC:    8,
			Style:      "block",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return storage.Write(path, buf.Bytes(), 0o644)
}

// Token reads the Discord bot token from the environment.
// An empty result means the bot must not start.
func Token() string {
	return strings.TrimSpace(os.Getenv(TokenEnvVar))
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}

	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	if c.Notify.LookupTimeoutSeconds <= 0 {
		return fmt.Errorf("notify.lookup_timeout_seconds must be > 0, got %d", c.Notify.LookupTimeoutSeconds)
	}

	for _, pattern := range c.Notify.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid notify.ignore pattern %q", pattern)
		}
	}

	if c.Countdown.HourUTC < 0 || c.Countdown.HourUTC > 23 {
		return fmt.Errorf("countdown.hour_utc must be 0-23, got %d", c.Countdown.HourUTC)
	}

	switch c.Countdown.Style {
	case "block", "keycap", "plain":
	default:
		return fmt.Errorf("invalid countdown.style %q: must be block, keycap, or plain", c.Countdown.Style)
	}

	if _, err := time.Parse("2006-01-02", c.Countdown.TargetDate); err != nil {
		return fmt.Errorf("invalid countdown.target_date %q: %w", c.Countdown.TargetDate, err)
	}

	if c.Countdown.Enabled && c.Countdown.ChannelID == "" {
		return fmt.Errorf("countdown.channel_id is required when countdown.enabled is true")
	}

	return nil
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// LookupTimeout returns the per-lookup deadline as a duration.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Notify.LookupTimeoutSeconds) * time.Second
}

// TargetTime parses the countdown target date at UTC midnight.
// Validate guarantees the date parses, so errors only occur on an
// unvalidated Config.
func (c *Config) TargetTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.Countdown.TargetDate)
}

// NotifyIgnored reports whether channelName matches any of the configured
// notify ignore patterns. Invalid patterns are skipped, not fatal.
func (c *Config) NotifyIgnored(channelName string) bool {
	for _, pattern := range c.Notify.Ignore {
		matched, err := doublestar.Match(pattern, channelName)
		if err != nil {
			slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
