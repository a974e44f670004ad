// Package config loads process configuration for the bot and the CLI.
package config

import (
	"fmt"
	"net/url"
	"time"

	"Floodsim_discord_bot/internal/version"
)

// Config プロセス全体の設定
type Config struct {
	// DiscordToken is only required by the bot.
	DiscordToken string `koanf:"discord_token"`

	// Prefix for text commands, e.g. "!".
	Prefix string `koanf:"prefix"`

	// BackendURL is the base URL of the simulation service.
	BackendURL string `koanf:"backend_url"`

	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	SimulateTimeout time.Duration `koanf:"simulate_timeout"`
	CompareTimeout  time.Duration `koanf:"compare_timeout"`

	// BackendRPS spaces backend calls across all users. 0 disables it.
	BackendRPS float64 `koanf:"backend_rps"`

	// BeforeCacheTTL keeps fetched baseline images in memory. 0 disables it.
	BeforeCacheTTL time.Duration `koanf:"before_cache_ttl"`

	// SessionTTL drops a user's latest result after this much inactivity. 0 keeps it forever.
	SessionTTL time.Duration `koanf:"session_ttl"`

	UserAgent string `koanf:"user_agent"`

	// MetricsAddr serves /metrics when non-empty, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// SettingsPath is the per-guild settings file.
	SettingsPath string `koanf:"settings_path"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Prefix:          "!",
		BackendURL:      "http://localhost:8000",
		FetchTimeout:    60 * time.Second,
		SimulateTimeout: 240 * time.Second,
		CompareTimeout:  240 * time.Second,
		BackendRPS:      2,
		BeforeCacheTTL:  2 * time.Minute,
		SessionTTL:      6 * time.Hour,
		UserAgent:       "floodsim-bot/" + version.Version,
		SettingsPath:    "data/settings.json",
	}
}

// Validate checks the values that every front end depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: backend_url %q must be an absolute http(s) URL", ErrInvalidConfig, c.BackendURL)
	}
	timeouts := map[string]time.Duration{
		"fetch_timeout":    c.FetchTimeout,
		"simulate_timeout": c.SimulateTimeout,
		"compare_timeout":  c.CompareTimeout,
	}
	for key, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, key, d)
		}
	}
	if c.BackendRPS < 0 {
		return fmt.Errorf("%w: backend_rps must not be negative", ErrInvalidConfig)
	}
	if c.SessionTTL < 0 || c.BeforeCacheTTL < 0 {
		return fmt.Errorf("%w: session_ttl and before_cache_ttl must not be negative", ErrInvalidConfig)
	}
	if c.Prefix == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrInvalidConfig)
	}
	return nil
}
