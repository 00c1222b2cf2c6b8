// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and AGENTPULSE_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MarketplaceURL is the base URL of the marketplace API (metrics, directory, offerings).
	MarketplaceURL string `koanf:"marketplace_url"`

	// LeaderboardURL is the base URL of the epoch leaderboard API.
	LeaderboardURL string `koanf:"leaderboard_url"`

	// ProfileURL is the base URL of the public agent profile pages.
	ProfileURL string `koanf:"profile_url"`

	// UserAgent is sent with every marketplace request.
	UserAgent string `koanf:"user_agent"`

	// RequestTimeoutMS bounds marketplace API and profile page requests.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// LeaderboardTimeoutMS bounds leaderboard requests.
	LeaderboardTimeoutMS int `koanf:"leaderboard_timeout_ms"`

	// DefaultEpoch is used when no active epoch is reported.
	DefaultEpoch int `koanf:"default_epoch"`

	// LeaderboardPageSize is the ranking page size requested per fetch.
	LeaderboardPageSize int `koanf:"leaderboard_page_size"`

	// WebhookURL receives job results. Empty disables the result sink.
	WebhookURL string `koanf:"webhook_url"`

	// WebhookSecret is sent as a bearer token to WebhookURL.
	WebhookSecret string `koanf:"webhook_secret"`

	// WebhookTimeoutMS bounds one webhook POST.
	WebhookTimeoutMS int `koanf:"webhook_timeout_ms"`

	// SinkWorkers is the number of webhook delivery workers.
	SinkWorkers int `koanf:"sink_workers"`

	// SinkQueueSize bounds pending webhook deliveries.
	SinkQueueSize int `koanf:"sink_queue_size"`

	// SinkDedupeSize bounds the remembered job ids used to deliver at most once.
	SinkDedupeSize int `koanf:"sink_dedupe_size"`

	// ResultsFile is where the result receiver persists results.
	ResultsFile string `koanf:"results_file"`

	// ResultsLimit caps the number of persisted results.
	ResultsLimit int `koanf:"results_limit"`

	// StoreSecret, when set, is required as a bearer token by the result receiver.
	StoreSecret string `koanf:"store_secret"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		MarketplaceURL:       "https://acpx.virtuals.io",
		LeaderboardURL:       "https://api.virtuals.io",
		ProfileURL:           "https://agdp.io",
		UserAgent:            "AgentPulse/1.0",
		RequestTimeoutMS:     10_000,
		LeaderboardTimeoutMS: 15_000,
		DefaultEpoch:         1,
		LeaderboardPageSize:  1000,
		WebhookTimeoutMS:     5_000,
		SinkWorkers:          2,
		SinkQueueSize:        256,
		SinkDedupeSize:       1024,
		ResultsFile:          "data/results/latest.json",
		ResultsLimit:         100,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	for name, raw := range map[string]string{
		"marketplace_url": c.MarketplaceURL,
		"leaderboard_url": c.LeaderboardURL,
		"profile_url":     c.ProfileURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	if c.WebhookURL != "" {
		if err := validateURL(c.WebhookURL); err != nil {
			return fmt.Errorf("%w: webhook_url: %v", ErrInvalidConfig, err)
		}
	}
	positive := []struct {
		name string
		v    int
	}{
		{"request_timeout_ms", c.RequestTimeoutMS},
		{"leaderboard_timeout_ms", c.LeaderboardTimeoutMS},
		{"default_epoch", c.DefaultEpoch},
		{"leaderboard_page_size", c.LeaderboardPageSize},
		{"webhook_timeout_ms", c.WebhookTimeoutMS},
		{"sink_workers", c.SinkWorkers},
		{"sink_queue_size", c.SinkQueueSize},
		{"sink_dedupe_size", c.SinkDedupeSize},
		{"results_limit", c.ResultsLimit},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.v)
		}
	}
	if strings.TrimSpace(c.ResultsFile) == "" {
		return fmt.Errorf("%w: results_file must not be empty", ErrInvalidConfig)
	}
	return nil
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// LeaderboardTimeout returns LeaderboardTimeoutMS as a duration.
func (c *Config) LeaderboardTimeout() time.Duration {
	return time.Duration(c.LeaderboardTimeoutMS) * time.Millisecond
}

// WebhookTimeout returns WebhookTimeoutMS as a duration.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutMS) * time.Millisecond
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
