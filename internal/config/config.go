// Package config defines pipeline configuration and its loading hooks.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers a YAML file and env vars on top.
// - Durations are plain integers with a unit suffix in the key (_ms, _sec).
// - Validate is called by Load; callers building a Config by hand should call it too.
package config

import (
	"runtime"
	"time"
)

// Enrichment strategies.
const (
	StrategyPool  = "pool"
	StrategyBatch = "batch"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// GuildListPath is the line-delimited guild token file.
	GuildListPath string `koanf:"guild_list_path" validate:"required"`
	// PlayerListPath is the optional supplementary "name realm..." file.
	PlayerListPath string `koanf:"player_list_path"`
	// SnapshotPath is where the JSON snapshot is committed.
	SnapshotPath string `koanf:"snapshot_path" validate:"required"`
	// ErrorLogPath receives "character not found" lines, truncated per run.
	ErrorLogPath string `koanf:"error_log_path" validate:"required"`
	// StrictInputs makes unreadable input files fatal instead of empty.
	StrictInputs bool `koanf:"strict_inputs"`

	// APIBaseURL is the raider.io API root.
	APIBaseURL string `koanf:"api_base_url" validate:"required,url"`
	// Region is used for guild tokens that do not carry one and for supplementary players.
	Region string `koanf:"region" validate:"required"`
	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`
	// RequestTimeoutMS bounds every remote call.
	RequestTimeoutMS int `koanf:"request_timeout_ms" validate:"gt=0"`

	// RateLimitRequests (R) and RateLimitWindowSec (W) describe the API budget.
	RateLimitRequests  int `koanf:"rate_limit_requests" validate:"gt=0"`
	RateLimitWindowSec int `koanf:"rate_limit_window_sec" validate:"gt=0"`

	// EnrichStrategy is "pool" (worker pool + shared governor) or "batch" (sequential batches).
	EnrichStrategy string `koanf:"enrich_strategy" validate:"oneof=pool batch"`
	// WorkerCount sets the number of enrichment workers in pool mode.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`
	// QueueSize bounds the enrichment work queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// RosterConcurrency bounds concurrent roster requests.
	RosterConcurrency int `koanf:"roster_concurrency" validate:"gt=0"`
	// RosterDelayMS is the pause each roster task takes before its request.
	RosterDelayMS int `koanf:"roster_delay_ms" validate:"gte=0"`

	// ShardCount configures the number of shards in the player identity table.
	ShardCount int `koanf:"shard_count" validate:"gt=0"`

	// MetricsAddr serves /metrics while the pipeline runs; empty disables it.
	MetricsAddr string `koanf:"metrics_addr" validate:"omitempty,hostname_port"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		GuildListPath:      "guilds.txt",
		SnapshotPath:       "members.json",
		ErrorLogPath:       "errors.log",
		APIBaseURL:         "https://raider.io/api/v1",
		Region:             "eu",
		UserAgent:          "guildsnap/1.0",
		RequestTimeoutMS:   15_000,
		RateLimitRequests:  300,
		RateLimitWindowSec: 60,
		EnrichStrategy:     StrategyPool,
		WorkerCount:        runtime.NumCPU() * 2,
		QueueSize:          10_000,
		RosterConcurrency:  2,
		RosterDelayMS:      1_000,
		ShardCount:         16,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RateLimitWindow returns RateLimitWindowSec as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// RosterDelay returns RosterDelayMS as a duration.
func (c *Config) RosterDelay() time.Duration {
	return time.Duration(c.RosterDelayMS) * time.Millisecond
}
