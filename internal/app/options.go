package app

import (
	"time"

	"github.com/okian/guildsnap/internal/config"
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	"github.com/okian/guildsnap/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithPaths sets the input and output files.
func WithPaths(guilds, players, snapshot, sideLog string) Option {
	return func(p *Pipeline) {
		p.guildPath = guilds
		p.playerPath = players
		if snapshot != "" {
			p.snapshotPath = snapshot
		}
		if sideLog != "" {
			p.sideLogPath = sideLog
		}
	}
}

// WithStrategy selects config.StrategyPool or config.StrategyBatch.
func WithStrategy(strategy string) Option {
	return func(p *Pipeline) {
		if strategy != "" {
			p.strategy = strategy
		}
	}
}

// WithWorkerCount sets the number of enrichment workers.
func WithWorkerCount(count int) Option {
	return func(p *Pipeline) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the enrichment queue.
func WithQueueSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithRateLimit sets the batch size and pause used by the batch strategy.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(p *Pipeline) {
		if requests > 0 {
			p.batchSize = requests
		}
		if window > 0 {
			p.batchWindow = window
		}
	}
}

// WithRosterConcurrency bounds concurrent roster calls.
func WithRosterConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.rosterConcurrency = n
		}
	}
}

// WithRosterDelay sets the pause between roster calls.
func WithRosterDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.rosterDelay = d
		}
	}
}

// WithShardCount sets the shard count of the player table.
func WithShardCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.shardCount = n
		}
	}
}

// WithClock replaces the wall clock for roster delays and batch pauses.
func WithClock(c ratelimit.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithClassifier decides which fetch errors are retryable.
func WithClassifier(c func(error) bool) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.retryable = c
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// FromConfig maps the configuration onto pipeline options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithPaths(cfg.GuildListPath, cfg.PlayerListPath, cfg.SnapshotPath, cfg.ErrorLogPath),
		WithStrategy(cfg.EnrichStrategy),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow()),
		WithRosterConcurrency(cfg.RosterConcurrency),
		WithRosterDelay(cfg.RosterDelay()),
		WithShardCount(cfg.ShardCount),
	}
}
