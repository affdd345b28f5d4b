package worker

import (
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	"github.com/okian/guildsnap/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithClassifier decides which fetch errors are retryable.
func WithClassifier(c Classifier) EnricherOption {
	return func(e *Enricher) {
		if c != nil {
			e.retryable = c
		}
	}
}

// WithEnricherLogger sets the enricher logger.
func WithEnricherLogger(l logger.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger of the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithBatchClock replaces the wall clock used for the pause between batches.
func WithBatchClock(c ratelimit.Clock) BatchOption {
	return func(b *Batch) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithBatchLogger sets the batch logger.
func WithBatchLogger(l logger.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}
