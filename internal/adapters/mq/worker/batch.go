package worker

import (
	"context"
	"time"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	"github.com/okian/guildsnap/pkg/logger"
)

// Batch enriches players sequentially in groups of size, pausing for window
// after every group but the last.
type Batch struct {
	size      int
	window    time.Duration
	processor Processor
	sink      Sink
	clock     ratelimit.Clock
	logger    logger.Logger
}

// NewBatch creates a batch runner.
func NewBatch(size int, window time.Duration, processor Processor, sink Sink, opts ...BatchOption) *Batch {
	if size < 1 {
		size = 1
	}
	b := &Batch{
		size:      size,
		window:    window,
		processor: processor,
		sink:      sink,
		clock:     ratelimit.RealClock(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run processes keys in order. It returns ctx's error if the run is cancelled.
func (b *Batch) Run(ctx context.Context, keys []model.PlayerKey) error {
	for start := 0; start < len(keys); start += b.size {
		end := min(start+b.size, len(keys))
		for _, key := range keys[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}
			b.sink.Handle(ctx, b.processor.Enrich(ctx, key))
		}

		if end == len(keys) {
			break
		}
		b.logger.Info(ctx, "batch done, cooling down",
			logger.Int("done", end),
			logger.Int("total", len(keys)),
			logger.Duration("pause", b.window),
		)
		if err := b.clock.Sleep(ctx, b.window); err != nil {
			return err
		}
	}
	return nil
}
