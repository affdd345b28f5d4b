// Package ratelimit bounds the number of remote calls issued in any rolling window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

// Governor grants at most limit calls in any window-long span of time.
//
// Each grant is kept in a log ordered by time. A grant at t occupies a slot
// while now-t < window; when all slots are occupied the caller sleeps until
// the oldest one frees. One governor is shared by every caller of the run.
type Governor struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	history      []time.Time
	blockedUntil time.Time
	granted      int64

	clock Clock
	log   logger.Logger
}

// NewGovernor returns a governor allowing limit calls per window.
func NewGovernor(limit int, window time.Duration, opts ...Option) (*Governor, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	g := &Governor{
		limit:   limit,
		window:  window,
		history: make([]time.Time, 0, limit),
		clock:   RealClock(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Wait blocks until a slot is granted or ctx is done.
func (g *Governor) Wait(ctx context.Context) error {
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		g.mu.Lock()
		d := g.reserve(g.clock.Now())
		g.mu.Unlock()

		if d == 0 {
			if waited > 0 {
				metrics.RecordGovernorWait(waited.Seconds())
			}
			return nil
		}

		g.log.Debug(ctx, "rate limit reached, waiting", logger.Duration("wait", d))
		if err := g.clock.Sleep(ctx, d); err != nil {
			return err
		}
		waited += d
	}
}

// Penalize blocks all grants for a full window, starting now. Called when the
// remote side answers 429.
func (g *Governor) Penalize() {
	g.mu.Lock()
	until := g.clock.Now().Add(g.window)
	if until.After(g.blockedUntil) {
		g.blockedUntil = until
	}
	g.mu.Unlock()

	metrics.RecordGovernorPenalty()
	g.log.Warn(context.Background(), "remote rate limit hit, pausing all calls", logger.Duration("pause", g.window))
}

// Granted returns the number of slots handed out so far.
func (g *Governor) Granted() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted
}

// Limit returns the configured requests per window.
func (g *Governor) Limit() int { return g.limit }

// Window returns the configured window.
func (g *Governor) Window() time.Duration { return g.window }

// reserve records a grant at now and returns 0, or returns how long to wait.
// Must be called with g.mu held.
func (g *Governor) reserve(now time.Time) time.Duration {
	if now.Before(g.blockedUntil) {
		return g.blockedUntil.Sub(now)
	}

	g.trim(now)
	if len(g.history) < g.limit {
		g.history = append(g.history, now)
		g.granted++
		return 0
	}
	return g.history[0].Add(g.window).Sub(now)
}

// trim drops grants that no longer occupy a slot.
func (g *Governor) trim(now time.Time) {
	i := 0
	for i < len(g.history) && now.Sub(g.history[i]) >= g.window {
		i++
	}
	if i > 0 {
		g.history = append(g.history[:0], g.history[i:]...)
	}
}
