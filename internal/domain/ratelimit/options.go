package ratelimit

import "github.com/okian/guildsnap/pkg/logger"

// Option configures a Governor.
type Option func(*Governor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Governor) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLogger sets the logger used for throttle and penalty messages.
func WithLogger(l logger.Logger) Option {
	return func(g *Governor) {
		if l != nil {
			g.log = l
		}
	}
}
