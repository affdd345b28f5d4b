package source

import (
	"strings"

	"github.com/okian/guildsnap/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithRegion sets the region for guild tokens that do not name one.
func WithRegion(region string) Option {
	return func(l *Loader) {
		if region != "" {
			l.region = strings.ToLower(region)
		}
	}
}

// WithStrict makes unreadable input files an error instead of an empty list.
func WithStrict(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithLogger sets the loader logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}
