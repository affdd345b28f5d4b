package app

import (
	"sync/atomic"
	"time"

	"github.com/okian/guildsnap/pkg/logger"
)

// Report summarises one run.
type Report struct {
	RunID        string
	Guilds       int
	GuildsFailed int
	Players      int
	Enriched     int
	Unknown      int
	Malformed    int
	Retried      int
	Recovered    int
	Dropped      int
	SnapshotPath string
	Duration     time.Duration
}

// Degraded reports whether some players or guilds kept default data.
func (r Report) Degraded() bool {
	return r.GuildsFailed > 0 || r.Unknown > 0 || r.Malformed > 0 || r.Dropped > 0
}

func (r Report) fields() []logger.Field {
	return []logger.Field{
		logger.Int("guilds", r.Guilds),
		logger.Int("guilds_failed", r.GuildsFailed),
		logger.Int("players", r.Players),
		logger.Int("enriched", r.Enriched),
		logger.Int("unknown", r.Unknown),
		logger.Int("malformed", r.Malformed),
		logger.Int("retried", r.Retried),
		logger.Int("recovered", r.Recovered),
		logger.Int("dropped", r.Dropped),
		logger.Duration("took", r.Duration),
	}
}

// counters are the concurrently updated parts of a Report.
type counters struct {
	guildsFailed atomic.Int64
	enriched     atomic.Int64
	unknown      atomic.Int64
	malformed    atomic.Int64
	recovered    atomic.Int64
	dropped      atomic.Int64
}

func (c *counters) fill(r *Report) {
	r.GuildsFailed = int(c.guildsFailed.Load())
	r.Enriched = int(c.enriched.Load())
	r.Unknown = int(c.unknown.Load())
	r.Malformed = int(c.malformed.Load())
	r.Recovered = int(c.recovered.Load())
	r.Dropped = int(c.dropped.Load())
}
