// Package retry holds the targets that failed transiently during the first pass.
package retry

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/guildsnap/internal/domain/dedupe"
	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/metrics"
)

// ErrSealed is returned by Push after Drain was called.
var ErrSealed = errors.New("retry queue is sealed")

// Entry is one failed target and the error it failed with.
type Entry struct {
	Target model.Target
	Err    error
}

// Queue collects retryable failures. Each target is kept once; Drain hands the
// entries out and seals the queue so nothing is requeued.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	seen    dedupe.Deduper
	sealed  bool
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{seen: dedupe.NewInMemoryDeduper()}
}

// Push adds a failed target. It reports false for a target already queued.
func (q *Queue) Push(ctx context.Context, target model.Target, err error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return false, ErrSealed
	}
	if q.seen.SeenAndRecord(ctx, target.ID()) {
		return false, nil
	}
	q.entries = append(q.entries, Entry{Target: target, Err: err})
	metrics.UpdateRetryQueueSize(len(q.entries))
	return true, nil
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain seals the queue and returns guild entries followed by player
// entries, each in insertion order.
func (q *Queue) Drain() (guilds, players []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sealed = true
	for _, e := range q.entries {
		if e.Target.Kind == model.TargetGuild {
			guilds = append(guilds, e)
		} else {
			players = append(players, e)
		}
	}
	q.entries = nil
	metrics.UpdateRetryQueueSize(0)
	return guilds, players
}
