package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/metrics"
)

const defaultShardCount = 16

type shard struct {
	mu   sync.RWMutex
	byID map[model.PlayerKey]*model.PlayerRecord
}

// PlayerStore is a sharded map of player records. A key always hashes to the
// same shard, so writers on different players rarely contend.
type PlayerStore struct {
	shards     []*shard
	shardCount int
	size       atomic.Int64
}

var _ Store = (*PlayerStore)(nil)

// NewPlayerStore constructs an empty store.
func NewPlayerStore(opts ...Option) *PlayerStore {
	s := &PlayerStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{byID: make(map[model.PlayerKey]*model.PlayerRecord)}
	}
	return s
}

func (s *PlayerStore) shardFor(key model.PlayerKey) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.Realm))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.Name))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *PlayerStore) UpsertIdentity(_ context.Context, id model.Identity) error {
	if !id.Key.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKey, id.Key.String())
	}

	sh := s.shardFor(id.Key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.byID[id.Key]
	if !ok {
		rec = &model.PlayerRecord{Realm: id.Key.Realm, Name: id.Key.Name}
		sh.byID[id.Key] = rec
		metrics.UpdatePlayersTotal(int(s.size.Add(1)))
	}
	rec.Guild = copyString(id.Guild)
	rec.Region = id.Region
	rec.Class = id.Class
	rec.ActiveSpec = id.ActiveSpec
	return nil
}

func (s *PlayerStore) Seed(_ context.Context, key model.PlayerKey) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidKey, key.String())
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.byID[key]; ok {
		return false, nil
	}
	sh.byID[key] = &model.PlayerRecord{Realm: key.Realm, Name: key.Name}
	metrics.UpdatePlayersTotal(int(s.size.Add(1)))
	return true, nil
}

func (s *PlayerStore) MergeScores(_ context.Context, key model.PlayerKey, scores model.Scores) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.byID[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	rec.Scores = scores
	return nil
}

func (s *PlayerStore) Region(_ context.Context, key model.PlayerKey) string {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if rec, ok := sh.byID[key]; ok {
		return rec.Region
	}
	return ""
}

func (s *PlayerStore) Get(_ context.Context, key model.PlayerKey) (model.PlayerRecord, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.byID[key]
	if !ok {
		return model.PlayerRecord{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return clone(rec), nil
}

func (s *PlayerStore) Keys(_ context.Context) []model.PlayerKey {
	keys := make([]model.PlayerKey, 0, s.size.Load())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.byID {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

func (s *PlayerStore) Records(_ context.Context) []model.PlayerRecord {
	out := make([]model.PlayerRecord, 0, s.size.Load())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.byID {
			out = append(out, clone(rec))
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key(), out[j].Key()) })
	return out
}

func (s *PlayerStore) Len(_ context.Context) int {
	return int(s.size.Load())
}

func lessKey(a, b model.PlayerKey) bool {
	if a.Realm != b.Realm {
		return a.Realm < b.Realm
	}
	return a.Name < b.Name
}

func clone(rec *model.PlayerRecord) model.PlayerRecord {
	out := *rec
	out.Guild = copyString(rec.Guild)
	return out
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
