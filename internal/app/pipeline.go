// Package app wires the guild roster pipeline: load inputs, fetch rosters,
// enrich players under the rate limit, retry once, write the snapshot.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/guildsnap/internal/adapters/mq/queue"
	"github.com/okian/guildsnap/internal/adapters/mq/worker"
	"github.com/okian/guildsnap/internal/adapters/raiderio"
	"github.com/okian/guildsnap/internal/adapters/repository"
	"github.com/okian/guildsnap/internal/adapters/snapshot"
	"github.com/okian/guildsnap/internal/config"
	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	"github.com/okian/guildsnap/internal/domain/retry"
	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

// Client is the remote API used by the pipeline.
type Client interface {
	FetchRoster(ctx context.Context, g model.GuildIdentifier) (model.Roster, error)
	FetchScores(ctx context.Context, key model.PlayerKey, region string) (model.Scores, error)
}

// Inputs reads the guild list and the supplementary player list.
type Inputs interface {
	Guilds(ctx context.Context, path string) ([]model.GuildIdentifier, error)
	Players(ctx context.Context, path string) ([]model.PlayerKey, error)
}

// Pipeline runs one aggregation pass per call to Run.
type Pipeline struct {
	client Client
	inputs Inputs

	guildPath    string
	playerPath   string
	snapshotPath string
	sideLogPath  string

	strategy          string
	workerCount       int
	queueSize         int
	batchSize         int
	batchWindow       time.Duration
	rosterConcurrency int
	rosterDelay       time.Duration
	shardCount        int

	clock     ratelimit.Clock
	retryable func(error) bool
	logger    logger.Logger
}

// New constructs a pipeline with default configuration.
func New(client Client, inputs Inputs, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:            client,
		inputs:            inputs,
		snapshotPath:      "members.json",
		sideLogPath:       "errors.log",
		strategy:          config.StrategyPool,
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         10000,
		batchSize:         300,
		batchWindow:       time.Minute,
		rosterConcurrency: 2,
		rosterDelay:       time.Second,
		shardCount:        16,
		clock:             ratelimit.RealClock(),
		retryable:         raiderio.Retryable,
		logger:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. Per-guild and per-player failures never fail the
// run; only errors wrapping ErrCatastrophic or a cancelled ctx are returned.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	report := Report{RunID: uuid.NewString(), SnapshotPath: p.snapshotPath}
	log := p.logger.With(logger.String("run_id", report.RunID))

	log.Info(ctx, "run started",
		logger.String("strategy", p.strategy),
		logger.String("guilds", p.guildPath),
		logger.String("snapshot", p.snapshotPath),
	)

	side, err := snapshot.OpenSideLog(p.sideLogPath)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrCatastrophic, err)
	}
	defer func() {
		if err := side.Close(); err != nil {
			log.Error(ctx, "closing side log failed", logger.Error(err))
		}
	}()

	guilds, err := p.inputs.Guilds(ctx, p.guildPath)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrCatastrophic, err)
	}
	players, err := p.inputs.Players(ctx, p.playerPath)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrCatastrophic, err)
	}
	report.Guilds = len(guilds)

	r := &run{
		p:       p,
		log:     log,
		store:   repository.NewPlayerStore(repository.WithShardCount(p.shardCount)),
		retries: retry.New(),
		side:    side,
	}
	r.enricher = worker.NewEnricher(p.client, r.store,
		worker.WithClassifier(p.retryable),
		worker.WithEnricherLogger(log.Named("enricher")),
	)

	r.guilds = guilds
	r.rosters = r.fetchRosters(ctx, guilds, passPrimary)
	r.applyRosters(ctx, r.rosters)

	for _, key := range players {
		if _, err := r.store.Seed(ctx, key); err != nil {
			log.Warn(ctx, "skipping supplementary player", logger.String("player", key.String()), logger.Error(err))
		}
	}
	log.Info(ctx, "player table built", logger.Int("players", r.store.Len(ctx)), logger.Int("supplementary", len(players)))

	if err := r.enrich(ctx, r.store.Keys(ctx)); err != nil {
		return report, err
	}

	report.Retried = r.retryPass(ctx)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	records := r.store.Records(ctx)
	if err := snapshot.NewWriter(p.snapshotPath, log.Named("snapshot")).Write(ctx, records); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		return report, fmt.Errorf("%w: %w", ErrCatastrophic, err)
	}

	report.Players = len(records)
	r.counters.fill(&report)
	report.Duration = time.Since(started)
	metrics.UpdateRunDuration(report.Duration.Seconds())

	if report.Degraded() {
		log.Info(ctx, "run complete with default data for some entries", report.fields()...)
	} else {
		log.Info(ctx, "run complete", report.fields()...)
	}
	return report, nil
}

// poolShutdownTimeout bounds how long an interrupted run waits for workers.
const poolShutdownTimeout = 5 * time.Second

type pass int

const (
	passPrimary pass = iota
	// passRetryMembers enriches players first seen in a retried roster.
	passRetryMembers
	passRetry
)

// run holds the state of a single Run.
type run struct {
	p        *Pipeline
	log      logger.Logger
	store    repository.Store
	retries  *retry.Queue
	side     *snapshot.SideLog
	enricher *worker.Enricher
	counters counters

	// guilds and rosters are index-aligned; a nil roster was not fetched.
	guilds  []model.GuildIdentifier
	rosters []*model.Roster
}

// fetchRosters fetches every guild with bounded concurrency and a fixed delay
// between calls. The result is index-aligned with guilds; failed guilds are nil.
func (r *run) fetchRosters(ctx context.Context, guilds []model.GuildIdentifier, ps pass) []*model.Roster {
	out := make([]*model.Roster, len(guilds))

	var g errgroup.Group
	g.SetLimit(r.p.rosterConcurrency)
	for i, id := range guilds {
		if i > 0 && r.p.rosterDelay > 0 {
			if err := r.p.clock.Sleep(ctx, r.p.rosterDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			out[i] = r.handleRoster(ctx, r.fetchRoster(ctx, id), ps)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *run) fetchRoster(ctx context.Context, id model.GuildIdentifier) model.Outcome[model.Roster] {
	target := model.GuildTarget(id)
	roster, err := r.p.client.FetchRoster(ctx, id)
	switch {
	case err == nil:
		return model.Success(target, roster)
	case r.p.retryable(err):
		return model.Retryable[model.Roster](target, err)
	default:
		return model.Terminal[model.Roster](target, err)
	}
}

func (r *run) handleRoster(ctx context.Context, o model.Outcome[model.Roster], ps pass) *model.Roster {
	guild := logger.String("guild", o.Target.Guild.String())

	switch o.Kind {
	case model.OutcomeSuccess:
		if ps != passPrimary {
			r.counters.recovered.Add(1)
			metrics.RecordRetryResult(string(model.TargetGuild), "recovered")
		}
		r.log.Info(ctx, "roster fetched", guild, logger.Int("members", len(o.Value.Members)))
		return &o.Value

	case model.OutcomeRetryable:
		if ps == passPrimary {
			r.log.Warn(ctx, "roster fetch failed, will retry", guild, logger.Error(o.Err))
			r.pushRetry(ctx, o.Target, o.Err)
			return nil
		}
		r.counters.guildsFailed.Add(1)
		r.counters.dropped.Add(1)
		metrics.RecordRetryResult(string(model.TargetGuild), "dropped")
		r.log.Warn(ctx, "roster retry failed, guild dropped", guild, logger.Error(o.Err))
		return nil

	default:
		r.counters.guildsFailed.Add(1)
		if errors.Is(o.Err, raiderio.ErrMalformedResponse) {
			r.counters.malformed.Add(1)
		}
		r.log.Warn(ctx, "guild skipped", guild, logger.Error(o.Err))
		return nil
	}
}

// applyRosters upserts members in guild order, so for a player listed by two
// guilds the later guild wins. It returns the players not in the table before.
func (r *run) applyRosters(ctx context.Context, rosters []*model.Roster) []model.PlayerKey {
	var added []model.PlayerKey
	for _, roster := range rosters {
		if roster == nil {
			continue
		}
		for _, id := range roster.Identities() {
			if _, err := r.store.Get(ctx, id.Key); errors.Is(err, repository.ErrNotFound) {
				added = append(added, id.Key)
			}
			if err := r.store.UpsertIdentity(ctx, id); err != nil {
				r.log.Warn(ctx, "skipping roster member", logger.String("guild", roster.Guild), logger.Error(err))
			}
		}
	}
	return added
}

// enrich runs the configured strategy over keys.
func (r *run) enrich(ctx context.Context, keys []model.PlayerKey) error {
	r.log.Info(ctx, "enrichment started", logger.String("strategy", r.p.strategy), logger.Int("players", len(keys)))
	sink := &sink{r: r, pass: passPrimary}

	if r.p.strategy == config.StrategyBatch {
		b := worker.NewBatch(r.p.batchSize, r.p.batchWindow, r.enricher, sink,
			worker.WithBatchClock(r.p.clock),
			worker.WithBatchLogger(r.log.Named("batch")),
		)
		return b.Run(ctx, keys)
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(r.p.queueSize))
	pool := worker.NewPool(r.p.workerCount, q, r.enricher, sink, worker.WithPoolLogger(r.log.Named("worker-pool")))
	pool.Start(ctx)

	for _, key := range keys {
		if err := q.Enqueue(ctx, key); err != nil {
			// Interrupted: stop the workers instead of draining what is queued.
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), poolShutdownTimeout)
			defer cancel()
			if serr := pool.Shutdown(sctx); serr != nil {
				r.log.Warn(ctx, "worker pool did not stop in time", logger.Error(serr))
			}
			return err
		}
	}
	_ = q.Close()
	pool.Wait()
	return ctx.Err()
}

// retryPass drains the retry queue once. Guilds go first; recovered rosters
// take their place in guild-list order and every roster is applied again, so
// attribution does not depend on which pass fetched a guild. New members are
// enriched right after, then the failed players are retried. Nothing that
// fails here is queued again. Returns the number of drained entries.
func (r *run) retryPass(ctx context.Context) int {
	guildEntries, playerEntries := r.retries.Drain()
	total := len(guildEntries) + len(playerEntries)
	if total == 0 || ctx.Err() != nil {
		return total
	}
	r.log.Info(ctx, "retry pass started", logger.Int("guilds", len(guildEntries)), logger.Int("players", len(playerEntries)))

	guilds := make([]model.GuildIdentifier, 0, len(guildEntries))
	for _, e := range guildEntries {
		guilds = append(guilds, e.Target.Guild)
	}
	var added []model.PlayerKey
	if r.mergeRecovered(guilds, r.fetchRosters(ctx, guilds, passRetry)) {
		added = r.applyRosters(ctx, r.rosters)
	}
	r.enrichEach(ctx, added, passRetryMembers)

	players := make([]model.PlayerKey, 0, len(playerEntries))
	for _, e := range playerEntries {
		players = append(players, e.Target.Player)
	}
	r.enrichEach(ctx, players, passRetry)
	return total
}

// mergeRecovered puts rosters fetched in the retry pass into their guild-list
// slots. It reports whether any guild was recovered.
func (r *run) mergeRecovered(retried []model.GuildIdentifier, fetched []*model.Roster) bool {
	slot := make(map[string]int, len(r.guilds))
	for i, g := range r.guilds {
		slot[g.Key()] = i
	}

	recovered := false
	for i, roster := range fetched {
		if roster == nil {
			continue
		}
		if j, ok := slot[retried[i].Key()]; ok {
			r.rosters[j] = roster
			recovered = true
		}
	}
	return recovered
}

func (r *run) enrichEach(ctx context.Context, keys []model.PlayerKey, ps pass) {
	s := &sink{r: r, pass: ps}

	var g errgroup.Group
	g.SetLimit(r.p.workerCount)
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		key := key
		g.Go(func() error {
			s.Handle(ctx, r.enricher.Enrich(ctx, key))
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) pushRetry(ctx context.Context, target model.Target, cause error) {
	if _, err := r.retries.Push(ctx, target, cause); err != nil {
		r.log.Error(ctx, "retry queue rejected entry", logger.String("target", target.String()), logger.Error(err))
	}
}
