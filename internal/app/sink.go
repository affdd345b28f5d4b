package app

import (
	"context"
	"errors"

	"github.com/okian/guildsnap/internal/adapters/raiderio"
	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

// sink folds enrichment outcomes into the run: retryable failures of the
// first pass go to the retry queue, unknown characters to the side log.
type sink struct {
	r    *run
	pass pass
}

func (s *sink) Handle(ctx context.Context, o model.Outcome[model.Scores]) {
	r := s.r
	player := logger.String("player", o.Target.Player.String())

	switch o.Kind {
	case model.OutcomeSuccess:
		r.counters.enriched.Add(1)
		if s.pass == passRetry {
			r.counters.recovered.Add(1)
			metrics.RecordRetryResult(string(model.TargetPlayer), "recovered")
		}

	case model.OutcomeRetryable:
		if s.pass == passPrimary {
			r.log.Debug(ctx, "enrichment failed, will retry", player, logger.Error(o.Err))
			r.pushRetry(ctx, o.Target, o.Err)
			return
		}
		r.counters.dropped.Add(1)
		metrics.RecordRetryResult(string(model.TargetPlayer), "dropped")
		r.log.Warn(ctx, "enrichment retry failed, keeping default scores", player, logger.Error(o.Err))

	default:
		s.terminal(ctx, o, player)
	}
}

func (s *sink) terminal(ctx context.Context, o model.Outcome[model.Scores], player logger.Field) {
	r := s.r
	switch {
	case errors.Is(o.Err, raiderio.ErrUnknownCharacter):
		r.counters.unknown.Add(1)
		if err := r.side.UnknownCharacter(o.Target.Player); err != nil {
			r.log.Error(ctx, "side log append failed", player, logger.Error(err))
		}
		r.log.Info(ctx, "character not found", player)
	case errors.Is(o.Err, raiderio.ErrMalformedResponse):
		r.counters.malformed.Add(1)
		r.log.Warn(ctx, "profile without scores, keeping defaults", player, logger.Error(o.Err))
	default:
		r.log.Warn(ctx, "enrichment failed", player, logger.Error(o.Err))
	}
}
