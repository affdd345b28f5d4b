package worker

import (
	"context"
	"fmt"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/logger"
)

// Fetcher returns the current scores of a player in region.
type Fetcher interface {
	FetchScores(ctx context.Context, key model.PlayerKey, region string) (model.Scores, error)
}

// Updater is the player table: it knows where a player is looked up and
// stores the scores.
type Updater interface {
	Region(ctx context.Context, key model.PlayerKey) string
	MergeScores(ctx context.Context, key model.PlayerKey, scores model.Scores) error
}

// Classifier tells a retryable failure from a terminal one.
type Classifier func(err error) bool

// Enricher fetches and merges the scores of one player.
type Enricher struct {
	fetcher   Fetcher
	updater   Updater
	retryable Classifier
	logger    logger.Logger
}

// NewEnricher builds an enricher. Without WithClassifier every failure is retryable.
func NewEnricher(fetcher Fetcher, updater Updater, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		fetcher:   fetcher,
		updater:   updater,
		retryable: func(error) bool { return true },
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich runs one fetch and reports how it went. Scores are merged only on success.
func (e *Enricher) Enrich(ctx context.Context, key model.PlayerKey) model.Outcome[model.Scores] {
	target := model.PlayerTarget(key)

	scores, err := e.fetcher.FetchScores(ctx, key, e.updater.Region(ctx, key))
	if err != nil {
		if e.retryable(err) {
			return model.Retryable[model.Scores](target, err)
		}
		return model.Terminal[model.Scores](target, err)
	}

	if err := e.updater.MergeScores(ctx, key, scores); err != nil {
		// The key came from the table, so this only happens on a programming error.
		return model.Terminal[model.Scores](target, fmt.Errorf("merge scores: %w", err))
	}

	e.logger.Debug(ctx, "player enriched", logger.String("player", key.String()), logger.Float64("all", scores.All))
	return model.Success(target, scores)
}
