// Package repository holds the in-memory player identity table.
package repository

import (
	"context"

	"github.com/okian/guildsnap/internal/domain/model"
)

// Store provides concurrent access to the player table of one run.
type Store interface {
	// UpsertIdentity writes the roster-owned fields of a player, creating the
	// record when absent. Scores are left untouched.
	UpsertIdentity(ctx context.Context, id model.Identity) error

	// Seed inserts a bare record for key if none exists. It never modifies an
	// existing record. Returns true when a record was created.
	Seed(ctx context.Context, key model.PlayerKey) (bool, error)

	// Region returns the region key is looked up in, or "" when the record
	// came without one.
	Region(ctx context.Context, key model.PlayerKey) string

	// MergeScores writes the score fields of an existing player.
	// Returns ErrNotFound for unknown keys.
	MergeScores(ctx context.Context, key model.PlayerKey, scores model.Scores) error

	// Get returns a copy of the record for key.
	Get(ctx context.Context, key model.PlayerKey) (model.PlayerRecord, error)

	// Keys returns every key in (realm, name) order.
	Keys(ctx context.Context) []model.PlayerKey

	// Records returns a copy of every record in (realm, name) order.
	Records(ctx context.Context) []model.PlayerRecord

	Len(ctx context.Context) int
}
