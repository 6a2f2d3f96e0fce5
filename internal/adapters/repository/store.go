// Package repository persists model bundles and caches built leaderboards.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/domain/model"
	"github.com/okian/mvpcast/internal/domain/types"
)

// BundleStore persists the trained model bundle. Load never modifies the
// stored artifact.
type BundleStore interface {
	Save(ctx context.Context, b *model.Bundle) error
	// Load returns ErrNotFound when no bundle has been saved.
	Load(ctx context.Context) (*model.Bundle, error)
}

// LeaderboardStore caches built leaderboards by model run and season end
// year. Only the latest run's boards are kept.
type LeaderboardStore interface {
	// Put replaces the board for a season built by run. Boards of any
	// other run are dropped.
	Put(ctx context.Context, run uuid.UUID, season int, entries []types.Entry) error
	// TopN returns up to n entries for a season; n of 0 returns all.
	// Returns ErrNotFound if run has not built the season.
	TopN(ctx context.Context, run uuid.UUID, season, n int) ([]types.Entry, error)
	// Run returns the run whose boards are cached.
	Run(ctx context.Context) uuid.UUID
	// Seasons returns the cached seasons in ascending order.
	Seasons(ctx context.Context) []int
	// Count returns the number of cached seasons.
	Count(ctx context.Context) int
}
