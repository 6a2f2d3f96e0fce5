package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/domain/types"
)

// boards is an immutable snapshot of one run's season boards. Writers
// replace it whole.
type boards struct {
	run    uuid.UUID
	season map[int][]types.Entry
}

// MemoryLeaderboards is an in-memory LeaderboardStore holding the boards of
// a single model run. Reads go through an atomically published snapshot and
// never block writers.
type MemoryLeaderboards struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[boards]
}

// NewMemoryLeaderboards returns an empty cache.
func NewMemoryLeaderboards() *MemoryLeaderboards {
	s := &MemoryLeaderboards{}
	s.snapshot.Store(&boards{season: map[int][]types.Entry{}})
	return s
}

// Put implements LeaderboardStore.
func (s *MemoryLeaderboards) Put(ctx context.Context, run uuid.UUID, season int, entries []types.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snapshot.Load()
	next := &boards{run: run, season: map[int][]types.Entry{}}
	if cur.run == run {
		next.season = maps.Clone(cur.season)
	}
	next.season[season] = slices.Clone(entries)
	s.snapshot.Store(next)
	return nil
}

// TopN implements LeaderboardStore.
func (s *MemoryLeaderboards) TopN(ctx context.Context, run uuid.UUID, season, n int) ([]types.Entry, error) {
	if n < 0 {
		return nil, ErrInvalidLimit
	}
	cur := s.snapshot.Load()
	if cur.run != run {
		return nil, ErrNotFound
	}
	entries, ok := cur.season[season]
	if !ok {
		return nil, ErrNotFound
	}
	if n == 0 || n > len(entries) {
		n = len(entries)
	}
	return slices.Clone(entries[:n]), nil
}

// Run implements LeaderboardStore.
func (s *MemoryLeaderboards) Run(ctx context.Context) uuid.UUID {
	return s.snapshot.Load().run
}

// Seasons implements LeaderboardStore.
func (s *MemoryLeaderboards) Seasons(ctx context.Context) []int {
	return slices.Sorted(maps.Keys(s.snapshot.Load().season))
}

// Count implements LeaderboardStore.
func (s *MemoryLeaderboards) Count(ctx context.Context) int {
	return len(s.snapshot.Load().season)
}
