package feed

import (
	"context"
	"sync"

	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/projection"
)

// StaticRankingFeed serves a fixed batch. Setting Err makes Pull fail.
type StaticRankingFeed struct {
	mu    sync.RWMutex
	batch normalize.RankingBatch
	err   error
}

// NewStaticRankingFeed creates a feed that always returns batch.
func NewStaticRankingFeed(batch normalize.RankingBatch) *StaticRankingFeed {
	return &StaticRankingFeed{batch: batch}
}

// Set replaces the served batch and clears any failure.
func (f *StaticRankingFeed) Set(batch normalize.RankingBatch) {
	f.mu.Lock()
	f.batch, f.err = batch, nil
	f.mu.Unlock()
}

// Fail makes subsequent pulls return err.
func (f *StaticRankingFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Pull returns the configured batch.
func (f *StaticRankingFeed) Pull(ctx context.Context) (normalize.RankingBatch, error) {
	if err := ctx.Err(); err != nil {
		return normalize.RankingBatch{}, fetchErr("static", err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return normalize.RankingBatch{}, fetchErr(f.batch.Source, f.err)
	}
	return f.batch, nil
}

// StaticRosterFeed serves fixed rosters by league id.
type StaticRosterFeed struct {
	mu      sync.RWMutex
	leagues map[string]normalize.RosterBatch
	err     error
}

// NewStaticRosterFeed creates a roster feed over the given batches.
func NewStaticRosterFeed(batches ...normalize.RosterBatch) *StaticRosterFeed {
	f := &StaticRosterFeed{leagues: make(map[string]normalize.RosterBatch, len(batches))}
	for _, b := range batches {
		f.leagues[b.LeagueID] = b
	}
	return f
}

// Fail makes subsequent pulls return err.
func (f *StaticRosterFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Pull returns the league's roster batch.
func (f *StaticRosterFeed) Pull(ctx context.Context, leagueID string) (normalize.RosterBatch, error) {
	if err := ctx.Err(); err != nil {
		return normalize.RosterBatch{}, fetchErr("static", err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return normalize.RosterBatch{}, fetchErr("static", f.err)
	}
	b, ok := f.leagues[leagueID]
	if !ok {
		return normalize.RosterBatch{}, fetchErr("static", ErrNoLeague)
	}
	return b, nil
}

// StaticPointsFeed serves a fixed points batch.
type StaticPointsFeed struct {
	mu    sync.RWMutex
	batch normalize.PointsBatch
	err   error
}

// NewStaticPointsFeed creates a feed that always returns batch.
func NewStaticPointsFeed(batch normalize.PointsBatch) *StaticPointsFeed {
	return &StaticPointsFeed{batch: batch}
}

// Fail makes subsequent pulls return err.
func (f *StaticPointsFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Pull returns the configured batch.
func (f *StaticPointsFeed) Pull(ctx context.Context) (normalize.PointsBatch, error) {
	if err := ctx.Err(); err != nil {
		return normalize.PointsBatch{}, fetchErr("static", err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return normalize.PointsBatch{}, fetchErr(f.batch.Source, f.err)
	}
	return f.batch, nil
}

// StaticProjectionFeed serves a fixed projection batch.
type StaticProjectionFeed struct {
	mu    sync.RWMutex
	batch normalize.ProjectionBatch
	err   error
}

// NewStaticProjectionFeed creates a feed that always returns batch.
func NewStaticProjectionFeed(batch normalize.ProjectionBatch) *StaticProjectionFeed {
	return &StaticProjectionFeed{batch: batch}
}

// Fail makes subsequent pulls return err.
func (f *StaticProjectionFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Pull returns the configured batch.
func (f *StaticProjectionFeed) Pull(ctx context.Context) (normalize.ProjectionBatch, error) {
	if err := ctx.Err(); err != nil {
		return normalize.ProjectionBatch{}, fetchErr("static", err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return normalize.ProjectionBatch{}, fetchErr(f.batch.Source, f.err)
	}
	return f.batch, nil
}

// StaticScoringFeed serves fixed scoring settings by league id.
type StaticScoringFeed struct {
	mu      sync.RWMutex
	leagues map[string]projection.Weights
	err     error
}

// NewStaticScoringFeed creates a scoring feed over the given leagues.
func NewStaticScoringFeed(leagues map[string]projection.Weights) *StaticScoringFeed {
	return &StaticScoringFeed{leagues: leagues}
}

// Fail makes subsequent pulls return err.
func (f *StaticScoringFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// ScoringSettings returns the league's weights.
func (f *StaticScoringFeed) ScoringSettings(ctx context.Context, leagueID string) (projection.Weights, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr("static", err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return nil, fetchErr("static", f.err)
	}
	w, ok := f.leagues[leagueID]
	if !ok {
		return nil, fetchErr("static", ErrNoLeague)
	}
	return w, nil
}
