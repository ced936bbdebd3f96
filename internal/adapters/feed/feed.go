// Package feed pulls raw ranking, roster, scoring and projection records from upstream
// sources. Feeds return loosely typed rows plus a version tag; mapping rows
// onto the canonical model is the normalizer's job.
package feed

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/projection"
)

// RankingFeed pulls one ranking record set.
type RankingFeed interface {
	Pull(ctx context.Context) (normalize.RankingBatch, error)
}

// RosterFeed pulls the roster of one league.
type RosterFeed interface {
	Pull(ctx context.Context, leagueID string) (normalize.RosterBatch, error)
}

// PointsFeed pulls actual and expected fantasy points.
type PointsFeed interface {
	Pull(ctx context.Context) (normalize.PointsBatch, error)
}

// ProjectionFeed pulls projected stat lines.
type ProjectionFeed interface {
	Pull(ctx context.Context) (normalize.ProjectionBatch, error)
}

// ScoringFeed pulls a league's scoring settings.
type ScoringFeed interface {
	ScoringSettings(ctx context.Context, leagueID string) (projection.Weights, error)
}

// contentVersion tags a payload that carries no version of its own.
func contentVersion(parts ...[]byte) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
