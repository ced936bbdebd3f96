// Package tiers partitions a position's ranked players into ordered tiers.
//
// Players are sorted by rank and split into contiguous runs over the feature
// pair (consensus value, dispersion). The split is optimal for within-tier
// squared error and the tier count is picked by a BIC-style score, so the same
// input always yields the same tiers.
package tiers

import (
	"context"
	"errors"
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

const (
	defaultMaxTiers      = 8
	defaultVarianceFloor = 1.0
)

// Engine computes tiers.
type Engine struct {
	maxTiers      int
	cutoffs       map[model.Position]int
	weeklyCutoffs map[model.Position]int
	varianceFloor float64
	log           logger.Logger
}

// New creates a tier engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxTiers:      defaultMaxTiers,
		cutoffs:       map[model.Position]int{model.QB: 32, model.RB: 64, model.WR: 96, model.TE: 32},
		weeklyCutoffs: map[model.Position]int{model.QB: 24, model.RB: 40, model.WR: 60, model.TE: 24},
		varianceFloor: defaultVarianceFloor,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute tiers one (scope, week, position) group. Records outside the group
// and records with an unknown rank are ignored. Tier indexes run 1..K by best
// member rank; players past the position cutoff land in a final Unranked tier.
func (e *Engine) Compute(ctx context.Context, records []model.RankingRecord, group model.GroupKey) []model.Tier {
	ranked := selectGroup(records, group)
	if len(ranked) == 0 {
		return nil
	}

	head, tail := ranked, []model.RankingRecord(nil)
	if n := e.cutoff(group); n > 0 && len(ranked) > n {
		head, tail = ranked[:n], ranked[n:]
	}

	pts := make([]point, len(head))
	for i, r := range head {
		pts[i] = point{value: r.Value(), dispersion: r.Dispersion()}
	}
	starts, err := partition(pts, e.maxTiers, e.varianceFloor)
	if errors.Is(err, ErrDegenerateInput) {
		e.log.Debug(ctx, "single tier fallback", logger.String("group", group.String()), logger.Int("players", len(head)))
	}

	out := make([]model.Tier, 0, len(starts)+1)
	for k, start := range starts {
		end := len(head)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		out = append(out, newTier(group, head[start:end]))
	}
	if len(tail) > 0 {
		t := newTier(group, tail)
		t.Unranked = true
		out = append(out, t)
	}
	relabel(out, head, tail)
	return out
}

// ComputeAll tiers every group present in records, ordered by group.
func (e *Engine) ComputeAll(ctx context.Context, records []model.RankingRecord) []model.Tier {
	seen := make(map[model.GroupKey]bool)
	var groups []model.GroupKey
	for _, r := range records {
		g := r.Group()
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return lessGroup(groups[i], groups[j]) })

	var out []model.Tier
	for _, g := range groups {
		out = append(out, e.Compute(ctx, records, g)...)
	}
	return out
}

func (e *Engine) cutoff(g model.GroupKey) int {
	if g.Scope == model.Weekly {
		return e.weeklyCutoffs[g.Position]
	}
	return e.cutoffs[g.Position]
}

// selectGroup filters and orders a group's ranked records by (rank, source
// order, id), keeping the first record per player.
func selectGroup(records []model.RankingRecord, g model.GroupKey) []model.RankingRecord {
	var out []model.RankingRecord
	for _, r := range records {
		if r.Group() == g && r.Rank.Known() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.SourceOrder != b.SourceOrder {
			return a.SourceOrder < b.SourceOrder
		}
		return a.PlayerID < b.PlayerID
	})
	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, r := range out {
		if seen[r.PlayerID] {
			continue
		}
		seen[r.PlayerID] = true
		uniq = append(uniq, r)
	}
	return uniq
}

func newTier(g model.GroupKey, members []model.RankingRecord) model.Tier {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.PlayerID
	}
	return model.Tier{Position: g.Position, Scope: g.Scope, Week: g.Week, PlayerIDs: ids}
}

// relabel orders tiers by their best member rank and numbers them from 1. The
// runs are already contiguous in rank order; sorting keeps the index monotonic
// regardless of how they were produced.
func relabel(tiers []model.Tier, head, tail []model.RankingRecord) {
	pos := make(map[string]int, len(head)+len(tail))
	for i, r := range head {
		pos[r.PlayerID] = i
	}
	for i, r := range tail {
		pos[r.PlayerID] = len(head) + i
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].Unranked != tiers[j].Unranked {
			return !tiers[i].Unranked
		}
		return pos[tiers[i].PlayerIDs[0]] < pos[tiers[j].PlayerIDs[0]]
	})
	for i := range tiers {
		tiers[i].Index = i + 1
	}
}

var scopeOrder = map[model.Scope]int{model.Dynasty: 0, model.Draft: 1, model.Weekly: 2}

var positionOrder = map[model.Position]int{model.QB: 0, model.RB: 1, model.WR: 2, model.TE: 3, model.Other: 4}

func lessGroup(a, b model.GroupKey) bool {
	if a.Scope != b.Scope {
		return scopeOrder[a.Scope] < scopeOrder[b.Scope]
	}
	if a.Week != b.Week {
		return a.Week < b.Week
	}
	return positionOrder[a.Position] < positionOrder[b.Position]
}
