// Package trade derives scale-free trade values from rank, positional
// scarcity and age.
package trade

import (
	"math"
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
)

const (
	defaultCurve       = 2.2
	defaultScarcityExp = 0.5
	defaultAgeDecay    = 0.15
	defaultScale       = 9999
	// orderStep keeps each value strictly below its better-ranked neighbour.
	orderStep = 1e-6
)

type valueKey struct {
	group    model.GroupKey
	playerID string
}

// Pool holds every trade value for one ranking snapshot. Values are computed
// once per (scope, week, position) group when the pool is built.
type Pool struct {
	curve            float64
	scarcityExp      float64
	scarcityOverride map[model.Position]float64
	ageDecay         float64
	ageThreshold     map[model.Position]float64
	scale            float64

	values map[valueKey]model.TradeValue
	order  []valueKey
}

// NewPool computes trade values for all ranked records.
func NewPool(players []model.PlayerRef, records []model.RankingRecord, opts ...Option) *Pool {
	p := &Pool{
		curve:            defaultCurve,
		scarcityExp:      defaultScarcityExp,
		scarcityOverride: make(map[model.Position]float64),
		ageDecay:         defaultAgeDecay,
		ageThreshold:     map[model.Position]float64{model.QB: 32, model.RB: 26, model.WR: 28, model.TE: 29},
		scale:            defaultScale,
		values:           make(map[valueKey]model.TradeValue),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.build(players, records)
	return p
}

func (p *Pool) build(players []model.PlayerRef, records []model.RankingRecord) {
	ages := make(map[string]*float64, len(players))
	for _, pl := range players {
		ages[pl.ID] = pl.Age
	}

	groups := make(map[model.GroupKey][]model.RankingRecord)
	var keys []model.GroupKey
	for _, r := range records {
		if !r.Rank.Known() {
			continue
		}
		g := r.Group()
		if _, ok := groups[g]; !ok {
			keys = append(keys, g)
		}
		groups[g] = append(groups[g], r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	// Deepest position per (scope, week) anchors the scarcity multiplier.
	type horizon struct {
		scope model.Scope
		week  int
	}
	deepest := make(map[horizon]int)
	for g, rs := range groups {
		h := horizon{g.Scope, g.Week}
		if len(rs) > deepest[h] {
			deepest[h] = len(rs)
		}
	}

	peak := 0.0
	for _, g := range keys {
		rs := groups[g]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Rank != rs[j].Rank {
				return rs[i].Rank < rs[j].Rank
			}
			return rs[i].SourceOrder < rs[j].SourceOrder
		})
		scarcity := p.scarcity(g.Position, len(rs), deepest[horizon{g.Scope, g.Week}])
		minRank, maxRank := float64(rs[0].Rank), float64(rs[len(rs)-1].Rank)
		top := math.Pow(maxRank, p.curve)

		prev := math.Inf(1)
		for i, r := range rs {
			inv := maxRank - float64(r.Rank) + minRank
			v := math.Pow(inv, p.curve) / top * scarcity * p.ageFactor(g.Position, ages[r.PlayerID])
			if v >= prev {
				v = prev * (1 - orderStep)
			}
			prev = v
			if v > peak {
				peak = v
			}
			k := valueKey{group: g, playerID: r.PlayerID}
			p.values[k] = model.TradeValue{
				PlayerID: r.PlayerID, Position: g.Position, Scope: g.Scope, Value: v, PositionRank: i + 1,
			}
			p.order = append(p.order, k)
		}
	}

	if peak > 0 {
		for k, tv := range p.values {
			tv.Value = tv.Value / peak * p.scale
			p.values[k] = tv
		}
	}
}

func (p *Pool) scarcity(pos model.Position, depth, deepest int) float64 {
	if m, ok := p.scarcityOverride[pos]; ok {
		return m
	}
	if depth == 0 || deepest == 0 {
		return 1
	}
	return math.Pow(float64(deepest)/float64(depth), p.scarcityExp)
}

func (p *Pool) ageFactor(pos model.Position, age *float64) float64 {
	threshold, ok := p.ageThreshold[pos]
	if age == nil || !ok {
		return 1
	}
	return math.Exp(-p.ageDecay * math.Max(0, *age-threshold))
}

// Value returns the trade value for a player's ranking record.
func (p *Pool) Value(player model.PlayerRef, rec model.RankingRecord) (model.TradeValue, bool) {
	if player.ID != rec.PlayerID {
		return model.TradeValue{}, false
	}
	tv, ok := p.values[valueKey{group: rec.Group(), playerID: rec.PlayerID}]
	return tv, ok
}

// All returns every value ordered by group, then position rank.
func (p *Pool) All() []model.TradeValue {
	out := make([]model.TradeValue, len(p.order))
	for i, k := range p.order {
		out[i] = p.values[k]
	}
	return out
}
