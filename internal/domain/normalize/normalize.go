// Package normalize maps heterogeneous upstream rows into the canonical
// player, ranking and ownership model. It never mutates its input.
package normalize

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

const defaultMatchThreshold = 0.88

// RankingBatch is one pulled ranking record set for a scope (and week).
type RankingBatch struct {
	Source  string
	Schema  string
	Scope   model.Scope
	Week    int
	Version string
	Rows    []Row
}

// RosterBatch is one pulled league roster.
type RosterBatch struct {
	Source   string
	Schema   string
	LeagueID string
	Version  string
	Rows     []Row
}

// PointsBatch is one pulled actual/expected scoring table.
type PointsBatch struct {
	Source  string
	Schema  string
	Version string
	Rows    []Row
}

// ProjectionBatch is one pull of projected stat lines.
type ProjectionBatch struct {
	Source  string
	Schema  string
	Version string
	Rows    []Row
}

// Result is the canonical output of Normalize.
type Result struct {
	Players   []model.PlayerRef
	Rankings  []model.RankingRecord
	Ownership []model.OwnershipRecord
	Dropped   []*IdentityResolutionError
}

// Normalizer converts raw batches into canonical records.
type Normalizer struct {
	schemas   map[string]Schema
	threshold float64
	log       logger.Logger
}

// New creates a Normalizer with the built-in schemas.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		schemas:   builtinSchemas(),
		threshold: defaultMatchThreshold,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) schema(name string) (Schema, error) {
	s, ok := n.schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

type builder struct {
	players  map[string]int
	out      *Result
	resolver *Resolver
	order    int
}

// Normalize builds players and ranking records from the ranking batches, then
// resolves roster rows against those players. Roster rows that match no player
// are reported in Result.Dropped and left out of the ownership records.
func (n *Normalizer) Normalize(ctx context.Context, rankings []RankingBatch, rosters []RosterBatch) (*Result, error) {
	b := &builder{
		players:  make(map[string]int),
		out:      &Result{},
		resolver: NewResolver(n.threshold),
	}

	for _, batch := range rankings {
		s, err := n.schema(batch.Schema)
		if err != nil {
			return nil, err
		}
		start := len(b.out.Rankings)
		for _, row := range batch.Rows {
			if !s.keep(row) {
				continue
			}
			if rec, ok := b.ranking(s, batch, row); ok {
				b.out.Rankings = append(b.out.Rankings, rec)
			}
		}
		if s.RankFromAvg {
			rankByAvg(b.out.Rankings[start:])
		}
	}
	b.out.Rankings = resequence(b.out.Rankings)

	for _, batch := range rosters {
		s, err := n.schema(batch.Schema)
		if err != nil {
			return nil, err
		}
		dropped := 0
		for _, row := range batch.Rows {
			if !s.keep(row) {
				continue
			}
			rec, miss := b.ownership(s, batch, row)
			if miss != nil {
				dropped++
				b.out.Dropped = append(b.out.Dropped, miss)
				metrics.RecordIdentityDrop(batch.Source)
				n.log.Debug(ctx, "roster player not matched", logger.Error(miss))
				continue
			}
			b.out.Ownership = append(b.out.Ownership, rec)
		}
		if dropped > 0 {
			n.log.Warn(ctx, "roster players dropped from ownership overlay",
				logger.String("source", batch.Source), logger.String("league_id", batch.LeagueID),
				logger.Int("dropped", dropped), logger.Int("rows", len(batch.Rows)))
		}
	}
	return b.out, nil
}

func (b *builder) ranking(s Schema, batch RankingBatch, row Row) (model.RankingRecord, bool) {
	name := s.str(row, FieldName)
	pos := model.ParsePosition(s.str(row, FieldPosition))
	team := CanonicalTeam(s.str(row, FieldTeam))
	id := s.str(row, FieldID)
	if name == "" && id == "" {
		return model.RankingRecord{}, false
	}

	if _, known := b.players[id]; !known {
		if existing, ok := b.resolver.Exact(name, pos, team); ok {
			id = existing
		}
	}
	if id == "" {
		id = batch.Source + ":" + exactKey(CanonicalName(name), pos, team)
	}
	if _, known := b.players[id]; !known {
		p := model.PlayerRef{ID: id, Name: name, Position: pos, Team: team, Age: s.num(row, FieldAge)}
		b.players[id] = len(b.out.Players)
		b.out.Players = append(b.out.Players, p)
		b.resolver.Add(p)
	}

	rec := model.RankingRecord{
		PlayerID:    id,
		Position:    pos,
		Scope:       batch.Scope,
		Rank:        model.UnknownRank,
		Best:        s.num(row, FieldBest),
		Worst:       s.num(row, FieldWorst),
		Avg:         s.num(row, FieldAvg),
		StdDev:      s.num(row, FieldStdDev),
		SourceOrder: b.order,
	}
	b.order++
	if batch.Scope == model.Weekly {
		rec.Week = batch.Week
		if w := s.num(row, FieldWeek); w != nil && rec.Week == 0 {
			rec.Week = int(*w)
		}
	}
	if !s.RankFromAvg {
		if r, ok := asRank(s.raw(row, FieldRank)); ok {
			rec.Rank = model.Rank(r)
		}
	}
	return rec, true
}

func (b *builder) ownership(s Schema, batch RosterBatch, row Row) (model.OwnershipRecord, *IdentityResolutionError) {
	name := s.str(row, FieldName)
	pos := model.ParsePosition(s.str(row, FieldPosition))
	team := s.str(row, FieldTeam)

	id := s.str(row, FieldID)
	if _, known := b.players[id]; !known {
		resolved, score, ok := b.resolver.Resolve(name, pos, team)
		if !ok {
			return model.OwnershipRecord{}, &IdentityResolutionError{
				Source: batch.Source, Name: name, Position: string(pos), Team: CanonicalTeam(team), Best: score,
			}
		}
		id = resolved
	}
	rec := model.OwnershipRecord{
		PlayerID:    id,
		LeagueID:    batch.LeagueID,
		OwnerName:   s.str(row, FieldOwner),
		SourceOrder: b.order,
	}
	b.order++
	return rec, nil
}

// rankByAvg assigns ranks 1..n per group by ascending average, source order
// breaking ties. Records without an average stay unknown.
func rankByAvg(recs []model.RankingRecord) {
	groups := make(map[model.GroupKey][]int)
	for i, r := range recs {
		if r.Avg != nil {
			groups[r.Group()] = append(groups[r.Group()], i)
		}
	}
	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			ra, rb := recs[idx[a]], recs[idx[b]]
			if *ra.Avg != *rb.Avg {
				return *ra.Avg < *rb.Avg
			}
			return ra.SourceOrder < rb.SourceOrder
		})
		for n, i := range idx {
			recs[i].Rank = model.Rank(n + 1)
		}
	}
}

// resequence makes ranks distinct within each group. Records are ordered by
// (rank, source order); a rank that does not exceed its predecessor moves to
// predecessor+1. A player listed twice in one group keeps its first record.
// Unknown ranks pass through untouched.
func resequence(recs []model.RankingRecord) []model.RankingRecord {
	out := make([]model.RankingRecord, 0, len(recs))
	groups := make(map[model.GroupKey][]model.RankingRecord)
	var keys []model.GroupKey
	seen := make(map[model.GroupKey]map[string]bool)
	for _, r := range recs {
		g := r.Group()
		if seen[g] == nil {
			seen[g] = make(map[string]bool)
			keys = append(keys, g)
		}
		if seen[g][r.PlayerID] {
			continue
		}
		seen[g][r.PlayerID] = true
		groups[g] = append(groups[g], r)
	}
	for _, g := range keys {
		rs := groups[g]
		sort.SliceStable(rs, func(i, j int) bool {
			a, b := rs[i], rs[j]
			if a.Rank.Known() != b.Rank.Known() {
				return a.Rank.Known()
			}
			if a.Rank != b.Rank {
				return a.Rank < b.Rank
			}
			return a.SourceOrder < b.SourceOrder
		})
		prev := model.UnknownRank
		for i := range rs {
			if !rs[i].Rank.Known() {
				continue
			}
			if rs[i].Rank <= prev {
				rs[i].Rank = prev + 1
			}
			prev = rs[i].Rank
		}
		out = append(out, rs...)
	}
	return out
}
