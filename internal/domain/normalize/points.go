package normalize

import (
	"context"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

// ranked resolves scoring and projection rows against the ranked players.
type ranked struct {
	res   *Resolver
	known map[string]bool
}

func (n *Normalizer) ranked(players []model.PlayerRef) ranked {
	r := ranked{res: NewResolver(n.threshold), known: make(map[string]bool, len(players))}
	for _, p := range players {
		r.res.Add(p)
		r.known[p.ID] = true
	}
	return r
}

// id returns the canonical id of a row, or a source-scoped one when no ranked
// player matches. A row without its own id is scoped by name, position and
// team. ok is false when the row carries no identity at all.
func (r ranked) id(source, id, name string, pos model.Position, team string) (out string, matched, ok bool) {
	if name == "" && id == "" {
		return "", false, false
	}
	if r.known[id] {
		return id, true, true
	}
	if resolved, _, found := r.res.Resolve(name, pos, team); found {
		return resolved, true, true
	}
	if id == "" {
		id = exactKey(CanonicalName(name), pos, team)
	}
	return source + ":" + id, false, true
}

// Points maps scoring rows onto canonical player ids. Rows that match no
// ranked player keep a source-scoped id, since efficiency does not depend on
// rankings. Rows without a season, an actual score or any identity are
// skipped.
func (n *Normalizer) Points(ctx context.Context, players []model.PlayerRef, batches []PointsBatch) ([]model.PointsRecord, error) {
	r := n.ranked(players)

	var out []model.PointsRecord
	for _, batch := range batches {
		s, err := n.schema(batch.Schema)
		if err != nil {
			return nil, err
		}
		skipped, unmatched := 0, 0
		for _, row := range batch.Rows {
			if !s.keep(row) {
				continue
			}
			season, actual := s.num(row, FieldSeason), s.num(row, FieldActual)
			if season == nil || actual == nil {
				skipped++
				continue
			}
			name := s.str(row, FieldName)
			pos := model.ParsePosition(s.str(row, FieldPosition))
			id, matched, ok := r.id(batch.Source, s.str(row, FieldID), name, pos, CanonicalTeam(s.str(row, FieldTeam)))
			if !ok {
				skipped++
				continue
			}
			if !matched {
				unmatched++
			}
			rec := model.PointsRecord{
				PlayerID: id,
				Name:     name,
				Position: pos,
				Period:   model.Period{Season: int(*season)},
				Actual:   *actual,
				Expected: s.num(row, FieldExpected),
			}
			if w := s.num(row, FieldWeek); w != nil {
				rec.Period.Week = int(*w)
			}
			out = append(out, rec)
		}
		n.log.Debug(ctx, "points normalized",
			logger.String("source", batch.Source), logger.Int("rows", len(batch.Rows)),
			logger.Int("skipped", skipped), logger.Int("unmatched", unmatched))
	}
	return out, nil
}

// Projections maps projected stat rows onto canonical player ids the way
// Points does. Rows at positions outside the skill set, with no identity or
// with no recognized stat column are skipped.
func (n *Normalizer) Projections(ctx context.Context, players []model.PlayerRef, batches []ProjectionBatch) ([]model.StatLine, error) {
	r := n.ranked(players)

	var out []model.StatLine
	for _, batch := range batches {
		s, err := n.schema(batch.Schema)
		if err != nil {
			return nil, err
		}
		skipped, unmatched := 0, 0
		for _, row := range batch.Rows {
			if !s.keep(row) {
				continue
			}
			name := s.str(row, FieldName)
			pos := model.ParsePosition(s.str(row, FieldPosition))
			stats := s.stats(row)
			if pos == model.Other || len(stats) == 0 {
				skipped++
				continue
			}
			id, matched, ok := r.id(batch.Source, s.str(row, FieldID), name, pos, CanonicalTeam(s.str(row, FieldTeam)))
			if !ok {
				skipped++
				continue
			}
			if !matched {
				unmatched++
			}
			out = append(out, model.StatLine{PlayerID: id, Name: name, Position: pos, Stats: stats})
		}
		n.log.Debug(ctx, "projections normalized",
			logger.String("source", batch.Source), logger.Int("rows", len(batch.Rows)),
			logger.Int("skipped", skipped), logger.Int("unmatched", unmatched))
	}
	return out, nil
}
