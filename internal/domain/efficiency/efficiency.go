// Package efficiency compares actual fantasy scoring with an injected
// expectation. A positive delta means the player outscored expectation.
package efficiency

import (
	"context"
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultMinSeasonPoints = 17

// Option configures a Calculator.
type Option func(*Calculator)

// WithMinSeasonPoints drops season rows whose actual total is at or below min.
// It applies out of season.
func WithMinSeasonPoints(min float64) Option {
	return func(c *Calculator) {
		if min >= 0 {
			c.minSeasonPoints = min
		}
	}
}

// WithCurrentWeek switches to the in-season cutoff of week-1 points. Zero
// means the offseason.
func WithCurrentWeek(week int) Option {
	return func(c *Calculator) {
		if week >= 0 {
			c.currentWeek = week
		}
	}
}

// WithLogger sets the calculator logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// Calculator computes efficiency records.
type Calculator struct {
	minSeasonPoints float64
	currentWeek     int
	log             logger.Logger
}

// New creates a Calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{minSeasonPoints: defaultMinSeasonPoints, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type total struct {
	name     string
	position model.Position
	weeks    decimal.Decimal
	season   *decimal.Decimal
}

// actual is the published season total when one exists, else the weekly sum.
func (t *total) actual() decimal.Decimal {
	if t.season != nil {
		return *t.season
	}
	return t.weeks
}

// cutoff is the season total a player must exceed to be listed. In season it
// is one point per completed week.
func (c *Calculator) cutoff() decimal.Decimal {
	if c.currentWeek > 0 {
		return decimal.NewFromInt(int64(c.currentWeek - 1))
	}
	return decimal.NewFromFloat(c.minSeasonPoints)
}

// Compute emits one record per player-week and one per player-season. A
// season's actual is the published season row when present, else the sum of
// the player's weeks. Seasons at or below the cutoff are dropped. Players the
// model has no estimate for are left out. Output is ordered by period, then
// delta descending, then player id. Values are rounded to two decimals.
func (c *Calculator) Compute(ctx context.Context, series []model.PointsRecord, m ExpectationModel) []model.EfficiencyRecord {
	var out []model.EfficiencyRecord
	seasons := make(map[periodKey]*total)
	var seasonKeys []periodKey
	excluded := 0

	for _, r := range series {
		sk := periodKey{r.PlayerID, model.SeasonPeriod(r.Period.Season)}
		t, ok := seasons[sk]
		if !ok {
			t = &total{name: r.Name, position: r.Position}
			seasons[sk] = t
			seasonKeys = append(seasonKeys, sk)
		}
		actual := decimal.NewFromFloat(r.Actual)
		if r.Period.IsSeason() {
			t.season = &actual
			continue
		}
		t.weeks = t.weeks.Add(actual)

		exp, ok := m.Expected(r.PlayerID, r.Period)
		if !ok {
			excluded++
			continue
		}
		out = append(out, record(r.PlayerID, r.Name, r.Position, r.Period, actual, exp))
	}

	cutoff := c.cutoff()
	for _, sk := range seasonKeys {
		t := seasons[sk]
		if t.actual().LessThanOrEqual(cutoff) {
			continue
		}
		exp, ok := m.Expected(sk.playerID, sk.period)
		if !ok {
			excluded++
			continue
		}
		out = append(out, record(sk.playerID, t.name, t.position, sk.period, t.actual(), exp))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Period.Season != b.Period.Season {
			return a.Period.Season < b.Period.Season
		}
		if a.Period.Week != b.Period.Week {
			return a.Period.Week < b.Period.Week
		}
		if a.Delta != b.Delta {
			return a.Delta > b.Delta
		}
		return a.PlayerID < b.PlayerID
	})
	if excluded > 0 {
		c.log.Debug(ctx, "efficiency rows without expectation", logger.Int("excluded", excluded))
	}
	return out
}

func record(id, name string, pos model.Position, p model.Period, actual decimal.Decimal, expected float64) model.EfficiencyRecord {
	exp := decimal.NewFromFloat(expected)
	a, _ := actual.Round(2).Float64()
	e, _ := exp.Round(2).Float64()
	d, _ := actual.Sub(exp).Round(2).Float64()
	return model.EfficiencyRecord{PlayerID: id, Name: name, Position: pos, Period: p, Actual: a, Expected: e, Delta: d}
}
