// Package projection turns projected stat lines into fantasy points under one
// league's scoring settings.
package projection

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

// Scoring stat names, as Sleeper keys them in scoring_settings.
const (
	PassYards   = "pass_yd"
	PassTD      = "pass_td"
	PassInt     = "pass_int"
	RushYards   = "rush_yd"
	RushTD      = "rush_td"
	Receptions  = "rec"
	RecYards    = "rec_yd"
	RecTD       = "rec_td"
	FumblesLost = "fum_lost"
)

// Scored lists the stats each position is projected on.
var Scored = map[model.Position][]string{
	model.QB: {PassYards, PassTD, PassInt, RushYards, RushTD, FumblesLost},
	model.RB: {RushYards, RushTD, Receptions, RecYards, RecTD, FumblesLost},
	model.WR: {Receptions, RecYards, RecTD, RushYards, RushTD, FumblesLost},
	model.TE: {Receptions, RecYards, RecTD, FumblesLost},
}

// Weights are a league's points per unit of each stat.
type Weights map[string]float64

// Format is a league's reception scoring.
type Format string

// Reception formats.
const (
	Standard Format = "standard"
	HalfPPR  Format = "half-ppr"
	PPR      Format = "ppr"
)

// Format classifies the points per reception: one or more is PPR, a half or
// more is half PPR, anything less is standard.
func (w Weights) Format() Format {
	switch rec := w[Receptions]; {
	case rec >= 1:
		return PPR
	case rec >= 0.5:
		return HalfPPR
	default:
		return Standard
	}
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the calculator logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// Calculator applies scoring weights to stat lines.
type Calculator struct {
	log logger.Logger
}

// New creates a Calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project returns one projection per stat line at a skill position. Points
// are the sum of stat times weight over the position's scored stats, rounded
// to two decimals; a stat or weight the inputs leave out counts as zero.
// Output is ordered by position, then points descending, then player id.
func (c *Calculator) Project(ctx context.Context, lines []model.StatLine, w Weights) []model.Projection {
	rank := make(map[model.Position]int, len(model.Positions))
	for i, p := range model.Positions {
		rank[p] = i
	}

	out := make([]model.Projection, 0, len(lines))
	skipped := 0
	for _, l := range lines {
		stats, ok := Scored[l.Position]
		if !ok {
			skipped++
			continue
		}
		points := decimal.Zero
		for _, stat := range stats {
			points = points.Add(decimal.NewFromFloat(l.Stats[stat]).Mul(decimal.NewFromFloat(w[stat])))
		}
		pts, _ := points.Round(2).Float64()
		out = append(out, model.Projection{
			PlayerID: l.PlayerID,
			Name:     l.Name,
			Position: l.Position,
			Points:   pts,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return rank[a.Position] < rank[b.Position]
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.PlayerID < b.PlayerID
	})
	c.log.Debug(ctx, "projections computed",
		logger.Int("players", len(out)), logger.Int("skipped", skipped), logger.String("format", string(w.Format())))
	return out
}
