// Package model contains the canonical player, ranking and ownership records
// passed between layers. Nothing downstream of the normalizer sees raw source
// fields.
package model

import (
	"fmt"
	"strings"
)

// Position is a fantasy roster position.
type Position string

// Supported positions.
const (
	QB    Position = "QB"
	RB    Position = "RB"
	WR    Position = "WR"
	TE    Position = "TE"
	Other Position = "OTHER"
)

// Positions lists the skill positions in display order.
var Positions = []Position{QB, RB, WR, TE}

// ParsePosition maps a source position label ("rb", "WR1", "TE ") to a Position.
func ParsePosition(s string) Position {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimRight(s, "0123456789")
	switch Position(s) {
	case QB, RB, WR, TE:
		return Position(s)
	}
	return Other
}

// Scope is the ranking horizon.
type Scope string

// Supported scopes.
const (
	Dynasty Scope = "dynasty"
	Draft   Scope = "draft"
	Weekly  Scope = "weekly"
)

// ParseScope maps a source scope label to a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynasty", "dp", "dynasty_overall":
		return Dynasty, nil
	case "draft", "redraft", "ros":
		return Draft, nil
	case "weekly", "week", "wk":
		return Weekly, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Rank is a 1-based rank. UnknownRank marks a record with no rank data, which
// is distinct from being ranked last.
type Rank int

// UnknownRank is the sentinel for a missing rank.
const UnknownRank Rank = 0

// Known reports whether r carries a real rank.
func (r Rank) Known() bool { return r > 0 }

// PlayerRef is an immutable player identity. ID is the ranking source id.
type PlayerRef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Team     string   `json:"team,omitempty"`
	Age      *float64 `json:"age,omitempty"`
}

// RankingRecord is one player's rank within a (scope, week, position) group.
// Week is 0 for dynasty and draft scope.
type RankingRecord struct {
	PlayerID    string   `json:"player_id"`
	Position    Position `json:"position"`
	Scope       Scope    `json:"scope"`
	Week        int      `json:"week,omitempty"`
	Rank        Rank     `json:"rank"`
	Best        *float64 `json:"best,omitempty"`
	Worst       *float64 `json:"worst,omitempty"`
	Avg         *float64 `json:"avg,omitempty"`
	StdDev      *float64 `json:"sd,omitempty"`
	SourceOrder int      `json:"-"`
}

// Group returns the record's tiering group.
func (r RankingRecord) Group() GroupKey {
	return GroupKey{Scope: r.Scope, Week: r.Week, Position: r.Position}
}

// Value is the 1-D clustering coordinate: the consensus average when known,
// the integer rank otherwise.
func (r RankingRecord) Value() float64 {
	if r.Avg != nil {
		return *r.Avg
	}
	return float64(r.Rank)
}

// Dispersion is the per-player spread: the standard deviation when present,
// else a quarter of the best/worst range, else 0.
func (r RankingRecord) Dispersion() float64 {
	switch {
	case r.StdDev != nil:
		return *r.StdDev
	case r.Best != nil && r.Worst != nil && *r.Worst >= *r.Best:
		return (*r.Worst - *r.Best) / 4
	}
	return 0
}

// GroupKey identifies a (scope, week, position) ranking group.
type GroupKey struct {
	Scope    Scope
	Week     int
	Position Position
}

func (g GroupKey) String() string {
	if g.Week > 0 {
		return fmt.Sprintf("%s/w%d/%s", g.Scope, g.Week, g.Position)
	}
	return fmt.Sprintf("%s/%s", g.Scope, g.Position)
}

// OwnershipRecord assigns a player to a league owner. An empty OwnerName is a
// free agent.
type OwnershipRecord struct {
	PlayerID    string `json:"player_id"`
	LeagueID    string `json:"league_id"`
	OwnerName   string `json:"owner_name,omitempty"`
	SourceOrder int    `json:"-"`
}

// Tier is a contiguous block of similarly ranked players. Index 1 is the best
// tier; the Unranked tier collects the tail beyond the tiering cutoff.
type Tier struct {
	Position  Position `json:"position"`
	Scope     Scope    `json:"scope"`
	Week      int      `json:"week,omitempty"`
	Index     int      `json:"tier"`
	PlayerIDs []string `json:"player_ids"`
	Unranked  bool     `json:"unranked,omitempty"`
}

// TradeValue is a scale-free value derived from rank, scarcity and age.
type TradeValue struct {
	PlayerID     string   `json:"player_id"`
	Position     Position `json:"position"`
	Scope        Scope    `json:"scope"`
	Value        float64  `json:"value"`
	PositionRank int      `json:"position_rank"`
}

// Period is a scoring window. Week 0 is the whole season.
type Period struct {
	Season int `json:"season"`
	Week   int `json:"week,omitempty"`
}

// SeasonPeriod returns the season-long period.
func SeasonPeriod(season int) Period { return Period{Season: season} }

// IsSeason reports whether p covers a whole season.
func (p Period) IsSeason() bool { return p.Week == 0 }

func (p Period) String() string {
	if p.IsSeason() {
		return fmt.Sprintf("%d", p.Season)
	}
	return fmt.Sprintf("%d-w%d", p.Season, p.Week)
}

// EfficiencyRecord compares actual with expected points. Positive Delta means
// the player outscored expectation.
type EfficiencyRecord struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name,omitempty"`
	Position Position `json:"position,omitempty"`
	Period   Period   `json:"period"`
	Actual   float64  `json:"actual_points"`
	Expected float64  `json:"expected_points"`
	Delta    float64  `json:"delta"`
}

// Float returns a pointer to v for optional numeric fields.
func Float(v float64) *float64 { return &v }

// PointsRecord is one player's actual scoring for a period, with the expected
// points delivered alongside it when the source carries them.
type PointsRecord struct {
	PlayerID string
	Name     string
	Position Position
	Period   Period
	Actual   float64
	Expected *float64
}

// StatLine is one player's projected stat totals keyed by league scoring stat
// name, e.g. pass_yd, rec or fum_lost.
type StatLine struct {
	PlayerID string
	Name     string
	Position Position
	Stats    map[string]float64
}

// Projection is a player's projected fantasy points under one league's
// scoring settings.
type Projection struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name,omitempty"`
	Position Position `json:"position"`
	Points   float64  `json:"projected_points"`
}
