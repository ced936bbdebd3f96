package service

import (
	"time"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/ownership"
)

// Section names a derived part of a snapshot that can be unavailable on its own.
type Section string

// Snapshot sections.
const (
	SectionOwnership    Section = "ownership"
	SectionTiers        Section = "tiers"
	SectionTradeValues  Section = "trade_values"
	SectionEfficiency   Section = "efficiency"
	SectionTeamStrength Section = "team_strength"
	SectionProjections  Section = "projections"
)

// Sections lists every section in display order.
var Sections = []Section{SectionOwnership, SectionTiers, SectionTradeValues, SectionEfficiency, SectionTeamStrength, SectionProjections}

// Availability tells a consumer whether a section can be rendered.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Snapshot is the fused result of one refresh for one league. Snapshots are
// immutable once published; a refresh publishes a new one.
type Snapshot struct {
	ID          string    `json:"id"`
	DataVersion string    `json:"data_version"`
	LeagueID    string    `json:"league_id,omitempty"`
	BuiltAt     time.Time `json:"built_at"`
	Stale       bool      `json:"stale"`
	Warnings    []string  `json:"warnings,omitempty"`

	Players      []model.PlayerRef        `json:"players"`
	Rankings     []model.RankingRecord    `json:"rankings"`
	Board        *ownership.View          `json:"board,omitempty"`
	Tiers        []model.Tier             `json:"tiers"`
	TradeValues  []model.TradeValue       `json:"trade_values"`
	Efficiency   []model.EfficiencyRecord `json:"efficiency"`
	TeamStrength []ownership.Strength     `json:"team_strength,omitempty"`
	Projections  []model.Projection       `json:"projections,omitempty"`
	IdentityDrop int                      `json:"identity_drops"`

	Sections map[Section]Availability `json:"sections"`
}

// Available reports whether section s can be rendered.
func (s *Snapshot) Available(sec Section) bool {
	return s.Sections[sec].Available
}

// TiersFor returns the tiers of one (scope, position) group; week is only
// matched for weekly scope.
func (s *Snapshot) TiersFor(scope model.Scope, week int, pos model.Position) []model.Tier {
	var out []model.Tier
	for _, t := range s.Tiers {
		if t.Scope == scope && t.Position == pos && (scope != model.Weekly || t.Week == week) {
			out = append(out, t)
		}
	}
	return out
}

// TradeValuesFor returns trade values for one scope, and one position unless
// pos is empty, in position-rank order.
func (s *Snapshot) TradeValuesFor(scope model.Scope, pos model.Position) []model.TradeValue {
	var out []model.TradeValue
	for _, tv := range s.TradeValues {
		if tv.Scope == scope && (pos == "" || tv.Position == pos) {
			out = append(out, tv)
		}
	}
	return out
}

// EfficiencyFor returns efficiency rows for one position, or all when pos is
// empty. Week 0 selects season rows.
func (s *Snapshot) EfficiencyFor(pos model.Position, week int) []model.EfficiencyRecord {
	var out []model.EfficiencyRecord
	for _, e := range s.Efficiency {
		if (pos == "" || e.Position == pos) && e.Period.Week == week {
			out = append(out, e)
		}
	}
	return out
}

// stale returns a copy flagged stale with an extra warning. The published
// snapshot is left untouched.
func (s *Snapshot) stale(warning string) *Snapshot {
	cp := *s
	cp.Stale = true
	cp.Warnings = append(append([]string(nil), s.Warnings...), warning)
	return &cp
}

func available() Availability { return Availability{Available: true} }

func unavailable(reason string) Availability {
	return Availability{Reason: reason}
}

// ProjectionsFor returns league-scored projections for one position, or all
// of them when pos is empty, best first within each position.
func (s *Snapshot) ProjectionsFor(pos model.Position) []model.Projection {
	var out []model.Projection
	for _, p := range s.Projections {
		if pos == "" || p.Position == pos {
			out = append(out, p)
		}
	}
	return out
}
