// Package ownership overlays league roster ownership onto normalized rankings.
package ownership

import (
	"context"
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

// Entry is a ranking record annotated with its owner.
type Entry struct {
	model.RankingRecord
	Owner     string `json:"owner,omitempty"`
	FreeAgent bool   `json:"free_agent"`
}

// View is the ownership-annotated ranking set for one league, or for no league
// in default mode.
type View struct {
	LeagueID  string                `json:"league_id,omitempty"`
	Entries   []Entry               `json:"entries"`
	Conflicts []*DataIntegrityError `json:"conflicts,omitempty"`
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the merger logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.log = l
		}
	}
}

// Merger left-joins rankings with ownership.
type Merger struct {
	log logger.Logger
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{log: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge annotates every ranking record with its owner in leagueID. An empty
// leagueID is default mode: ownership is ignored and everyone is a free agent.
// A player claimed twice keeps the first claim by source order; the conflict
// is logged and returned in View.Conflicts.
func (m *Merger) Merge(ctx context.Context, rankings []model.RankingRecord, ownership []model.OwnershipRecord, leagueID string) *View {
	view := &View{LeagueID: leagueID, Entries: make([]Entry, len(rankings))}

	owners := make(map[string]string)
	if leagueID != "" {
		claims := make([]model.OwnershipRecord, 0, len(ownership))
		for _, o := range ownership {
			// A row without an owner claims nothing.
			if o.LeagueID == leagueID && o.OwnerName != "" {
				claims = append(claims, o)
			}
		}
		sort.SliceStable(claims, func(i, j int) bool { return claims[i].SourceOrder < claims[j].SourceOrder })
		for _, o := range claims {
			kept, ok := owners[o.PlayerID]
			if !ok {
				owners[o.PlayerID] = o.OwnerName
				continue
			}
			if kept == o.OwnerName {
				continue
			}
			conflict := &DataIntegrityError{LeagueID: leagueID, PlayerID: o.PlayerID, Kept: kept, Dropped: o.OwnerName}
			view.Conflicts = append(view.Conflicts, conflict)
			metrics.RecordOwnershipConflict()
			m.log.Warn(ctx, "ownership conflict", logger.Error(conflict))
		}
	}

	for i, r := range rankings {
		owner := owners[r.PlayerID]
		view.Entries[i] = Entry{RankingRecord: r, Owner: owner, FreeAgent: owner == ""}
	}
	return view
}

// Owner returns the owner of a player, "" for a free agent.
func (v *View) Owner(playerID string) string {
	for _, e := range v.Entries {
		if e.PlayerID == playerID {
			return e.Owner
		}
	}
	return ""
}

// Owners lists distinct owners, sorted.
func (v *View) Owners() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range v.Entries {
		if e.Owner != "" && !seen[e.Owner] {
			seen[e.Owner] = true
			out = append(out, e.Owner)
		}
	}
	sort.Strings(out)
	return out
}

// Available keeps entries owned by owner or unowned, hiding players other
// teams hold.
func (v *View) Available(owner string) []Entry {
	var out []Entry
	for _, e := range v.Entries {
		if e.FreeAgent || e.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}
