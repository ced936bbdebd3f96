package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/rosterlens/internal/adapters/mq/queue"
	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/ownership"
	"github.com/okian/rosterlens/pkg/logger"
)

type tiersResponse struct {
	SnapshotID string         `json:"snapshot_id"`
	Stale      bool           `json:"stale"`
	Scope      model.Scope    `json:"scope"`
	Week       int            `json:"week,omitempty"`
	Position   model.Position `json:"position"`
	Tiers      []model.Tier   `json:"tiers"`
}

type tradeValuesResponse struct {
	SnapshotID  string             `json:"snapshot_id"`
	Stale       bool               `json:"stale"`
	Scope       model.Scope        `json:"scope"`
	TradeValues []model.TradeValue `json:"trade_values"`
}

type efficiencyResponse struct {
	SnapshotID string                   `json:"snapshot_id"`
	Stale      bool                     `json:"stale"`
	Week       int                      `json:"week,omitempty"`
	Efficiency []model.EfficiencyRecord `json:"efficiency"`
}

type projectionsResponse struct {
	SnapshotID  string             `json:"snapshot_id"`
	Stale       bool               `json:"stale"`
	LeagueID    string             `json:"league_id"`
	Projections []model.Projection `json:"projections"`
}

type availableResponse struct {
	SnapshotID string            `json:"snapshot_id"`
	Stale      bool              `json:"stale"`
	LeagueID   string            `json:"league_id"`
	Owner      string            `json:"owner,omitempty"`
	Players    []ownership.Entry `json:"players"`
}

type refreshResponse struct {
	Status   string `json:"status"`
	LeagueID string `json:"league_id"`
}

// load parses the query and fetches the snapshot, writing the error response
// itself when either fails.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (query, *service.Snapshot, bool) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return q, nil, false
	}
	snap, err := s.snapshots.GetSnapshot(r.Context(), q.leagueID)
	if err != nil {
		s.logger.Warn(r.Context(), "snapshot unavailable", logger.String("league_id", q.leagueID), logger.Error(err))
		writeSnapshotError(w, err)
		return q, nil, false
	}
	return q, snap, true
}

// handleSnapshot handles GET /snapshot?league_id=.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, snap, ok := s.load(w, r); ok {
		writeJSON(w, http.StatusOK, snap)
	}
}

// handleTiers handles GET /tiers?scope=&week=&position=.
func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	if q.position == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing position", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, tiersResponse{
		SnapshotID: snap.ID,
		Stale:      snap.Stale,
		Scope:      q.scope,
		Week:       q.week,
		Position:   q.position,
		Tiers:      snap.TiersFor(q.scope, q.week, q.position),
	})
}

// handleTradeValues handles GET /trade-values?scope=&position=.
func (s *Server) handleTradeValues(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tradeValuesResponse{
		SnapshotID:  snap.ID,
		Stale:       snap.Stale,
		Scope:       q.scope,
		TradeValues: snap.TradeValuesFor(q.scope, q.position),
	})
}

// handleEfficiency handles GET /efficiency?position=&week=.
func (s *Server) handleEfficiency(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	if !snap.Available(service.SectionEfficiency) {
		writeUnavailable(w, snap, service.SectionEfficiency)
		return
	}
	writeJSON(w, http.StatusOK, efficiencyResponse{
		SnapshotID: snap.ID,
		Stale:      snap.Stale,
		Week:       q.week,
		Efficiency: snap.EfficiencyFor(q.position, q.week),
	})
}

// handleProjections handles GET /projections?league_id=&position=, points
// projected under the league's scoring.
func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	if !snap.Available(service.SectionProjections) {
		writeUnavailable(w, snap, service.SectionProjections)
		return
	}
	writeJSON(w, http.StatusOK, projectionsResponse{
		SnapshotID:  snap.ID,
		Stale:       snap.Stale,
		LeagueID:    q.leagueID,
		Projections: snap.ProjectionsFor(q.position),
	})
}

// handleAvailable handles GET /available?league_id=&owner=, the board with
// other teams' players removed.
func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.URL.Query().Get("league_id")) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing league_id", ErrBadRequest))
		return
	}
	q, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	if !snap.Available(service.SectionOwnership) || snap.Board == nil {
		writeUnavailable(w, snap, service.SectionOwnership)
		return
	}
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	writeJSON(w, http.StatusOK, availableResponse{
		SnapshotID: snap.ID,
		Stale:      snap.Stale,
		LeagueID:   q.leagueID,
		Owner:      owner,
		Players:    snap.Board.Available(owner),
	})
}

// handleRefresh handles POST /refresh?league_id=.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	leagueID := strings.TrimSpace(r.URL.Query().Get("league_id"))
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	err := s.refresh.Enqueue(ctx, queue.Job{LeagueID: leagueID, EnqueuedAt: time.Now()})
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, refreshResponse{Status: "queued", LeagueID: leagueID})
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%w: %v", ErrBackpressure, err))
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func writeUnavailable(w http.ResponseWriter, snap *service.Snapshot, sec service.Section) {
	reason := snap.Sections[sec].Reason
	if reason == "" {
		reason = "not computed"
	}
	writeError(w, http.StatusConflict, "section_unavailable", fmt.Errorf("%w: %s: %s", ErrUnavailable, sec, reason))
}
