// Package api exposes fused snapshots over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/rosterlens/internal/adapters/feed"
	"github.com/okian/rosterlens/internal/adapters/mq/queue"
	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SnapshotGetter returns the current snapshot of a league, "" for default mode.
type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, leagueID string) (*service.Snapshot, error)
}

// RefreshQueue accepts background refresh requests.
type RefreshQueue interface {
	Enqueue(ctx context.Context, j queue.Job) error
}

// Option configures a Server.
type Option func(*Server)

// WithRefreshQueue enables POST /refresh.
func WithRefreshQueue(q RefreshQueue) Option {
	return func(s *Server) { s.refresh = q }
}

// WithMCP mounts an MCP handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the read API.
type Server struct {
	snapshots SnapshotGetter
	refresh   RefreshQueue
	mcp       http.Handler
	health    *HealthHandler
	logger    logger.Logger
}

// NewServer creates a new API server.
func NewServer(snapshots SnapshotGetter, opts ...Option) *Server {
	s := &Server{
		snapshots: snapshots,
		health:    NewHealthHandler(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	get := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(methodGuard(h, http.MethodGet), endpoint)
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("/snapshot", get(s.handleSnapshot, "snapshot"))
	mux.HandleFunc("/tiers", get(s.handleTiers, "tiers"))
	mux.HandleFunc("/trade-values", get(s.handleTradeValues, "trade_values"))
	mux.HandleFunc("/efficiency", get(s.handleEfficiency, "efficiency"))
	mux.HandleFunc("/available", get(s.handleAvailable, "available"))
	mux.HandleFunc("/projections", get(s.handleProjections, "projections"))
	if s.refresh != nil {
		mux.HandleFunc("/refresh", MetricsMiddleware(methodGuard(s.handleRefresh, http.MethodPost), "refresh"))
	}
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeSnapshotError maps engine errors to a status code.
func writeSnapshotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, feed.ErrFetch):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", err)
	case errors.Is(err, service.ErrNoRankingFeed):
		writeError(w, http.StatusServiceUnavailable, "not_configured", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// query holds the parsed common query parameters.
type query struct {
	leagueID string
	scope    model.Scope
	week     int
	position model.Position
}

func parseQuery(r *http.Request) (query, error) {
	v := r.URL.Query()
	q := query{leagueID: strings.TrimSpace(v.Get("league_id")), scope: model.Dynasty}
	if raw := v.Get("scope"); raw != "" {
		sc, err := model.ParseScope(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		q.scope = sc
	}
	if raw := v.Get("week"); raw != "" {
		wk, err := strconv.Atoi(raw)
		if err != nil || wk < 0 {
			return q, fmt.Errorf("%w: week must be a non-negative integer", ErrBadRequest)
		}
		q.week = wk
	}
	if raw := v.Get("position"); raw != "" {
		q.position = model.ParsePosition(raw)
		if q.position == model.Other {
			return q, fmt.Errorf("%w: position must be one of QB, RB, WR, TE", ErrBadRequest)
		}
	}
	return q, nil
}
