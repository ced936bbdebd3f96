package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/ownership"
	"github.com/okian/rosterlens/pkg/logger"
)

var errUnavailable = errors.New("section unavailable")

// SnapshotArgs selects a league.
type SnapshotArgs struct {
	LeagueID string `json:"league_id,omitempty" jsonschema:"Sleeper league id (empty = default mode without ownership)"`
}

// TiersArgs selects one tier group.
type TiersArgs struct {
	LeagueID string `json:"league_id,omitempty" jsonschema:"Sleeper league id (optional)"`
	Position string `json:"position" jsonschema:"Position: QB, RB, WR or TE (required)"`
	Scope    string `json:"scope,omitempty" jsonschema:"Scope: dynasty, draft or weekly (default dynasty)"`
	Week     int    `json:"week,omitempty" jsonschema:"Week for weekly scope"`
}

// TradeValueArgs filters trade values.
type TradeValueArgs struct {
	LeagueID string `json:"league_id,omitempty" jsonschema:"Sleeper league id (optional)"`
	Position string `json:"position,omitempty" jsonschema:"Position filter (optional)"`
	Scope    string `json:"scope,omitempty" jsonschema:"Scope: dynasty, draft or weekly (default dynasty)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max rows (default 50)"`
}

// EfficiencyArgs filters efficiency rows.
type EfficiencyArgs struct {
	LeagueID string `json:"league_id,omitempty" jsonschema:"Sleeper league id (optional)"`
	Position string `json:"position,omitempty" jsonschema:"Position filter (optional)"`
	Week     int    `json:"week,omitempty" jsonschema:"Week (0 = season totals)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max rows (default 50)"`
}

// ProjectionArgs filters league-scored projections.
type ProjectionArgs struct {
	LeagueID string `json:"league_id" jsonschema:"Sleeper league id (required)"`
	Position string `json:"position,omitempty" jsonschema:"Position filter (optional)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max rows (default 50)"`
}

// AvailableArgs selects the owner whose view of the board is wanted.
type AvailableArgs struct {
	LeagueID string `json:"league_id" jsonschema:"Sleeper league id (required)"`
	Owner    string `json:"owner,omitempty" jsonschema:"Owner display name; their players stay listed"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max rows (default 50)"`
}

type snapshotSummary struct {
	ID            string                                   `json:"id"`
	DataVersion   string                                   `json:"data_version"`
	LeagueID      string                                   `json:"league_id,omitempty"`
	BuiltAt       time.Time                                `json:"built_at"`
	Stale         bool                                     `json:"stale"`
	Warnings      []string                                 `json:"warnings,omitempty"`
	Players       int                                      `json:"players"`
	Tiers         int                                      `json:"tiers"`
	IdentityDrops int                                      `json:"identity_drops"`
	Owners        []string                                 `json:"owners,omitempty"`
	Sections      map[service.Section]service.Availability `json:"sections"`
	Strength      []ownership.Strength                     `json:"team_strength,omitempty"`
}

func (t *tools) load(ctx context.Context, leagueID string) (*service.Snapshot, error) {
	snap, err := t.snapshots.GetSnapshot(ctx, leagueID)
	if err != nil {
		t.logger.Warn(ctx, "mcp snapshot unavailable", logger.String("league_id", leagueID), logger.Error(err))
		return nil, err
	}
	return snap, nil
}

func (t *tools) getSnapshot(ctx context.Context, _ *mcp.CallToolRequest, args SnapshotArgs) (*mcp.CallToolResult, any, error) {
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	out := snapshotSummary{
		ID:            snap.ID,
		DataVersion:   snap.DataVersion,
		LeagueID:      snap.LeagueID,
		BuiltAt:       snap.BuiltAt,
		Stale:         snap.Stale,
		Warnings:      snap.Warnings,
		Players:       len(snap.Players),
		Tiers:         len(snap.Tiers),
		IdentityDrops: snap.IdentityDrop,
		Sections:      snap.Sections,
		Strength:      snap.TeamStrength,
	}
	if snap.Board != nil {
		out.Owners = snap.Board.Owners()
	}
	return toolJSON(out)
}

func (t *tools) tiers(ctx context.Context, _ *mcp.CallToolRequest, args TiersArgs) (*mcp.CallToolResult, any, error) {
	pos, err := parsePosition(args.Position, true)
	if err != nil {
		return toolError(err), nil, nil
	}
	scope, err := parseScope(args.Scope)
	if err != nil {
		return toolError(err), nil, nil
	}
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{
		"snapshot_id": snap.ID,
		"stale":       snap.Stale,
		"tiers":       snap.TiersFor(scope, args.Week, pos),
	})
}

func (t *tools) tradeValues(ctx context.Context, _ *mcp.CallToolRequest, args TradeValueArgs) (*mcp.CallToolResult, any, error) {
	pos, err := parsePosition(args.Position, false)
	if err != nil {
		return toolError(err), nil, nil
	}
	scope, err := parseScope(args.Scope)
	if err != nil {
		return toolError(err), nil, nil
	}
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	values := snap.TradeValuesFor(scope, pos)
	return toolJSON(map[string]any{
		"snapshot_id":  snap.ID,
		"stale":        snap.Stale,
		"total":        len(values),
		"trade_values": head(values, clampLimit(args.Limit)),
	})
}

func (t *tools) efficiency(ctx context.Context, _ *mcp.CallToolRequest, args EfficiencyArgs) (*mcp.CallToolResult, any, error) {
	pos, err := parsePosition(args.Position, false)
	if err != nil {
		return toolError(err), nil, nil
	}
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if !snap.Available(service.SectionEfficiency) {
		return toolError(fmt.Errorf("%w: efficiency: %s", errUnavailable, snap.Sections[service.SectionEfficiency].Reason)), nil, nil
	}
	rows := snap.EfficiencyFor(pos, args.Week)
	return toolJSON(map[string]any{
		"snapshot_id": snap.ID,
		"stale":       snap.Stale,
		"total":       len(rows),
		"efficiency":  head(rows, clampLimit(args.Limit)),
	})
}

func (t *tools) projections(ctx context.Context, _ *mcp.CallToolRequest, args ProjectionArgs) (*mcp.CallToolResult, any, error) {
	if args.LeagueID == "" {
		return toolError(errors.New("league_id is required")), nil, nil
	}
	pos, err := parsePosition(args.Position, false)
	if err != nil {
		return toolError(err), nil, nil
	}
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if !snap.Available(service.SectionProjections) {
		return toolError(fmt.Errorf("%w: projections: %s", errUnavailable, snap.Sections[service.SectionProjections].Reason)), nil, nil
	}
	rows := snap.ProjectionsFor(pos)
	return toolJSON(map[string]any{
		"snapshot_id": snap.ID,
		"stale":       snap.Stale,
		"total":       len(rows),
		"projections": head(rows, clampLimit(args.Limit)),
	})
}

func (t *tools) availablePlayers(ctx context.Context, _ *mcp.CallToolRequest, args AvailableArgs) (*mcp.CallToolResult, any, error) {
	if args.LeagueID == "" {
		return toolError(errors.New("league_id is required")), nil, nil
	}
	snap, err := t.load(ctx, args.LeagueID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if !snap.Available(service.SectionOwnership) || snap.Board == nil {
		return toolError(fmt.Errorf("%w: ownership: %s", errUnavailable, snap.Sections[service.SectionOwnership].Reason)), nil, nil
	}
	players := snap.Board.Available(args.Owner)
	return toolJSON(map[string]any{
		"snapshot_id": snap.ID,
		"stale":       snap.Stale,
		"total":       len(players),
		"players":     head(players, clampLimit(args.Limit)),
	})
}

func parsePosition(raw string, required bool) (model.Position, error) {
	if raw == "" {
		if required {
			return "", errors.New("position is required")
		}
		return "", nil
	}
	pos := model.ParsePosition(raw)
	if pos == model.Other {
		return "", fmt.Errorf("unsupported position %q", raw)
	}
	return pos, nil
}

func parseScope(raw string) (model.Scope, error) {
	if raw == "" {
		return model.Dynasty, nil
	}
	return model.ParseScope(raw)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
