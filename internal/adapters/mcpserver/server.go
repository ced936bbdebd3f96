// Package mcpserver exposes snapshot queries as MCP tools for LLM agents.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/pkg/logger"
)

const (
	serverName     = "rosterlens"
	defaultLimit   = 50
	maxResultLimit = 500
)

// SnapshotGetter returns the current snapshot of a league, "" for default mode.
type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, leagueID string) (*service.Snapshot, error)
}

// Option configures the tool server.
type Option func(*tools)

// WithVersion sets the implementation version reported to clients.
func WithVersion(v string) Option {
	return func(t *tools) { t.version = v }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *tools) {
		if l != nil {
			t.logger = l
		}
	}
}

type tools struct {
	snapshots SnapshotGetter
	version   string
	logger    logger.Logger
}

// NewServer builds an MCP server with every snapshot tool registered.
func NewServer(snapshots SnapshotGetter, opts ...Option) *mcp.Server {
	t := &tools{snapshots: snapshots, version: "dev", logger: logger.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: t.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_snapshot",
		Description: "Summary of the current fused snapshot: version, staleness, warnings and section availability",
	}, t.getSnapshot)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tiers",
		Description: "Tiers for one position and scope, best tier first",
	}, t.tiers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trade_values",
		Description: "Trade values for a scope, optionally one position, in position-rank order",
	}, t.tradeValues)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "efficiency",
		Description: "Actual minus expected fantasy points per player for the season or one week",
	}, t.efficiency)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "projections",
		Description: "Season projections scored with the league's own scoring settings",
	}, t.projections)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "available_players",
		Description: "League board with players held by other teams removed",
	}, t.availablePlayers)
	return server
}

// NewHandler serves the tool server over streamable HTTP.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxResultLimit:
		return maxResultLimit
	}
	return n
}
