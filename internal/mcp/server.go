// Package mcp exposes session scoring and the weekly schedule as MCP tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// HTTPContext returns a streamable HTTP context function that carries the
// user resolved by userID into tool handlers.
func HTTPContext(userID func(*http.Request) int) server.HTTPContextFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return WithUserID(ctx, userID(r))
	}
}

// New creates an MCP server with all tools and resources registered.
func New(p Planner, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepPlan strength training planner. Score and order candidate sessions and manage the weekly schedule. Moves that shorten muscle recovery need confirm_move. All data is scoped to the authenticated user."),
	)

	h := &handlers{planner: p, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolScoreSession, Handler: h.scoreSession},
		server.ServerTool{Tool: toolOrderSession, Handler: h.orderSession},
		server.ServerTool{Tool: toolGetSchedule, Handler: h.getSchedule},
		server.ServerTool{Tool: toolCreateSession, Handler: h.createSession},
		server.ServerTool{Tool: toolMoveSession, Handler: h.moveSession},
		server.ServerTool{Tool: toolConfirmMove, Handler: h.confirmMove},
	)

	s.AddResources(
		server.ServerResource{Resource: resCurrentWeek, Handler: h.currentWeek},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	planner Planner
	log     *slog.Logger
}

var resCurrentWeek = mcp.NewResource(
	"repplan://current_week",
	"Current Week",
	mcp.WithResourceDescription("The seven days of the current ISO week with planned sessions, quality scores and recovery warnings"),
	mcp.WithMIMEType("application/json"),
)
