// Command repplan-mcp serves the RepPlan MCP tools over stdio, backed by a
// remote planning backend.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	url := flag.String("url", os.Getenv("REPPLAN_BACKEND_URL"), "planning backend base URL")
	apiKey := flag.String("api-key", os.Getenv("REPPLAN_BACKEND_API_KEY"), "planning backend API key")
	userID := flag.Int("user", 1, "user ID to plan for")
	flag.Parse()

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *url == "" {
		log.Error("backend URL is required (-url or REPPLAN_BACKEND_URL)")
		os.Exit(1)
	}

	eng, err := engine.New(backend.NewClient(*url, *apiKey), nil, engine.DefaultOptions(), log)
	if err != nil {
		log.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	log.Info("RepPlan MCP starting", "version", Version, "backend", *url, "user_id", *userID)
	err = server.ServeStdio(mcp.New(eng, Version, log),
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return mcp.WithUserID(ctx, *userID)
		}),
	)
	if err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
