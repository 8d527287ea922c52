package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/config"
	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/mcp"
	apiserver "github.com/meltforce/repplan/internal/server"
	"github.com/meltforce/repplan/internal/scorelog"
	"github.com/meltforce/repplan/internal/storage"
	"github.com/robfig/cron"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	migrationsPath := flag.String("migrations", "migrations", "path to migration files")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepPlan starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Planning backend: local database or remote REST API
	var (
		api   backend.API
		store apiserver.Store
	)
	if cfg.Remote() {
		if *migrateOnly {
			log.Error("migrate-only needs a database, but backend.url is set")
			os.Exit(1)
		}
		api = backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey)
		log.Info("using remote planning backend", "url", cfg.Backend.URL)
	} else {
		dsn := cfg.Database.DSN()
		version, err := storage.RunMigrations(dsn, *migrationsPath)
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "version", version)

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
		api, store = db, db
	}

	// Score log (optional)
	var scores engine.ScoreLog
	if cfg.ScoreLog.Dir != "" {
		sl, err := scorelog.Open(cfg.ScoreLog.Dir)
		if err != nil {
			log.Error("failed to open score log", "error", err)
			os.Exit(1)
		}
		defer sl.Close()
		scores = sl
		log.Info("score log opened", "dir", cfg.ScoreLog.Dir)
	}

	eng, err := engine.New(api, scores, cfg.EngineOptions(), log)
	if err != nil {
		log.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	// Keep schedule windows on the current week
	roller := cron.New()
	if err := roller.AddFunc("@hourly", func() { eng.RollAll() }); err != nil {
		log.Error("failed to schedule window roll", "error", err)
		os.Exit(1)
	}
	roller.Start()
	defer roller.Stop()

	srv := apiserver.New(eng, store, cfg.Auth.APIKey, log)

	mcpSrv := mcp.New(eng, Version, log)
	srv.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv,
		server.WithHTTPContextFunc(mcp.HTTPContext(apiserver.UserID)),
	))

	// Listener: tailnet or plain TCP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
