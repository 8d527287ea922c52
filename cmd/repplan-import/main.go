package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/repplan/internal/config"
	"github.com/meltforce/repplan/internal/importer"
	"github.com/meltforce/repplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to an Alpha Progression CSV export (required)")
	login := flag.String("login", "", "login of the user to import for (required)")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" || *login == "" {
		fmt.Fprintf(os.Stderr, "Usage: repplan-import -config config.yaml -login user@example.com -file export.csv [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open export", "path", *file, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if *dryRun {
		sessions, err := importer.ParseAlpha(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		sets := 0
		for _, s := range sessions {
			for _, ex := range s.Exercises {
				sets += len(ex.WorkingSets())
			}
		}
		log.Info("DRY RUN: export parsed", "sessions", len(sessions), "working_sets", sets)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Remote() {
		log.Error("import writes to the local database, but backend.url is set")
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if _, err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userID, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	res, err := importer.New(db, log).Import(ctx, userID, f)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import stats",
		"sessions_received", res.SessionsReceived,
		"workouts_imported", res.WorkoutsImported,
		"sets_imported", res.SetsImported,
		"sessions_skipped", res.SessionsSkipped,
	)
	if len(res.Unmatched) > 0 {
		log.Info("exercises not in catalog", "names", res.Unmatched)
	}
}
