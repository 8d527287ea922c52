// Package engine wires the scorer, orderer and per-user schedulers on top of
// a planning backend.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/catalog"
	"github.com/meltforce/repplan/internal/history"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/ordering"
	"github.com/meltforce/repplan/internal/schedule"
	"github.com/meltforce/repplan/internal/scorelog"
	"github.com/meltforce/repplan/internal/scoring"
)

// Options configures an Engine.
type Options struct {
	Schedule     schedule.Options
	HistoryDays  int
	HistoryLimit int
}

// DefaultOptions returns the default schedule window and a 14-day, 20-workout history.
func DefaultOptions() Options {
	return Options{
		Schedule:     schedule.DefaultOptions(),
		HistoryDays:  history.DefaultDays,
		HistoryLimit: history.DefaultLimit,
	}
}

// ScoreLog stores and lists session scores.
type ScoreLog interface {
	schedule.Recorder
	History(ctx context.Context, sessionID uuid.UUID, limit int) ([]scorelog.Entry, error)
}

// Engine is the entry point for scoring, ordering and scheduling.
type Engine struct {
	api     backend.API
	history *history.Window
	scorer  *scoring.Scorer
	orderer *ordering.Orderer
	scores  ScoreLog
	opts    Options
	log     *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	schedulers map[int]*schedule.Scheduler
}

// New creates an Engine backed by api. scores may be nil.
func New(api backend.API, scores ScoreLog, opts Options, log *slog.Logger) (*Engine, error) {
	if err := opts.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	if opts.HistoryDays <= 0 || opts.HistoryLimit <= 0 {
		return nil, fmt.Errorf("engine options: history window must be positive, got %d days / %d workouts",
			opts.HistoryDays, opts.HistoryLimit)
	}

	cat := catalog.NewResolver(api, log)
	hist := history.NewWindow(api, log)
	hist.Days, hist.Limit = opts.HistoryDays, opts.HistoryLimit
	scorer := scoring.NewScorer(cat, hist, api, log)

	return &Engine{
		api:        api,
		history:    hist,
		scorer:     scorer,
		orderer:    ordering.NewOrderer(cat, hist, scorer, log),
		scores:     scores,
		opts:       opts,
		log:        log,
		now:        time.Now,
		schedulers: make(map[int]*schedule.Scheduler),
	}, nil
}

// WithClock replaces the clock of the engine and everything it creates. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.history.WithClock(now)
	e.scorer.WithClock(now)
	e.orderer.WithClock(now)
	return e
}

// CalculateScore rates a candidate session.
func (e *Engine) CalculateScore(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result {
	return e.scorer.Score(ctx, refs, sc)
}

// GenerateOptimalOrder returns refs in priority order.
func (e *Engine) GenerateOptimalOrder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) []models.ExerciseDetail {
	return e.orderer.Reorder(ctx, refs, sc)
}

// RankExercises returns refs in priority order together with their priorities.
func (e *Engine) RankExercises(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) []ordering.Ranked {
	return e.orderer.Rank(ctx, refs, sc)
}

// RecalculateAfterReorder rescores refs in their given order, including the order bonus.
func (e *Engine) RecalculateAfterReorder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result {
	return e.orderer.RecalculateAfterReorder(ctx, refs, sc)
}

// Scheduler returns the scheduler of userID, creating it on first use.
func (e *Engine) Scheduler(userID int) (*schedule.Scheduler, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.schedulers[userID]; ok {
		return s, nil
	}
	s, err := schedule.New(userID, e.api, e.scorer, e.orderer, e.opts.Schedule, e.log)
	if err != nil {
		return nil, err
	}
	s.WithClock(e.now)
	if e.scores != nil {
		s.WithRecorder(e.scores)
	}
	e.schedulers[userID] = s
	return s, nil
}

// RollAll re-anchors every scheduler that follows today and returns how many moved.
func (e *Engine) RollAll() int {
	e.mu.Lock()
	schedulers := make([]*schedule.Scheduler, 0, len(e.schedulers))
	for _, s := range e.schedulers {
		schedulers = append(schedulers, s)
	}
	e.mu.Unlock()

	rolled := 0
	for _, s := range schedulers {
		if s.Roll() {
			rolled++
		}
	}
	if rolled > 0 {
		e.log.Info("schedule windows rolled", "count", rolled)
	}
	return rolled
}

// ScoreHistory lists the recorded scores of a planned session, newest first.
// Without a score log the history is empty.
func (e *Engine) ScoreHistory(ctx context.Context, sessionID uuid.UUID, limit int) ([]scorelog.Entry, error) {
	if e.scores == nil {
		return []scorelog.Entry{}, nil
	}
	entries, err := e.scores.History(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading score history: %w", err)
	}
	return entries, nil
}
