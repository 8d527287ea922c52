// Package history fetches a user's recent completed workouts.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/meltforce/repplan/internal/models"
)

// Default recency window.
const (
	DefaultDays  = 14
	DefaultLimit = 20
)

// Source provides a user's workout history.
type Source interface {
	WorkoutHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error)
}

// Window fetches completed workouts within the last Days days, most recent first,
// capped at Limit workouts.
type Window struct {
	src   Source
	log   *slog.Logger
	Days  int
	Limit int
	now   func() time.Time
}

// NewWindow creates a Window with the default 14-day, 20-workout bounds.
func NewWindow(src Source, log *slog.Logger) *Window {
	return &Window{src: src, log: log, Days: DefaultDays, Limit: DefaultLimit, now: time.Now}
}

// WithClock replaces the window's clock. Used by tests.
func (w *Window) WithClock(now func() time.Time) *Window {
	w.now = now
	return w
}

// Fetch returns the filtered history. On failure it returns an empty history
// and the fetch error.
func (w *Window) Fetch(ctx context.Context, userID int) (History, error) {
	records, err := w.src.WorkoutHistory(ctx, userID, w.Limit)
	if err != nil {
		w.log.Warn("workout history unavailable", "user_id", userID, "error", err)
		return History{}, fmt.Errorf("fetching workout history: %w", err)
	}
	return Filter(records, w.now(), w.Days, w.Limit), nil
}

// Filter keeps completed workouts finished within days of now (and not in the
// future), sorted most recent first and capped at limit.
func Filter(records []models.WorkoutRecord, now time.Time, days, limit int) History {
	cutoff := now.AddDate(0, 0, -days)

	var out History
	for _, r := range records {
		if r.Status != models.WorkoutCompleted {
			continue
		}
		if r.CompletedAt.Before(cutoff) || r.CompletedAt.After(now) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// History is a list of completed workouts, most recent first.
type History []models.WorkoutRecord

// Completed returns the number of completed workouts in the history.
func (h History) Completed() int {
	return len(h)
}

// LastPerformed returns the completion time of the most recent workout that
// logged a set of exerciseID.
func (h History) LastPerformed(exerciseID int) (time.Time, bool) {
	for _, w := range h {
		if w.Contains(exerciseID) {
			return w.CompletedAt, true
		}
	}
	return time.Time{}, false
}

// Sets returns every logged set of exerciseID in chronological order.
func (h History) Sets(exerciseID int) []models.WorkoutSet {
	var sets []models.WorkoutSet
	for _, w := range h {
		for _, s := range w.Sets {
			if s.ExerciseID != exerciseID {
				continue
			}
			if s.CompletedAt.IsZero() {
				s.CompletedAt = w.CompletedAt
			}
			sets = append(sets, s)
		}
	}
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].CompletedAt.Before(sets[j].CompletedAt)
	})
	return sets
}

// HoursSince returns the hours elapsed since exerciseID was last performed,
// or fallback when it was never performed in the window.
func (h History) HoursSince(exerciseID int, now time.Time, fallback float64) float64 {
	last, ok := h.LastPerformed(exerciseID)
	if !ok {
		return fallback
	}
	return now.Sub(last).Hours()
}
