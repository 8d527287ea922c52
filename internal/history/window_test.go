package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	records  []models.WorkoutRecord
	err      error
	gotLimit int
}

func (f *fakeSource) WorkoutHistory(_ context.Context, _ int, limit int) ([]models.WorkoutRecord, error) {
	f.gotLimit = limit
	return f.records, f.err
}

func workout(status models.WorkoutStatus, ago time.Duration, exerciseIDs ...int) models.WorkoutRecord {
	w := models.WorkoutRecord{ID: uuid.New(), Status: status, CompletedAt: now.Add(-ago)}
	for _, id := range exerciseIDs {
		w.Sets = append(w.Sets, models.WorkoutSet{ExerciseID: id, WeightKg: 50})
	}
	return w
}

// TestFetchFiltersToWindow verifies only completed workouts inside the 14-day
// window survive, most recent first, and that the limit is passed through.
func TestFetchFiltersToWindow(t *testing.T) {
	src := &fakeSource{records: []models.WorkoutRecord{
		workout(models.WorkoutCompleted, 72*time.Hour, 1),
		workout(models.WorkoutPlanned, 2*time.Hour, 1),
		workout(models.WorkoutCompleted, 20*24*time.Hour, 1),
		workout(models.WorkoutCompleted, 5*time.Hour, 2),
		workout(models.WorkoutInProgress, time.Hour, 3),
	}}
	w := NewWindow(src, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(func() time.Time { return now })

	h, err := w.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if src.gotLimit != DefaultLimit {
		t.Errorf("limit = %d, want %d", src.gotLimit, DefaultLimit)
	}
	if h.Completed() != 2 {
		t.Fatalf("completed = %d, want 2", h.Completed())
	}
	if !h[0].CompletedAt.After(h[1].CompletedAt) {
		t.Error("history not sorted most recent first")
	}
}

// TestFetchFailureReturnsEmptyHistory verifies the safe default on fetch errors.
func TestFetchFailureReturnsEmptyHistory(t *testing.T) {
	boom := errors.New("timeout")
	w := NewWindow(&fakeSource{err: boom}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	h, err := w.Fetch(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if h.Completed() != 0 {
		t.Errorf("completed = %d, want 0", h.Completed())
	}
}

// TestFilterCapsAtLimit verifies the most recent workouts are kept when over the limit.
func TestFilterCapsAtLimit(t *testing.T) {
	var records []models.WorkoutRecord
	for i := range 30 {
		records = append(records, workout(models.WorkoutCompleted, time.Duration(i+1)*time.Hour, 1))
	}
	h := Filter(records, now, DefaultDays, DefaultLimit)
	if len(h) != DefaultLimit {
		t.Fatalf("len = %d, want %d", len(h), DefaultLimit)
	}
	if got := now.Sub(h[0].CompletedAt); got != time.Hour {
		t.Errorf("most recent workout is %v old, want 1h", got)
	}
}

// TestLastPerformedAndSets verifies exercise lookups across workouts.
func TestLastPerformedAndSets(t *testing.T) {
	older := workout(models.WorkoutCompleted, 50*time.Hour, 1)
	older.Sets[0].WeightKg = 60
	newer := workout(models.WorkoutCompleted, 10*time.Hour, 1, 2)
	newer.Sets[0].WeightKg = 70
	h := Filter([]models.WorkoutRecord{older, newer}, now, DefaultDays, DefaultLimit)

	last, ok := h.LastPerformed(1)
	if !ok {
		t.Fatal("LastPerformed(1) not found")
	}
	if !last.Equal(newer.CompletedAt) {
		t.Errorf("LastPerformed(1) = %v, want %v", last, newer.CompletedAt)
	}
	if _, ok := h.LastPerformed(9); ok {
		t.Error("LastPerformed(9) found, want missing")
	}

	sets := h.Sets(1)
	if len(sets) != 2 {
		t.Fatalf("Sets(1) = %d, want 2", len(sets))
	}
	if sets[0].WeightKg != 60 || sets[1].WeightKg != 70 {
		t.Errorf("Sets(1) weights = %v, %v, want chronological 60, 70", sets[0].WeightKg, sets[1].WeightKg)
	}

	if got := h.HoursSince(2, now, 168); got != 10 {
		t.Errorf("HoursSince(2) = %v, want 10", got)
	}
	if got := h.HoursSince(9, now, 168); got != 168 {
		t.Errorf("HoursSince(9) = %v, want fallback 168", got)
	}
}
