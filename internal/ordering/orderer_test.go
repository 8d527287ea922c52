package ordering

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/catalog"
	"github.com/meltforce/repplan/internal/history"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/scoring"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	catalog      []models.CatalogEntry
	catalogErr   error
	workouts     []models.WorkoutRecord
	historyErr   error
	panicCatalog bool
}

func (f *fakeBackend) ExerciseCatalog(_ context.Context, _ int) ([]models.CatalogEntry, error) {
	if f.panicCatalog {
		panic("catalog exploded")
	}
	return f.catalog, f.catalogErr
}

func (f *fakeBackend) WorkoutHistory(_ context.Context, _ int, _ int) ([]models.WorkoutRecord, error) {
	return f.workouts, f.historyErr
}

func (f *fakeBackend) UserProfile(_ context.Context, _ int) (models.UserProfile, error) {
	return models.UserProfile{}, nil
}

func newTestOrderer(fb *fakeBackend) *Orderer {
	clock := func() time.Time { return now }
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.NewResolver(fb, log)
	hist := history.NewWindow(fb, log).WithClock(clock)
	scorer := scoring.NewScorer(cat, hist, fb, log).WithClock(clock)
	return NewOrderer(cat, hist, scorer, log).WithClock(clock)
}

// exampleBackend holds A (isolation, never performed, beginner) and
// B (compound, performed 2h ago, advanced).
func exampleBackend() *fakeBackend {
	return &fakeBackend{
		catalog: []models.CatalogEntry{
			{ID: 1, Name: "A", BodyPart: "arms", Difficulty: models.DifficultyBeginner, ExerciseType: models.ExerciseTypeIsolation},
			{ID: 2, Name: "B", BodyPart: "legs", Difficulty: models.DifficultyAdvanced, ExerciseType: models.ExerciseTypeCompound},
		},
		workouts: []models.WorkoutRecord{{
			ID:          uuid.New(),
			Status:      models.WorkoutCompleted,
			CompletedAt: now.Add(-2 * time.Hour),
			Sets:        []models.WorkoutSet{{ExerciseID: 2, WeightKg: 100}},
		}},
	}
}

func ids(details []models.ExerciseDetail) []int {
	out := make([]int, len(details))
	for i, d := range details {
		out[i] = d.ExerciseID
	}
	return out
}

// TestRankCompoundBeforeFresh verifies the worked example: B (16) sorts before A (8).
func TestRankCompoundBeforeFresh(t *testing.T) {
	o := newTestOrderer(exampleBackend())
	refs := []models.ExerciseRef{{ExerciseID: 1}, {ExerciseID: 2}}

	ranked := o.Rank(context.Background(), refs, models.SessionContext{UserID: 1})

	got := []int{ranked[0].Exercise.ExerciseID, ranked[0].Priority, ranked[1].Exercise.ExerciseID, ranked[1].Priority}
	want := []int{2, 16, 1, 8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() id/priority mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1}, ids(o.Reorder(context.Background(), refs, models.SessionContext{UserID: 1}))); diff != "" {
		t.Errorf("Reorder() mismatch (-want +got):\n%s", diff)
	}
}

// TestPriority covers the freshness bands and difficulty weights.
func TestPriority(t *testing.T) {
	h := history.History{
		{Status: models.WorkoutCompleted, CompletedAt: now.Add(-60 * time.Hour), Sets: []models.WorkoutSet{{ExerciseID: 1}}},
		{Status: models.WorkoutCompleted, CompletedAt: now.Add(-100 * time.Hour), Sets: []models.WorkoutSet{{ExerciseID: 2}}},
	}
	tests := []struct {
		name string
		d    models.ExerciseDetail
		want int
	}{
		{"rested 60h, intermediate", models.ExerciseDetail{ExerciseRef: models.ExerciseRef{ExerciseID: 1}, Difficulty: models.DifficultyIntermediate}, 8},
		{"stale 100h, compound", models.ExerciseDetail{ExerciseRef: models.ExerciseRef{ExerciseID: 2}, ExerciseType: models.ExerciseTypeCompound}, 18},
		{"never performed, advanced compound", models.ExerciseDetail{ExerciseRef: models.ExerciseRef{ExerciseID: 3},
			Difficulty: models.DifficultyAdvanced, ExerciseType: models.ExerciseTypeCompound}, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Priority(tt.d, h, now); got != tt.want {
				t.Errorf("Priority() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestSortIsStable verifies equal priorities keep their relative input order.
func TestSortIsStable(t *testing.T) {
	details := []models.ExerciseDetail{
		{ExerciseRef: models.ExerciseRef{ExerciseID: 3}},
		{ExerciseRef: models.ExerciseRef{ExerciseID: 1}},
		{ExerciseRef: models.ExerciseRef{ExerciseID: 9}, ExerciseType: models.ExerciseTypeCompound},
		{ExerciseRef: models.ExerciseRef{ExerciseID: 2}},
	}
	ranked := Sort(details, nil, now)

	got := make([]int, len(ranked))
	for i, r := range ranked {
		got[i] = r.Exercise.ExerciseID
	}
	if diff := cmp.Diff([]int{9, 3, 1, 2}, got); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
}

// TestReorderKeepsInputOrderOnFailure verifies the best-effort contract.
func TestReorderKeepsInputOrderOnFailure(t *testing.T) {
	refs := []models.ExerciseRef{{ExerciseID: 1}, {ExerciseID: 2}}

	t.Run("catalog error", func(t *testing.T) {
		fb := exampleBackend()
		fb.catalogErr = errors.New("down")
		got := newTestOrderer(fb).Reorder(context.Background(), refs, models.SessionContext{UserID: 1})
		if diff := cmp.Diff([]int{1, 2}, ids(got)); diff != "" {
			t.Errorf("Reorder() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("catalog panic", func(t *testing.T) {
		fb := exampleBackend()
		fb.panicCatalog = true
		got := newTestOrderer(fb).Reorder(context.Background(), refs, models.SessionContext{UserID: 1})
		if diff := cmp.Diff([]int{1, 2}, ids(got)); diff != "" {
			t.Errorf("Reorder() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("history error still ranks", func(t *testing.T) {
		fb := exampleBackend()
		fb.historyErr = errors.New("down")
		ranked := newTestOrderer(fb).Rank(context.Background(), refs, models.SessionContext{UserID: 1})
		// B counts as never performed: 10 + 8 + 6.
		if ranked[0].Exercise.ExerciseID != 2 || ranked[0].Priority != 24 {
			t.Errorf("first = %d (priority %d), want 2 (24)", ranked[0].Exercise.ExerciseID, ranked[0].Priority)
		}
	})
}

// TestRecalculateAfterReorderAddsOrderBonus verifies +2 per leading compound on the total only.
func TestRecalculateAfterReorderAddsOrderBonus(t *testing.T) {
	fb := exampleBackend()
	o := newTestOrderer(fb)
	sc := models.SessionContext{UserID: 1}

	compoundFirst := []models.ExerciseRef{{ExerciseID: 2}, {ExerciseID: 1}}
	plain := o.scorer.Score(context.Background(), compoundFirst, sc)
	got := o.RecalculateAfterReorder(context.Background(), compoundFirst, sc)

	if got.Score.Total != min(plain.Score.Total+2, 100) {
		t.Errorf("total = %d, want %d", got.Score.Total, plain.Score.Total+2)
	}
	if diff := cmp.Diff(plain.Score.Breakdown, got.Score.Breakdown); diff != "" {
		t.Errorf("breakdown changed (-want +got):\n%s", diff)
	}

	empty := o.RecalculateAfterReorder(context.Background(), nil, sc)
	if empty.Score.Total != 0 {
		t.Errorf("empty total = %d, want 0", empty.Score.Total)
	}
}

// TestOrderBonus verifies only the first three positions count.
func TestOrderBonus(t *testing.T) {
	c := models.ExerciseDetail{ExerciseType: models.ExerciseTypeCompound}
	i := models.ExerciseDetail{ExerciseType: models.ExerciseTypeIsolation}
	tests := []struct {
		name    string
		details []models.ExerciseDetail
		want    int
	}{
		{"none", []models.ExerciseDetail{i, i, i, c}, 0},
		{"two leading", []models.ExerciseDetail{c, i, c, c}, 4},
		{"all", []models.ExerciseDetail{c, c, c, c, c}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderBonus(tt.details); got != tt.want {
				t.Errorf("OrderBonus() = %d, want %d", got, tt.want)
			}
		})
	}
}
