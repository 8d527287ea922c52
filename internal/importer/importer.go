package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
)

// Store is the part of the planning store an import writes to.
type Store interface {
	ExerciseCatalog(ctx context.Context, userID int) ([]models.CatalogEntry, error)
	InsertWorkout(ctx context.Context, userID int, w models.WorkoutRecord) (uuid.UUID, error)
}

// Result summarizes an import.
type Result struct {
	SessionsReceived int      `json:"sessions_received"`
	WorkoutsImported int      `json:"workouts_imported"`
	SetsImported     int      `json:"sets_imported"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	Unmatched        []string `json:"unmatched_exercises,omitempty"`
}

// workoutNamespace derives stable workout IDs so a re-imported session
// replaces its earlier copy instead of duplicating it.
var workoutNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("repplan:alpha-import"))

// Importer maps exported sessions onto catalog exercises and stores them as
// completed workouts.
type Importer struct {
	store Store
	log   *slog.Logger
}

// New creates an Importer.
func New(store Store, log *slog.Logger) *Importer {
	return &Importer{store: store, log: log}
}

// Import parses an Alpha Progression export and stores every session that has
// at least one working set of a known exercise. Exercises missing from the
// catalog are reported, not stored.
func (im *Importer) Import(ctx context.Context, userID int, r io.Reader) (Result, error) {
	sessions, err := ParseAlpha(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing export: %w", err)
	}
	catalog, err := im.store.ExerciseCatalog(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("loading catalog: %w", err)
	}
	ids := make(map[string]int, len(catalog))
	for _, e := range catalog {
		ids[exerciseKey(e.Name)] = e.ID
	}

	res := Result{SessionsReceived: len(sessions)}
	unmatched := map[string]bool{}
	for _, s := range sessions {
		w := WorkoutFor(userID, s)
		for _, ex := range s.Exercises {
			id, ok := ids[exerciseKey(ex.Name)]
			if !ok {
				unmatched[ex.Name] = true
				continue
			}
			for _, set := range ex.WorkingSets() {
				w.Sets = append(w.Sets, models.WorkoutSet{
					ExerciseID:  id,
					WeightKg:    set.WeightKg,
					CompletedAt: s.Date,
				})
			}
		}
		if len(w.Sets) == 0 {
			res.SessionsSkipped++
			continue
		}
		if _, err := im.store.InsertWorkout(ctx, userID, w); err != nil {
			return res, fmt.Errorf("storing session %s: %w", s.Date.Format("2006-01-02 15:04"), err)
		}
		res.WorkoutsImported++
		res.SetsImported += len(w.Sets)
	}

	for name := range unmatched {
		res.Unmatched = append(res.Unmatched, name)
	}
	slices.Sort(res.Unmatched)

	im.log.Info("alpha import complete",
		"user_id", userID,
		"sessions", res.SessionsReceived,
		"workouts", res.WorkoutsImported,
		"sets", res.SetsImported,
		"unmatched", len(res.Unmatched),
	)
	return res, nil
}

// WorkoutFor returns the empty completed workout a session is stored as.
// Its ID depends only on the user and the session start.
func WorkoutFor(userID int, s Session) models.WorkoutRecord {
	name := strconv.Itoa(userID) + "/" + s.Date.UTC().Format("2006-01-02T15:04")
	return models.WorkoutRecord{
		ID:          uuid.NewSHA1(workoutNamespace, []byte(name)),
		Status:      models.WorkoutCompleted,
		CompletedAt: s.Date,
	}
}

// exerciseKey folds case and a plural "s", so "Hack Squats" finds "Hack Squat".
func exerciseKey(name string) string {
	k := strings.ToLower(strings.Join(strings.Fields(name), " "))
	return strings.TrimSuffix(k, "s")
}
