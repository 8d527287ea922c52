package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
)

// workoutHistoryQuery limits completed workouts only, so planned and
// in-progress rows never push finished ones out of the window.
const workoutHistoryQuery = `SELECT w.id, w.status, w.completed_at, s.exercise_id, s.weight_kg, s.completed_at
	FROM (
		SELECT id, status, completed_at
		FROM workouts
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY completed_at DESC NULLS LAST, id
		LIMIT $2
	) w
	LEFT JOIN workout_sets s ON s.workout_id = w.id
	ORDER BY w.completed_at DESC NULLS LAST, w.id, s.id`

// WorkoutHistory returns the user's latest limit completed workouts, newest
// first, each with its logged sets in order.
func (db *DB) WorkoutHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx, workoutHistoryQuery, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	workouts := []models.WorkoutRecord{}
	for rows.Next() {
		var (
			id          uuid.UUID
			status      string
			completedAt *time.Time
			exerciseID  *int
			weight      *float64
			setAt       *time.Time
		)
		if err := rows.Scan(&id, &status, &completedAt, &exerciseID, &weight, &setAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}

		if n := len(workouts); n == 0 || workouts[n-1].ID != id {
			w := models.WorkoutRecord{ID: id, Status: models.WorkoutStatus(status), Sets: []models.WorkoutSet{}}
			if completedAt != nil {
				w.CompletedAt = *completedAt
			}
			workouts = append(workouts, w)
		}
		if exerciseID == nil {
			continue
		}
		set := models.WorkoutSet{ExerciseID: *exerciseID}
		if weight != nil {
			set.WeightKg = *weight
		}
		if setAt != nil {
			set.CompletedAt = *setAt
		}
		last := &workouts[len(workouts)-1]
		last.Sets = append(last.Sets, set)
	}
	return workouts, rows.Err()
}

// InsertWorkout stores a workout and its sets in one transaction.
// A zero ID is replaced by a new random one, which is returned. An existing
// workout with the same ID is replaced, sets included.
func (db *DB) InsertWorkout(ctx context.Context, userID int, w models.WorkoutRecord) (uuid.UUID, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	var completedAt *time.Time
	if !w.CompletedAt.IsZero() {
		completedAt = &w.CompletedAt
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, status, completed_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at
		 WHERE workouts.user_id = EXCLUDED.user_id`,
		w.ID, userID, string(w.Status), completedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, fmt.Errorf("workout %s belongs to another user", w.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workout_sets WHERE workout_id = $1`, w.ID); err != nil {
		return uuid.Nil, fmt.Errorf("clearing workout sets: %w", err)
	}
	for _, s := range w.Sets {
		setAt := s.CompletedAt
		if setAt.IsZero() && completedAt != nil {
			setAt = *completedAt
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO workout_sets (workout_id, exercise_id, weight_kg, completed_at) VALUES ($1, $2, $3, $4)`,
			w.ID, s.ExerciseID, s.WeightKg, setAt)
		if err != nil {
			return uuid.Nil, fmt.Errorf("inserting workout set: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("committing workout: %w", err)
	}
	return w.ID, nil
}
