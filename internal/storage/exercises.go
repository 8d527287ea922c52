package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repplan/internal/models"
)

// maxAlternatives caps the number of replacement candidates returned.
const maxAlternatives = 5

const exerciseColumns = `id, name, body_part, muscle_groups, difficulty, exercise_type`

func scanExercise(row pgx.Row) (models.CatalogEntry, error) {
	var e models.CatalogEntry
	var difficulty, kind string
	if err := row.Scan(&e.ID, &e.Name, &e.BodyPart, &e.MuscleGroups, &difficulty, &kind); err != nil {
		return models.CatalogEntry{}, err
	}
	e.Difficulty = models.Difficulty(difficulty)
	e.ExerciseType = models.ExerciseType(kind)
	if e.MuscleGroups == nil {
		e.MuscleGroups = []string{}
	}
	return e, nil
}

// ExerciseCatalog returns the shared catalog plus the user's custom exercises.
func (db *DB) ExerciseCatalog(ctx context.Context, userID int) ([]models.CatalogEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE user_id IS NULL OR user_id = $1
		 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	entries := []models.CatalogEntry{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExerciseAlternatives lists catalog exercises that can replace exerciseID.
// Candidates must train muscleGroup, which defaults to the exercise's body part.
func (db *DB) ExerciseAlternatives(ctx context.Context, exerciseID int, muscleGroup string, userID int) ([]models.Alternative, error) {
	orig, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, exerciseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("exercise %d: %w", exerciseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise %d: %w", exerciseID, err)
	}
	if muscleGroup == "" {
		muscleGroup = orig.BodyPart
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE id <> $1
		   AND (user_id IS NULL OR user_id = $2)
		   AND (body_part = $3 OR $3 = ANY(muscle_groups))
		 ORDER BY id`, exerciseID, userID, muscleGroup)
	if err != nil {
		return nil, fmt.Errorf("querying alternatives: %w", err)
	}
	defer rows.Close()

	var candidates []models.CatalogEntry
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alternative: %w", err)
		}
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	profile, err := db.UserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RankAlternatives(orig, candidates, profile), nil
}

// RankAlternatives scores candidates by how many muscle groups they share
// with orig, with a bonus for the same movement type and for favorites.
// The best maxAlternatives matches are returned, highest score first.
func RankAlternatives(orig models.CatalogEntry, candidates []models.CatalogEntry, profile models.UserProfile) []models.Alternative {
	alts := make([]models.Alternative, 0, len(candidates))
	for _, c := range candidates {
		score := overlap(orig.MuscleGroups, c.MuscleGroups) * 0.7
		reason := "targets " + orig.BodyPart
		if c.ExerciseType == orig.ExerciseType {
			score += 0.2
		}
		if profile.IsFavorite(c.ID) {
			score += 0.1
			reason = "favorite exercise"
		}
		alts = append(alts, models.Alternative{
			Exercise:   c,
			MatchScore: math.Round(min(score, 1)*100) / 100,
			Reason:     reason,
		})
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].MatchScore > alts[j].MatchScore })
	return alts[:min(len(alts), maxAlternatives)]
}

// overlap is the Jaccard similarity of two muscle group lists.
func overlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	shared := 0
	for _, m := range a {
		if slices.Contains(b, m) {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
