package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/schedule"
)

const sessionColumns = `id, planned_date, exercises, estimated_duration, primary_muscles, predicted_quality, status`

func scanSession(row pgx.Row) (models.PlannedSession, error) {
	var (
		s         models.PlannedSession
		exercises []byte
		status    string
	)
	if err := row.Scan(&s.ID, &s.Date, &exercises, &s.EstimatedDuration, &s.PrimaryMuscles,
		&s.PredictedQualityScore, &status); err != nil {
		return models.PlannedSession{}, err
	}
	if err := json.Unmarshal(exercises, &s.Exercises); err != nil {
		return models.PlannedSession{}, fmt.Errorf("decoding exercises of %s: %w", s.ID, err)
	}
	if s.Exercises == nil {
		s.Exercises = []models.ExerciseRef{}
	}
	if s.PrimaryMuscles == nil {
		s.PrimaryMuscles = []string{}
	}
	s.Status = models.SessionStatus(status)
	return s, nil
}

func (db *DB) querySessions(ctx context.Context, userID int, from, to time.Time, exclude uuid.UUID) ([]models.PlannedSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM planned_sessions
		 WHERE user_id = $1 AND planned_date >= $2 AND planned_date < $3 AND id <> $4
		 ORDER BY planned_date, created_at`,
		userID, from, to, exclude)
	if err != nil {
		return nil, fmt.Errorf("querying planned sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PlannedSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning planned session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// WeeklyPlanning returns the seven days of the week containing weekStart
// with the user's planned sessions filed under their dates.
func (db *DB) WeeklyPlanning(ctx context.Context, userID int, weekStart time.Time) (models.Week, error) {
	monday := schedule.MondayOf(weekStart)
	sessions, err := db.querySessions(ctx, userID, monday, monday.AddDate(0, 0, 7), uuid.Nil)
	if err != nil {
		return models.Week{}, err
	}

	week := schedule.EmptyWeek(monday)
	for _, s := range sessions {
		i := int(schedule.DateOf(s.Date).Sub(monday).Hours() / 24)
		week.Days[i].Sessions = append(week.Days[i].Sessions, s)
	}
	week.WeekScore = WeekScore(sessions)
	return week, nil
}

// WeekScore is the rounded average predicted quality of the sessions, or 0
// for an empty week.
func WeekScore(sessions []models.PlannedSession) int {
	if len(sessions) == 0 {
		return 0
	}
	sum := 0
	for _, s := range sessions {
		sum += s.PredictedQualityScore
	}
	return int(math.Round(float64(sum) / float64(len(sessions))))
}

// MoveWarnings lists the muscles of a session moved to target that the
// other sessions already train within one day of target.
func MoveWarnings(muscles []string, target time.Time, others []models.PlannedSession) []string {
	target = schedule.DateOf(target)
	var warnings []string
	var seen []string
	for _, o := range others {
		gap := schedule.DateOf(o.Date).Sub(target)
		if gap < -24*time.Hour || gap > 24*time.Hour {
			continue
		}
		for _, m := range o.PrimaryMuscles {
			if !slices.Contains(muscles, m) || slices.Contains(seen, m) {
				continue
			}
			seen = append(seen, m)
			warnings = append(warnings, fmt.Sprintf("%s already trained on %s: less than 48h recovery",
				m, o.Date.Format(models.DateFormat)))
		}
	}
	return warnings
}

// MoveSession moves a planned session to newDate. Unless force is set, a
// move that puts a primary muscle within one day of another session
// training it is answered with warnings and left unapplied.
func (db *DB) MoveSession(ctx context.Context, sessionID uuid.UUID, newDate time.Time, force bool) (models.MoveResponse, error) {
	var (
		userID  int
		muscles []string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, primary_muscles FROM planned_sessions WHERE id = $1`,
		sessionID).Scan(&userID, &muscles)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.MoveResponse{}, fmt.Errorf("planned session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return models.MoveResponse{}, fmt.Errorf("querying planned session %s: %w", sessionID, err)
	}

	target := schedule.DateOf(newDate)
	if !force {
		nearby, err := db.querySessions(ctx, userID, target.AddDate(0, 0, -1), target.AddDate(0, 0, 2), sessionID)
		if err != nil {
			return models.MoveResponse{}, err
		}
		if warnings := MoveWarnings(muscles, target, nearby); len(warnings) > 0 {
			return models.MoveResponse{Warnings: warnings, RequiresConfirmation: true}, nil
		}
	}

	_, err = db.Pool.Exec(ctx,
		`UPDATE planned_sessions SET planned_date = $2, updated_at = NOW() WHERE id = $1`,
		sessionID, target)
	if err != nil {
		return models.MoveResponse{}, fmt.Errorf("moving planned session %s: %w", sessionID, err)
	}
	ok := true
	return models.MoveResponse{Success: &ok}, nil
}

// UpdateSession replaces the exercise list of a planned session and stores
// the duration, primary muscles and quality derived from it. Nil derived
// fields keep their stored values.
func (db *DB) UpdateSession(ctx context.Context, sessionID uuid.UUID, u models.SessionUpdate) error {
	data, err := json.Marshal(nonNil(u.Exercises))
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE planned_sessions SET
		   exercises = $2,
		   estimated_duration = COALESCE($3, estimated_duration),
		   primary_muscles = COALESCE($4, primary_muscles),
		   predicted_quality = COALESCE($5, predicted_quality),
		   updated_at = NOW()
		 WHERE id = $1`,
		sessionID, data, u.EstimatedDuration, u.PrimaryMuscles, u.PredictedQuality)
	if err != nil {
		return fmt.Errorf("updating planned session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("planned session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// CreateSession stores a new planned session for userID and returns it with
// its assigned ID.
func (db *DB) CreateSession(ctx context.Context, userID int, ns models.NewSession) (models.PlannedSession, error) {
	data, err := json.Marshal(nonNil(ns.Exercises))
	if err != nil {
		return models.PlannedSession{}, fmt.Errorf("encoding exercises: %w", err)
	}
	status := ns.Status
	if status == "" {
		status = models.SessionPlanned
	}
	muscles := ns.PrimaryMuscles
	if muscles == nil {
		muscles = []string{}
	}

	s, err := scanSession(db.Pool.QueryRow(ctx,
		`INSERT INTO planned_sessions
		 (id, user_id, planned_date, exercises, estimated_duration, primary_muscles, predicted_quality, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+sessionColumns,
		uuid.New(), userID, schedule.DateOf(ns.PlannedDate), data, ns.EstimatedDuration, muscles,
		ns.PredictedQuality, string(status)))
	if err != nil {
		return models.PlannedSession{}, fmt.Errorf("inserting planned session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a planned session.
func (db *DB) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM planned_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting planned session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("planned session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

func nonNil(refs []models.ExerciseRef) []models.ExerciseRef {
	if refs == nil {
		return []models.ExerciseRef{}
	}
	return refs
}
