// Package backend describes the planning backend the engine consumes and
// provides an HTTP client for it.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
)

// API is the full backend contract. Both *storage.DB (local) and Client
// (remote via REST API) satisfy this interface.
type API interface {
	ExerciseCatalog(ctx context.Context, userID int) ([]models.CatalogEntry, error)
	WorkoutHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error)
	UserProfile(ctx context.Context, userID int) (models.UserProfile, error)
	WeeklyPlanning(ctx context.Context, userID int, weekStart time.Time) (models.Week, error)
	MoveSession(ctx context.Context, sessionID uuid.UUID, newDate time.Time, force bool) (models.MoveResponse, error)
	UpdateSession(ctx context.Context, sessionID uuid.UUID, u models.SessionUpdate) error
	CreateSession(ctx context.Context, userID int, s models.NewSession) (models.PlannedSession, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ExerciseAlternatives(ctx context.Context, exerciseID int, muscleGroup string, userID int) ([]models.Alternative, error)
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}
