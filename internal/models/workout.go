package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutStatus is the lifecycle state of a workout record.
type WorkoutStatus string

const (
	WorkoutCompleted  WorkoutStatus = "completed"
	WorkoutPlanned    WorkoutStatus = "planned"
	WorkoutInProgress WorkoutStatus = "in_progress"
)

// WorkoutRecord is one workout from the user's history.
type WorkoutRecord struct {
	ID          uuid.UUID     `json:"id"`
	Status      WorkoutStatus `json:"status"`
	CompletedAt time.Time     `json:"completed_at"`
	Sets        []WorkoutSet  `json:"sets"`
}

// WorkoutSet is a single logged set inside a workout.
type WorkoutSet struct {
	ExerciseID  int       `json:"exercise_id"`
	WeightKg    float64   `json:"weight"`
	CompletedAt time.Time `json:"completed_at"`
}

// Contains reports whether the workout logged at least one set of exerciseID.
func (w WorkoutRecord) Contains(exerciseID int) bool {
	for _, s := range w.Sets {
		if s.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}
