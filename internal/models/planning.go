package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a planned session.
type SessionStatus string

const (
	SessionPlanned   SessionStatus = "planned"
	SessionCompleted SessionStatus = "completed"
	SessionSkipped   SessionStatus = "skipped"
)

// DateFormat is the wire format of calendar dates.
const DateFormat = "2006-01-02"

// Breakdown holds the four 0-25 sub-scores of a session.
type Breakdown struct {
	MuscleRotation int `json:"muscle_rotation"`
	Recovery       int `json:"recovery"`
	Progression    int `json:"progression"`
	Adherence      int `json:"adherence"`
}

// Sum returns the unclamped sum of the sub-scores.
func (b Breakdown) Sum() int {
	return b.MuscleRotation + b.Recovery + b.Progression + b.Adherence
}

// SessionScore is the quality rating of a candidate session.
type SessionScore struct {
	Total       int       `json:"total"`
	Breakdown   Breakdown `json:"breakdown"`
	Suggestions []string  `json:"suggestions"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// PlannedSession is a workout placed on a calendar day.
type PlannedSession struct {
	ID                    uuid.UUID     `json:"id"`
	Date                  time.Time     `json:"date"`
	Exercises             []ExerciseRef `json:"exercises"`
	EstimatedDuration     int           `json:"estimated_duration"`
	PrimaryMuscles        []string      `json:"primary_muscles"`
	PredictedQualityScore int           `json:"predicted_quality_score"`
	Status                SessionStatus `json:"status"`
}

// Clone returns a deep copy of the session.
func (s PlannedSession) Clone() PlannedSession {
	c := s
	c.Exercises = make([]ExerciseRef, len(s.Exercises))
	for i, ex := range s.Exercises {
		if ex.PredictedWeight != nil {
			w := *ex.PredictedWeight
			ex.PredictedWeight = &w
		}
		c.Exercises[i] = ex
	}
	c.PrimaryMuscles = slices.Clone(s.PrimaryMuscles)
	return c
}

// Day is one calendar day of a week.
type Day struct {
	Date     time.Time        `json:"date"`
	Sessions []PlannedSession `json:"sessions"`
	Warnings []string         `json:"warnings"`
}

// Week is an ISO calendar week of seven days.
type Week struct {
	Key       string    `json:"week_key"`
	StartDate time.Time `json:"start_date"`
	Days      []Day     `json:"days"`
	WeekScore int       `json:"week_score"`
}

// Clone returns a deep copy of the week.
func (w Week) Clone() Week {
	c := w
	c.Days = make([]Day, len(w.Days))
	for i, d := range w.Days {
		cd := Day{Date: d.Date, Warnings: slices.Clone(d.Warnings)}
		cd.Sessions = make([]PlannedSession, len(d.Sessions))
		for j, s := range d.Sessions {
			cd.Sessions[j] = s.Clone()
		}
		c.Days[i] = cd
	}
	return c
}

// NewSession is the payload for creating a planned session.
type NewSession struct {
	PlannedDate       time.Time     `json:"planned_date"`
	Exercises         []ExerciseRef `json:"exercises"`
	EstimatedDuration int           `json:"estimated_duration"`
	PrimaryMuscles    []string      `json:"primary_muscles"`
	PredictedQuality  int           `json:"predicted_quality_score"`
	Status            SessionStatus `json:"status"`
}

// SessionUpdate replaces the exercises of a planned session together with
// the fields derived from them. Nil derived fields leave the stored values
// as they are.
type SessionUpdate struct {
	Exercises         []ExerciseRef `json:"exercises"`
	EstimatedDuration *int          `json:"estimated_duration,omitempty"`
	PrimaryMuscles    []string      `json:"primary_muscles"`
	PredictedQuality  *int          `json:"predicted_quality_score,omitempty"`
}

// MoveRequest is the payload for moving a planned session to another date.
type MoveRequest struct {
	NewDate   string `json:"new_date"`
	ForceMove bool   `json:"force_move,omitempty"`
}

// MoveResponse is the backend's answer to a move. A response carrying warnings
// without Success is a soft block that needs explicit confirmation.
type MoveResponse struct {
	Success              *bool    `json:"success,omitempty"`
	Warnings             []string `json:"warnings,omitempty"`
	RequiresConfirmation bool     `json:"requires_confirmation,omitempty"`
}

// Succeeded reports whether the backend applied the move.
func (r MoveResponse) Succeeded() bool {
	return r.Success != nil && *r.Success
}
