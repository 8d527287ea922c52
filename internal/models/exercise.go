package models

// Difficulty is the catalog difficulty of an exercise.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ExerciseType classifies an exercise by movement pattern.
type ExerciseType string

const (
	ExerciseTypeCompound  ExerciseType = "compound"
	ExerciseTypeIsolation ExerciseType = "isolation"
	ExerciseTypeUnknown   ExerciseType = "unknown"
)

// UnknownBodyPart is assigned to exercises the catalog cannot resolve.
const UnknownBodyPart = "unknown"

// Defaults applied to exercise references that omit their prescription.
const (
	DefaultSets        = 3
	DefaultRepsMin     = 8
	DefaultRepsMax     = 12
	DefaultRestSeconds = 90
)

// ExerciseRef identifies one exercise occurrence inside a session.
type ExerciseRef struct {
	ExerciseID      int      `json:"exercise_id"`
	Sets            int      `json:"sets"`
	RepsMin         int      `json:"reps_min"`
	RepsMax         int      `json:"reps_max"`
	RestSeconds     int      `json:"rest_seconds"`
	PredictedWeight *float64 `json:"predicted_weight,omitempty"`
}

// WithDefaults returns a copy of r with zero-valued prescription fields replaced
// by the package defaults. A reps range whose maximum is below its minimum is
// collapsed to the minimum.
func (r ExerciseRef) WithDefaults() ExerciseRef {
	if r.Sets <= 0 {
		r.Sets = DefaultSets
	}
	if r.RepsMin <= 0 {
		r.RepsMin = DefaultRepsMin
	}
	if r.RepsMax <= 0 {
		r.RepsMax = DefaultRepsMax
	}
	if r.RepsMax < r.RepsMin {
		r.RepsMax = r.RepsMin
	}
	if r.RestSeconds <= 0 {
		r.RestSeconds = DefaultRestSeconds
	}
	return r
}

// CatalogEntry is one exercise as described by the exercise catalog.
type CatalogEntry struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	BodyPart     string       `json:"body_part"`
	MuscleGroups []string     `json:"muscle_groups"`
	Difficulty   Difficulty   `json:"difficulty"`
	ExerciseType ExerciseType `json:"exercise_type"`
}

// ExerciseDetail is an ExerciseRef enriched with its catalog fields.
type ExerciseDetail struct {
	ExerciseRef
	Name         string       `json:"name,omitempty"`
	BodyPart     string       `json:"body_part"`
	MuscleGroups []string     `json:"muscle_groups"`
	Difficulty   Difficulty   `json:"difficulty"`
	ExerciseType ExerciseType `json:"exercise_type"`
}

// Known reports whether the catalog resolved the exercise's body part.
func (d ExerciseDetail) Known() bool {
	return d.BodyPart != "" && d.BodyPart != UnknownBodyPart
}

// IsCompound reports whether the exercise is a compound movement.
func (d ExerciseDetail) IsCompound() bool {
	return d.ExerciseType == ExerciseTypeCompound
}

// UnknownDetail wraps a reference the catalog could not resolve.
func UnknownDetail(ref ExerciseRef) ExerciseDetail {
	return ExerciseDetail{
		ExerciseRef:  ref,
		BodyPart:     UnknownBodyPart,
		MuscleGroups: []string{},
		Difficulty:   DifficultyBeginner,
		ExerciseType: ExerciseTypeUnknown,
	}
}

// Alternative is a candidate replacement for an exercise in a session.
type Alternative struct {
	Exercise   CatalogEntry `json:"exercise"`
	MatchScore float64      `json:"match_score"`
	Reason     string       `json:"reason"`
}

// UserProfile holds the planning-relevant parts of a user's profile.
type UserProfile struct {
	FavoriteExercises []int          `json:"favorite_exercises"`
	EquipmentConfig   map[string]any `json:"equipment_config,omitempty"`
}

// IsFavorite reports whether exerciseID is among the user's favorites.
func (p UserProfile) IsFavorite(exerciseID int) bool {
	for _, id := range p.FavoriteExercises {
		if id == exerciseID {
			return true
		}
	}
	return false
}

// HasEquipment reports whether the user has an equipment configuration on file.
func (p UserProfile) HasEquipment() bool {
	return len(p.EquipmentConfig) > 0
}

// SessionContext carries the caller identity into scoring and ordering calls.
type SessionContext struct {
	UserID int `json:"user_id"`
}
