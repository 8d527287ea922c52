package scoring

import (
	"math"
	"time"

	"github.com/meltforce/repplan/internal/history"
	"github.com/meltforce/repplan/internal/models"
)

// Sub-score bounds and neutral values.
const (
	MaxSubScore        = 25
	MaxTotal           = 100
	neutralSubScore    = 20
	suggestionCutoff   = 18
	positiveNoteCutoff = 22
	maxSuggestions     = 3
)

// Muscle rotation rules.
const (
	heavyConcentration     = 0.7
	heavyConcentrationCost = 12
	mildConcentration      = 0.5
	mildConcentrationCost  = 6
	diversityMinBodyParts  = 3
	diversityMinExercises  = 4
	diversityBonus         = 3
	noCompoundMinExercises = 2
	noCompoundCost         = 4
)

// Recovery rules, in hours since the exercise was last performed.
const (
	recoveryVeryRecent     = 24
	recoveryVeryRecentCost = 8
	recoveryRecent         = 48
	recoveryRecentCost     = 4
	recoveryStale          = 168
	recoveryStaleCost      = 2
)

// Progression rules, as relative change against the last logged weight.
const (
	progressionMinWorkouts = 2
	progressionBigJump     = 0.15
	progressionBigJumpCost = 8
	progressionJump        = 0.10
	progressionJumpCost    = 4
	progressionDrop        = -0.05
	progressionDropCost    = 3
)

// Adherence rules.
const (
	minutesPerSet     = 2.5
	longSession       = 90
	longSessionCost   = 10
	mediumSession     = 75
	mediumSessionCost = 6
	shortOverrun      = 60
	shortOverrunCost  = 3
	favoriteBonus     = 2
	equipmentBonus    = 1
)

// Confidence rules.
const (
	baseConfidence      = 0.6
	richHistoryWorkouts = 10
	richHistoryBonus    = 0.2
	someHistoryWorkouts = 5
	someHistoryBonus    = 0.1
	knownBodyPartWeight = 0.2
	maxConfidence       = 0.95
)

// Inputs are the resolved data a session score is computed from.
type Inputs struct {
	Exercises []models.ExerciseDetail
	History   history.History
	Profile   models.UserProfile
	Now       time.Time
}

// Compute scores a non-empty session. It is a pure function of its inputs.
func Compute(in Inputs) models.SessionScore {
	if len(in.Exercises) == 0 {
		return EmptyScore(in.Now)
	}

	b := models.Breakdown{
		MuscleRotation: rotationScore(in.Exercises),
		Recovery:       recoveryScore(in.Exercises, in.History, in.Now),
		Progression:    progressionScore(in.Exercises, in.History),
		Adherence:      adherenceScore(in.Exercises, in.Profile),
	}

	return models.SessionScore{
		Total:       clamp(b.Sum(), 0, MaxTotal),
		Breakdown:   b,
		Suggestions: suggestionsFor(b),
		Confidence:  confidence(in.Exercises, in.History),
		Timestamp:   in.Now,
	}
}

func rotationScore(exercises []models.ExerciseDetail) int {
	score := MaxSubScore
	n := len(exercises)

	counts := make(map[string]int)
	largest := 0
	compound := false
	for _, ex := range exercises {
		counts[ex.BodyPart]++
		if counts[ex.BodyPart] > largest {
			largest = counts[ex.BodyPart]
		}
		if ex.IsCompound() {
			compound = true
		}
	}

	// Only the tightest matching concentration penalty applies.
	share := float64(largest) / float64(n)
	if share > heavyConcentration {
		score -= heavyConcentrationCost
	} else if share > mildConcentration {
		score -= mildConcentrationCost
	}

	if len(counts) >= diversityMinBodyParts && n >= diversityMinExercises {
		score += diversityBonus
	}
	if n > noCompoundMinExercises && !compound {
		score -= noCompoundCost
	}

	return clamp(score, 0, MaxSubScore)
}

// recoveryScore matches history on exercise id only, never on muscle overlap.
func recoveryScore(exercises []models.ExerciseDetail, h history.History, now time.Time) int {
	if len(h) == 0 {
		return neutralSubScore
	}

	score := MaxSubScore
	for _, ex := range exercises {
		last, ok := h.LastPerformed(ex.ExerciseID)
		if !ok {
			continue
		}
		hours := now.Sub(last).Hours()
		switch {
		case hours < recoveryVeryRecent:
			score -= recoveryVeryRecentCost
		case hours < recoveryRecent:
			score -= recoveryRecentCost
		case hours > recoveryStale:
			score -= recoveryStaleCost
		}
	}
	return clamp(score, 0, MaxSubScore)
}

func progressionScore(exercises []models.ExerciseDetail, h history.History) int {
	if h.Completed() < progressionMinWorkouts {
		return neutralSubScore
	}

	score := MaxSubScore
	for _, ex := range exercises {
		if ex.PredictedWeight == nil {
			continue
		}
		sets := h.Sets(ex.ExerciseID)
		if len(sets) == 0 {
			continue
		}
		last := sets[len(sets)-1].WeightKg
		if last <= 0 {
			continue
		}

		change := (*ex.PredictedWeight - last) / last
		switch {
		case change > progressionBigJump:
			score -= progressionBigJumpCost
		case change > progressionJump:
			score -= progressionJumpCost
		case change < progressionDrop:
			score -= progressionDropCost
		}
	}
	return clamp(score, 0, MaxSubScore)
}

func adherenceScore(exercises []models.ExerciseDetail, profile models.UserProfile) int {
	score := MaxSubScore

	refs := make([]models.ExerciseRef, len(exercises))
	for i, ex := range exercises {
		refs[i] = ex.ExerciseRef
	}
	minutes := EstimateDuration(refs)
	switch {
	case minutes > longSession:
		score -= longSessionCost
	case minutes > mediumSession:
		score -= mediumSessionCost
	case minutes > shortOverrun:
		score -= shortOverrunCost
	}

	for _, ex := range exercises {
		if profile.IsFavorite(ex.ExerciseID) {
			score += favoriteBonus
		}
	}
	if profile.HasEquipment() {
		score += equipmentBonus
	}

	return clamp(score, 0, MaxSubScore)
}

// EstimateDuration returns the session length in minutes: 2.5 minutes of work
// per set plus the prescribed rest after every set.
func EstimateDuration(refs []models.ExerciseRef) float64 {
	var minutes float64
	for _, r := range refs {
		sets := float64(r.Sets)
		minutes += sets*minutesPerSet + sets*float64(r.RestSeconds)/60
	}
	return minutes
}

func confidence(exercises []models.ExerciseDetail, h history.History) float64 {
	c := baseConfidence
	switch completed := h.Completed(); {
	case completed > richHistoryWorkouts:
		c += richHistoryBonus
	case completed > someHistoryWorkouts:
		c += someHistoryBonus
	}

	known := 0
	for _, ex := range exercises {
		if ex.Known() {
			known++
		}
	}
	c += knownBodyPartWeight * float64(known) / float64(len(exercises))

	c = math.Min(c, maxConfidence)
	return math.Round(c*100) / 100
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
