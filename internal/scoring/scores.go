package scoring

import (
	"time"

	"github.com/meltforce/repplan/internal/models"
)

// Suggestion texts, in the order their rules are evaluated.
const (
	SuggestNoExercises = "no exercises selected"
	SuggestDiversify   = "Most exercises hit the same body part; add movements for other muscle groups."
	SuggestDefer       = "Some exercises were trained recently and need more rest; consider moving them to a later day."
	SuggestReduceLoad  = "Predicted weights jump well past your last logged sets; reduce the load."
	SuggestTrim        = "The session runs long; trim an exercise or shorten rest periods."
	SuggestWellRested  = "Good muscle rotation and fully recovered muscles for this session."
	SuggestBalanced    = "Session looks balanced and ready to go."
	SuggestDegraded    = "Score estimated in degraded mode because training data could not be loaded."
)

// Fixed scores for the degraded paths.
const (
	fallbackTotal      = 65
	fallbackConfidence = 0.4
)

// EmptyScore is the score of a session without exercises.
func EmptyScore(now time.Time) models.SessionScore {
	return models.SessionScore{
		Total:       0,
		Suggestions: []string{SuggestNoExercises},
		Confidence:  0,
		Timestamp:   now,
	}
}

// FallbackScore is returned when none of the scoring inputs could be loaded.
func FallbackScore(now time.Time) models.SessionScore {
	return models.SessionScore{
		Total: fallbackTotal,
		Breakdown: models.Breakdown{
			MuscleRotation: 16,
			Recovery:       16,
			Progression:    16,
			Adherence:      17,
		},
		Suggestions: []string{SuggestDegraded},
		Confidence:  fallbackConfidence,
		Timestamp:   now,
	}
}

func suggestionsFor(b models.Breakdown) []string {
	var out []string
	if b.MuscleRotation < suggestionCutoff {
		out = append(out, SuggestDiversify)
	}
	if b.Recovery < suggestionCutoff {
		out = append(out, SuggestDefer)
	}
	if b.Progression < suggestionCutoff {
		out = append(out, SuggestReduceLoad)
	}
	if b.Adherence < suggestionCutoff {
		out = append(out, SuggestTrim)
	}
	if b.MuscleRotation >= positiveNoteCutoff && b.Recovery >= positiveNoteCutoff {
		out = append(out, SuggestWellRested)
	}
	if len(out) == 0 {
		return []string{SuggestBalanced}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
