// Package catalog resolves raw exercise references into enriched records.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meltforce/repplan/internal/models"
)

// Source provides the exercise catalog for a user.
type Source interface {
	ExerciseCatalog(ctx context.Context, userID int) ([]models.CatalogEntry, error)
}

// Resolver enriches exercise references with catalog data.
type Resolver struct {
	src Source
	log *slog.Logger
}

// NewResolver creates a Resolver backed by src.
func NewResolver(src Source, log *slog.Logger) *Resolver {
	return &Resolver{src: src, log: log}
}

// Resolve fetches the catalog once and enriches refs in input order.
// When the catalog cannot be fetched every ref resolves to an unknown
// placeholder and the fetch error is returned alongside the placeholders.
func (r *Resolver) Resolve(ctx context.Context, userID int, refs []models.ExerciseRef) ([]models.ExerciseDetail, error) {
	entries, err := r.src.ExerciseCatalog(ctx, userID)
	if err != nil {
		r.log.Warn("exercise catalog unavailable", "user_id", userID, "error", err)
		return Enrich(nil, refs), fmt.Errorf("fetching exercise catalog: %w", err)
	}
	return Enrich(entries, refs), nil
}

// Enrich joins refs with catalog entries by exercise id. Unknown ids become
// placeholders with body part "unknown".
func Enrich(entries []models.CatalogEntry, refs []models.ExerciseRef) []models.ExerciseDetail {
	byID := make(map[int]models.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	details := make([]models.ExerciseDetail, len(refs))
	for i, ref := range refs {
		e, ok := byID[ref.ExerciseID]
		if !ok {
			details[i] = models.UnknownDetail(ref)
			continue
		}
		details[i] = detailFrom(ref, e)
	}
	return details
}

func detailFrom(ref models.ExerciseRef, e models.CatalogEntry) models.ExerciseDetail {
	d := models.ExerciseDetail{
		ExerciseRef:  ref,
		Name:         e.Name,
		BodyPart:     e.BodyPart,
		MuscleGroups: append([]string(nil), e.MuscleGroups...),
		Difficulty:   e.Difficulty,
		ExerciseType: e.ExerciseType,
	}
	if d.BodyPart == "" {
		d.BodyPart = models.UnknownBodyPart
	}
	if d.Difficulty == "" {
		d.Difficulty = models.DifficultyBeginner
	}
	if d.ExerciseType == "" {
		d.ExerciseType = models.ExerciseTypeUnknown
	}
	if d.MuscleGroups == nil {
		d.MuscleGroups = []string{}
	}
	return d
}
