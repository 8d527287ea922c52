// Package ordering sequences the exercises of a session so that compound,
// fresh and demanding movements come first.
package ordering

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/meltforce/repplan/internal/catalog"
	"github.com/meltforce/repplan/internal/history"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/scoring"
)

// Priority weights.
const (
	compoundWeight     = 10
	staleHours         = 72
	staleWeight        = 8
	restedHours        = 48
	restedWeight       = 5
	neverPerformed     = 168
	advancedWeight     = 6
	intermediateWeight = 3
)

// Order bonus applied by RecalculateAfterReorder.
const (
	leadPositions     = 3
	leadCompoundBonus = 2
)

// Ranked is an exercise with the priority that placed it.
type Ranked struct {
	Exercise models.ExerciseDetail `json:"exercise"`
	Priority int                   `json:"priority"`
}

// Orderer reorders session exercises by priority.
type Orderer struct {
	catalog *catalog.Resolver
	history *history.Window
	scorer  *scoring.Scorer
	log     *slog.Logger
	now     func() time.Time
}

// NewOrderer creates an Orderer. The scorer is used by RecalculateAfterReorder.
func NewOrderer(cat *catalog.Resolver, hist *history.Window, scorer *scoring.Scorer, log *slog.Logger) *Orderer {
	return &Orderer{catalog: cat, history: hist, scorer: scorer, log: log, now: time.Now}
}

// WithClock replaces the orderer's clock. Used by tests.
func (o *Orderer) WithClock(now func() time.Time) *Orderer {
	o.now = now
	return o
}

// Reorder returns refs sorted by descending priority. It is best effort: if
// the catalog cannot be loaded or anything panics, the input order is kept.
func (o *Orderer) Reorder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) []models.ExerciseDetail {
	ranked := o.Rank(ctx, refs, sc)
	out := make([]models.ExerciseDetail, len(ranked))
	for i, r := range ranked {
		out[i] = r.Exercise
	}
	return out
}

// Rank is Reorder with the computed priorities attached. When ranking fails
// every priority is zero and the input order is kept.
func (o *Orderer) Rank(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) (out []Ranked) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("ordering panicked, keeping input order", "user_id", sc.UserID, "panic", r)
			out = unranked(catalog.Enrich(nil, refs))
		}
	}()

	details, err := o.catalog.Resolve(ctx, sc.UserID, refs)
	if err != nil {
		return unranked(details)
	}
	// A failed history fetch leaves every exercise at the never-performed default.
	h, _ := o.history.Fetch(ctx, sc.UserID)
	return Sort(details, h, o.now())
}

// Sort ranks details by priority, highest first. Ties keep their input order.
func Sort(details []models.ExerciseDetail, h history.History, now time.Time) []Ranked {
	ranked := make([]Ranked, len(details))
	for i, d := range details {
		ranked[i] = Ranked{Exercise: d, Priority: Priority(d, h, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})
	return ranked
}

// Priority scores how early an exercise should be performed.
func Priority(d models.ExerciseDetail, h history.History, now time.Time) int {
	p := 0
	if d.IsCompound() {
		p += compoundWeight
	}

	hours := h.HoursSince(d.ExerciseID, now, neverPerformed)
	if hours > staleHours {
		p += staleWeight
	} else if hours > restedHours {
		p += restedWeight
	}

	switch d.Difficulty {
	case models.DifficultyAdvanced:
		p += advancedWeight
	case models.DifficultyIntermediate:
		p += intermediateWeight
	}
	return p
}

// RecalculateAfterReorder scores refs in the given order and adds the order
// bonus for compound exercises in the leading positions. Only the total
// changes; the breakdown is the plain session score.
func (o *Orderer) RecalculateAfterReorder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result {
	res := o.scorer.Score(ctx, refs, sc)
	if len(refs) == 0 {
		return res
	}
	res.Score.Total = max(0, min(res.Score.Total+OrderBonus(res.Exercises), scoring.MaxTotal))
	return res
}

// OrderBonus returns the bonus for compound exercises among the first positions.
func OrderBonus(details []models.ExerciseDetail) int {
	bonus := 0
	for i, d := range details {
		if i >= leadPositions {
			break
		}
		if d.IsCompound() {
			bonus += leadCompoundBonus
		}
	}
	return bonus
}

func unranked(details []models.ExerciseDetail) []Ranked {
	out := make([]Ranked, len(details))
	for i, d := range details {
		out[i] = Ranked{Exercise: d}
	}
	return out
}
