// Package scoring rates candidate training sessions on a 0-100 scale.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/repplan/internal/catalog"
	"github.com/meltforce/repplan/internal/history"
	"github.com/meltforce/repplan/internal/models"
	"golang.org/x/sync/errgroup"
)

// ProfileSource provides a user's planning profile.
type ProfileSource interface {
	UserProfile(ctx context.Context, userID int) (models.UserProfile, error)
}

// Result is the outcome of a scoring call. Score is always usable; every
// input that had to be substituted with a default is listed in Degraded.
type Result struct {
	Score     models.SessionScore     `json:"score"`
	Exercises []models.ExerciseDetail `json:"exercises"`
	Degraded  []error                 `json:"-"`
}

// Scorer computes session scores from the catalog, recent history and the
// user profile.
type Scorer struct {
	catalog  *catalog.Resolver
	history  *history.Window
	profiles ProfileSource
	log      *slog.Logger
	now      func() time.Time
}

// NewScorer creates a Scorer.
func NewScorer(cat *catalog.Resolver, hist *history.Window, profiles ProfileSource, log *slog.Logger) *Scorer {
	return &Scorer{catalog: cat, history: hist, profiles: profiles, log: log, now: time.Now}
}

// WithClock replaces the scorer's clock. Used by tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score rates refs for the user in sc. It never fails: fetch errors are
// replaced by safe defaults, and when every fetch fails or the pipeline
// panics the result carries FallbackScore.
func (s *Scorer) Score(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) (res Result) {
	now := s.now()
	if len(refs) == 0 {
		return Result{Score: EmptyScore(now), Exercises: []models.ExerciseDetail{}}
	}

	normalized := make([]models.ExerciseRef, len(refs))
	for i, r := range refs {
		normalized[i] = r.WithDefaults()
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scoring session: panic: %v", r)
			s.log.Error("scoring pipeline panicked", "user_id", sc.UserID, "error", err)
			res = s.fallback(now, normalized, append(res.Degraded, err))
		}
	}()

	in, degraded, err := s.load(ctx, sc.UserID, normalized)
	if err != nil {
		s.log.Error("scoring input fetch panicked", "user_id", sc.UserID, "error", err)
		return s.fallback(now, normalized, append(degraded, err))
	}
	if len(degraded) == inputCount {
		s.log.Warn("all scoring inputs unavailable, using fallback score",
			"user_id", sc.UserID, "error", errors.Join(degraded...))
		return s.fallback(now, normalized, degraded)
	}

	in.Now = now
	return Result{Score: Compute(in), Exercises: in.Exercises, Degraded: degraded}
}

const inputCount = 3

// load runs the three independent read-only fetches concurrently. Fetch
// errors are returned as degraded inputs; a non-nil error means a fetch panicked.
func (s *Scorer) load(ctx context.Context, userID int, refs []models.ExerciseRef) (Inputs, []error, error) {
	var (
		in   Inputs
		errs [inputCount]error
		g    errgroup.Group
	)

	g.Go(guard(func() error {
		in.Exercises, errs[0] = s.catalog.Resolve(ctx, userID, refs)
		return nil
	}))
	g.Go(guard(func() error {
		in.History, errs[1] = s.history.Fetch(ctx, userID)
		return nil
	}))
	g.Go(guard(func() error {
		p, err := s.profiles.UserProfile(ctx, userID)
		if err != nil {
			s.log.Warn("user profile unavailable", "user_id", userID, "error", err)
			errs[2] = fmt.Errorf("fetching user profile: %w", err)
			return nil
		}
		in.Profile = p
		return nil
	}))

	panicErr := g.Wait()

	var degraded []error
	for _, err := range errs {
		if err != nil {
			degraded = append(degraded, err)
		}
	}
	if panicErr != nil {
		return Inputs{}, degraded, panicErr
	}
	if in.Exercises == nil {
		in.Exercises = catalog.Enrich(nil, refs)
	}
	return in, degraded, nil
}

func (s *Scorer) fallback(now time.Time, refs []models.ExerciseRef, degraded []error) Result {
	return Result{
		Score:     FallbackScore(now),
		Exercises: catalog.Enrich(nil, refs),
		Degraded:  degraded,
	}
}

// guard converts a panic inside fn into an error.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("loading scoring inputs: panic: %v", r)
			}
		}()
		return fn()
	}
}
