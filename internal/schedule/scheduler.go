// Package schedule manages a user's rolling window of planned training weeks.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/scoring"
)

var (
	ErrDayFull          = errors.New("day is at capacity")
	ErrInvalidOrder     = errors.New("invalid exercise order")
	ErrSessionNotFound  = errors.New("session not found")
	ErrExerciseNotFound = errors.New("exercise not in session")
	ErrNoPendingMove    = errors.New("no pending move for session")
	ErrMoveRejected     = errors.New("move rejected by backend")
)

// Planner is the planning part of the backend.
type Planner interface {
	WeeklyPlanning(ctx context.Context, userID int, weekStart time.Time) (models.Week, error)
	MoveSession(ctx context.Context, sessionID uuid.UUID, newDate time.Time, force bool) (models.MoveResponse, error)
	UpdateSession(ctx context.Context, sessionID uuid.UUID, u models.SessionUpdate) error
	CreateSession(ctx context.Context, userID int, s models.NewSession) (models.PlannedSession, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ExerciseAlternatives(ctx context.Context, exerciseID int, muscleGroup string, userID int) ([]models.Alternative, error)
}

// Scorer rates a session.
type Scorer interface {
	Score(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result
}

// Orderer sequences a session's exercises.
type Orderer interface {
	Reorder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) []models.ExerciseDetail
	RecalculateAfterReorder(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result
}

// Recorder keeps the scores computed for planned sessions.
type Recorder interface {
	Record(ctx context.Context, userID int, sessionID uuid.UUID, score models.SessionScore) error
}

// MoveResult is the outcome of a move. When RequiresConfirmation is set the
// move was not applied and waits for ConfirmMove or CancelMove.
type MoveResult struct {
	Applied              bool                  `json:"applied"`
	RequiresConfirmation bool                  `json:"requires_confirmation"`
	Warnings             []string              `json:"warnings"`
	Session              models.PlannedSession `json:"session"`
}

// Scheduler owns the week cache of one user. All methods are safe for
// concurrent use; operations are serialized including their backend calls.
type Scheduler struct {
	mu       sync.Mutex
	userID   int
	api      Planner
	scorer   Scorer
	orderer  Orderer
	recorder Recorder
	opts     Options
	log      *slog.Logger
	now      func() time.Time

	weeks     map[string]*models.Week
	start     time.Time // Monday of the first week in the window
	following bool      // window tracks today
	pending   map[uuid.UUID]time.Time
}

// New creates a Scheduler for userID with its window around today.
func New(userID int, api Planner, scorer Scorer, orderer Orderer, opts Options, log *slog.Logger) (*Scheduler, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	s := &Scheduler{
		userID:    userID,
		api:       api,
		scorer:    scorer,
		orderer:   orderer,
		opts:      opts,
		log:       log.With("user_id", userID),
		now:       time.Now,
		weeks:     make(map[string]*models.Week),
		following: true,
		pending:   make(map[uuid.UUID]time.Time),
	}
	s.start = s.windowStart(s.now())
	return s, nil
}

// WithClock replaces the scheduler's clock and re-anchors the window. Used by tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.start = s.windowStart(now())
	return s
}

// WithRecorder stores every session score computed by the scheduler in r.
func (s *Scheduler) WithRecorder(r Recorder) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
	return s
}

func (s *Scheduler) windowStart(today time.Time) time.Time {
	return MondayOf(today).AddDate(0, 0, -7*s.opts.WeeksBefore)
}

func (s *Scheduler) sessionContext() models.SessionContext {
	return models.SessionContext{UserID: s.userID}
}

// WindowKeys returns the week keys of the current window in order.
func (s *Scheduler) WindowKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowKeys()
}

// FocusKey returns the key of the week the window is anchored on: the
// current week, or the week last navigated to.
func (s *Scheduler) FocusKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WeekKey(s.start.AddDate(0, 0, 7*s.opts.WeeksBefore))
}

func (s *Scheduler) windowKeys() []string {
	keys := make([]string, s.opts.WeeksToShow)
	for i := range keys {
		keys[i] = WeekKey(s.start.AddDate(0, 0, 7*i))
	}
	return keys
}

// Weeks returns copies of every week in the window, loading missing weeks.
func (s *Scheduler) Weeks(ctx context.Context) []models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowWeeks(ctx)
}

func (s *Scheduler) windowWeeks(ctx context.Context) []models.Week {
	out := make([]models.Week, s.opts.WeeksToShow)
	for i := range out {
		out[i] = s.load(ctx, s.start.AddDate(0, 0, 7*i)).Clone()
	}
	return out
}

// Week returns a copy of the week named by key.
func (s *Scheduler) Week(ctx context.Context, key string) (models.Week, error) {
	monday, err := ParseWeekKey(key)
	if err != nil {
		return models.Week{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, monday).Clone(), nil
}

// CurrentWeek returns a copy of the week containing today.
func (s *Scheduler) CurrentWeek(ctx context.Context) models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, MondayOf(s.now())).Clone()
}

// load returns the cached week starting at monday, fetching it on first use.
// A failed fetch caches an empty week.
func (s *Scheduler) load(ctx context.Context, monday time.Time) *models.Week {
	key := WeekKey(monday)
	if w, ok := s.weeks[key]; ok {
		return w
	}

	var w models.Week
	payload, err := s.api.WeeklyPlanning(ctx, s.userID, monday)
	if err != nil {
		s.log.Warn("weekly planning unavailable, using empty week", "week", key, "error", err)
		w = EmptyWeek(monday)
	} else {
		var dropped int
		w, dropped = Normalize(payload, monday)
		if dropped > 0 {
			s.log.Warn("dropped sessions dated outside their week", "week", key, "count", dropped)
		}
	}
	s.weeks[key] = &w
	refreshWarnings(s.weeks)
	return &w
}

// Refresh drops the cache and reloads the window.
func (s *Scheduler) Refresh(ctx context.Context) []models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks = make(map[string]*models.Week)
	s.pending = make(map[uuid.UUID]time.Time)
	return s.windowWeeks(ctx)
}

// NavigateToWeek moves the window so that the week named by key sits where
// the current week normally does. The window stops following today.
func (s *Scheduler) NavigateToWeek(ctx context.Context, key string) ([]models.Week, error) {
	monday, err := ParseWeekKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = monday.AddDate(0, 0, -7*s.opts.WeeksBefore)
	s.following = MondayOf(s.now()).Equal(monday)
	return s.windowWeeks(ctx), nil
}

// GoToToday anchors the window on the current week again.
func (s *Scheduler) GoToToday(ctx context.Context) []models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.windowStart(s.now())
	s.following = true
	return s.windowWeeks(ctx)
}

// Roll re-anchors a window that follows today once today has moved into a
// new week. It reports whether the window changed.
func (s *Scheduler) Roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.following {
		return false
	}
	start := s.windowStart(s.now())
	if start.Equal(s.start) {
		return false
	}
	s.start = start
	return true
}

// location addresses a session inside the cache.
type location struct {
	week *models.Week
	day  int
	idx  int
}

func (l location) session() *models.PlannedSession {
	return &l.week.Days[l.day].Sessions[l.idx]
}

func (s *Scheduler) find(id uuid.UUID) (location, error) {
	for _, w := range s.weeks {
		for d := range w.Days {
			for i := range w.Days[d].Sessions {
				if w.Days[d].Sessions[i].ID == id {
					return location{week: w, day: d, idx: i}, nil
				}
			}
		}
	}
	return location{}, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
}

// locate finds a session, loading the window first if it is not cached.
func (s *Scheduler) locate(ctx context.Context, id uuid.UUID) (location, error) {
	if loc, err := s.find(id); err == nil {
		return loc, nil
	}
	s.windowWeeks(ctx)
	return s.find(id)
}

// Session returns a copy of a cached session.
func (s *Scheduler) Session(id uuid.UUID) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, err := s.find(id)
	if err != nil {
		return models.PlannedSession{}, err
	}
	return loc.session().Clone(), nil
}

// dayFor loads the week containing date and returns it with the day index.
func (s *Scheduler) dayFor(ctx context.Context, date time.Time) (*models.Week, int) {
	w := s.load(ctx, MondayOf(date))
	idx, _ := dayIndex(*w, date)
	return w, idx
}

func (s *Scheduler) checkCapacity(w *models.Week, day int) error {
	if n := len(w.Days[day].Sessions); n >= s.opts.MaxSessionsPerDay {
		return fmt.Errorf("%s has %d of %d sessions: %w",
			w.Days[day].Date.Format(models.DateFormat), n, s.opts.MaxSessionsPerDay, ErrDayFull)
	}
	return nil
}

// CreateSession scores refs and plans them as a new session on date.
func (s *Scheduler) CreateSession(ctx context.Context, date time.Time, refs []models.ExerciseRef) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date = DateOf(date)
	w, day := s.dayFor(ctx, date)
	if err := s.checkCapacity(w, day); err != nil {
		return models.PlannedSession{}, err
	}

	refs = normalizeRefs(refs)
	res := s.scorer.Score(ctx, refs, s.sessionContext())
	ns := models.NewSession{
		PlannedDate:       date,
		Exercises:         refs,
		EstimatedDuration: estimatedMinutes(refs),
		PrimaryMuscles:    primaryMuscles(res.Exercises),
		PredictedQuality:  res.Score.Total,
		Status:            models.SessionPlanned,
	}

	created, err := s.api.CreateSession(ctx, s.userID, ns)
	if err != nil {
		return models.PlannedSession{}, fmt.Errorf("creating session: %w", err)
	}
	if created.ID == uuid.Nil {
		return models.PlannedSession{}, fmt.Errorf("creating session: backend returned no id")
	}

	sess := models.PlannedSession{
		ID:                    created.ID,
		Date:                  date,
		Exercises:             ns.Exercises,
		EstimatedDuration:     ns.EstimatedDuration,
		PrimaryMuscles:        ns.PrimaryMuscles,
		PredictedQualityScore: ns.PredictedQuality,
		Status:                ns.Status,
	}
	w.Days[day].Sessions = append(w.Days[day].Sessions, sess)
	refreshWarnings(s.weeks)
	s.record(ctx, sess.ID, res.Score)
	return sess.Clone(), nil
}

// DeleteSession removes a session, restoring it if the backend refuses.
func (s *Scheduler) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return err
	}
	snapshot := loc.week.Clone()
	sessions := loc.week.Days[loc.day].Sessions
	loc.week.Days[loc.day].Sessions = append(sessions[:loc.idx:loc.idx], sessions[loc.idx+1:]...)
	refreshWarnings(s.weeks)

	if err := s.api.DeleteSession(ctx, id); err != nil {
		*loc.week = snapshot
		refreshWarnings(s.weeks)
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	delete(s.pending, id)
	return nil
}

// MoveSession moves a session to date. A full target day is rejected before
// the backend is asked. If the backend answers with warnings only, the move
// is rolled back and kept pending until ConfirmMove or CancelMove.
func (s *Scheduler) MoveSession(ctx context.Context, id uuid.UUID, date time.Time) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(ctx, id, DateOf(date), false)
}

// ConfirmMove retries the pending move of a session with force.
func (s *Scheduler) ConfirmMove(ctx context.Context, id uuid.UUID) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, ok := s.pending[id]
	if !ok {
		return MoveResult{}, fmt.Errorf("session %s: %w", id, ErrNoPendingMove)
	}
	return s.move(ctx, id, date, true)
}

// CancelMove discards the pending move of a session.
func (s *Scheduler) CancelMove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrNoPendingMove)
	}
	delete(s.pending, id)
	return nil
}

// PendingMove returns the target date of a session's pending move.
func (s *Scheduler) PendingMove(id uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date, ok := s.pending[id]
	return date, ok
}

func (s *Scheduler) move(ctx context.Context, id uuid.UUID, date time.Time, force bool) (MoveResult, error) {
	from, err := s.locate(ctx, id)
	if err != nil {
		return MoveResult{}, err
	}
	if from.session().Date.Equal(date) {
		delete(s.pending, id)
		return MoveResult{Applied: true, Warnings: []string{}, Session: from.session().Clone()}, nil
	}

	to, day := s.dayFor(ctx, date)
	if err := s.checkCapacity(to, day); err != nil {
		return MoveResult{}, err
	}

	fromSnapshot, toSnapshot := from.week.Clone(), to.Clone()
	rollback := func() {
		*from.week = fromSnapshot
		*to = toSnapshot
		refreshWarnings(s.weeks)
	}

	// Optimistic move.
	sess := from.session().Clone()
	sessions := from.week.Days[from.day].Sessions
	from.week.Days[from.day].Sessions = append(sessions[:from.idx:from.idx], sessions[from.idx+1:]...)
	sess.Date = to.Days[day].Date
	to.Days[day].Sessions = append(to.Days[day].Sessions, sess)
	refreshWarnings(s.weeks)

	resp, err := s.api.MoveSession(ctx, id, date, force)
	if err != nil {
		rollback()
		return MoveResult{}, fmt.Errorf("moving session %s: %w", id, err)
	}

	warnings := resp.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	switch {
	case resp.Succeeded():
		delete(s.pending, id)
		return MoveResult{Applied: true, Warnings: warnings, Session: sess.Clone()}, nil
	case len(resp.Warnings) > 0 || resp.RequiresConfirmation:
		rollback()
		s.pending[id] = date
		s.log.Info("move needs confirmation", "session_id", id, "date", date.Format(models.DateFormat), "warnings", len(warnings))
		return MoveResult{RequiresConfirmation: true, Warnings: warnings, Session: from.session().Clone()}, nil
	default:
		rollback()
		return MoveResult{}, fmt.Errorf("moving session %s: %w", id, ErrMoveRejected)
	}
}

// ReorderExercises rearranges a session's exercises. order lists the current
// positions in their new sequence and must be a permutation of them.
func (s *Scheduler) ReorderExercises(ctx context.Context, id uuid.UUID, order []int) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return models.PlannedSession{}, err
	}
	current := loc.session().Exercises
	if len(order) != len(current) {
		return models.PlannedSession{}, fmt.Errorf("%d positions for %d exercises: %w", len(order), len(current), ErrInvalidOrder)
	}
	used := make([]bool, len(current))
	refs := make([]models.ExerciseRef, len(order))
	for i, pos := range order {
		if pos < 0 || pos >= len(current) || used[pos] {
			return models.PlannedSession{}, fmt.Errorf("position %d: %w", pos, ErrInvalidOrder)
		}
		used[pos] = true
		refs[i] = current[pos]
	}
	return s.updateExercises(ctx, loc, refs, true)
}

// OptimizeSession puts a session's exercises into priority order.
func (s *Scheduler) OptimizeSession(ctx context.Context, id uuid.UUID) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return models.PlannedSession{}, err
	}
	current := loc.session().Exercises
	details := s.orderer.Reorder(ctx, current, s.sessionContext())
	refs := make([]models.ExerciseRef, len(details))
	for i, d := range details {
		refs[i] = d.ExerciseRef
	}
	return s.updateExercises(ctx, loc, refs, true)
}

// RemoveExercise deletes the first entry of exerciseID from a session.
func (s *Scheduler) RemoveExercise(ctx context.Context, id uuid.UUID, exerciseID int) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return models.PlannedSession{}, err
	}
	current := loc.session().Exercises
	pos, err := indexOf(current, exerciseID)
	if err != nil {
		return models.PlannedSession{}, err
	}
	refs := make([]models.ExerciseRef, 0, len(current)-1)
	refs = append(refs, current[:pos]...)
	refs = append(refs, current[pos+1:]...)
	return s.updateExercises(ctx, loc, refs, false)
}

// PerformSwap replaces the first entry of oldID with replacementID. The
// replacement keeps the prescription of the swapped entry but not its
// predicted weight.
func (s *Scheduler) PerformSwap(ctx context.Context, id uuid.UUID, oldID, replacementID int) (models.PlannedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return models.PlannedSession{}, err
	}
	current := loc.session().Exercises
	pos, err := indexOf(current, oldID)
	if err != nil {
		return models.PlannedSession{}, err
	}
	refs := loc.session().Clone().Exercises
	swapped := refs[pos]
	swapped.ExerciseID = replacementID
	swapped.PredictedWeight = nil
	refs[pos] = swapped
	return s.updateExercises(ctx, loc, refs, false)
}

// Alternatives lists replacement candidates for an exercise of a session.
func (s *Scheduler) Alternatives(ctx context.Context, id uuid.UUID, exerciseID int, muscleGroup string) ([]models.Alternative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := indexOf(loc.session().Exercises, exerciseID); err != nil {
		return nil, err
	}
	if muscleGroup == "" && len(loc.session().PrimaryMuscles) > 0 {
		muscleGroup = loc.session().PrimaryMuscles[0]
	}
	alts, err := s.api.ExerciseAlternatives(ctx, exerciseID, muscleGroup, s.userID)
	if err != nil {
		return nil, fmt.Errorf("listing alternatives for exercise %d: %w", exerciseID, err)
	}
	return alts, nil
}

// updateExercises rescores a session with refs, applies the result and
// persists it. On a backend error the week is restored.
func (s *Scheduler) updateExercises(ctx context.Context, loc location, refs []models.ExerciseRef, reordered bool) (models.PlannedSession, error) {
	refs = normalizeRefs(refs)

	var res scoring.Result
	if reordered {
		res = s.orderer.RecalculateAfterReorder(ctx, refs, s.sessionContext())
	} else {
		res = s.scorer.Score(ctx, refs, s.sessionContext())
	}

	snapshot := loc.week.Clone()
	sess := loc.session()
	id := sess.ID
	sess.Exercises = refs
	sess.EstimatedDuration = estimatedMinutes(refs)
	if m := primaryMuscles(res.Exercises); len(m) > 0 || len(refs) == 0 {
		sess.PrimaryMuscles = m
	}
	sess.PredictedQualityScore = res.Score.Total
	refreshWarnings(s.weeks)

	duration, quality := sess.EstimatedDuration, sess.PredictedQualityScore
	muscles := sess.PrimaryMuscles
	if muscles == nil {
		muscles = []string{}
	}
	update := models.SessionUpdate{
		Exercises:         refs,
		EstimatedDuration: &duration,
		PrimaryMuscles:    muscles,
		PredictedQuality:  &quality,
	}
	if err := s.api.UpdateSession(ctx, id, update); err != nil {
		*loc.week = snapshot
		refreshWarnings(s.weeks)
		return models.PlannedSession{}, fmt.Errorf("updating session %s: %w", id, err)
	}
	s.record(ctx, id, res.Score)
	return sess.Clone(), nil
}

func (s *Scheduler) record(ctx context.Context, id uuid.UUID, score models.SessionScore) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, s.userID, id, score); err != nil {
		s.log.Warn("recording session score", "session_id", id, "error", err)
	}
}

func indexOf(refs []models.ExerciseRef, exerciseID int) (int, error) {
	for i, r := range refs {
		if r.ExerciseID == exerciseID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("exercise %d: %w", exerciseID, ErrExerciseNotFound)
}

func normalizeRefs(refs []models.ExerciseRef) []models.ExerciseRef {
	out := make([]models.ExerciseRef, len(refs))
	for i, r := range refs {
		out[i] = r.WithDefaults()
	}
	return out
}

func estimatedMinutes(refs []models.ExerciseRef) int {
	return int(math.Round(scoring.EstimateDuration(refs)))
}
