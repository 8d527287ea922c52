package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/schedule"
	"github.com/meltforce/repplan/internal/storage"
)

const testKey = "test-key"

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory Store.
type memStore struct {
	mu           sync.Mutex
	catalog      []models.CatalogEntry
	sessions     map[uuid.UUID]models.PlannedSession
	owners       map[uuid.UUID]int
	workouts     map[int][]models.WorkoutRecord
	profiles     map[int]models.UserProfile
	users        map[string]int
	moveWarnings []string
	deleteErr    error
}

func newMemStore() *memStore {
	return &memStore{
		catalog: []models.CatalogEntry{
			{ID: 1, Name: "Bench Press", BodyPart: "chest", MuscleGroups: []string{"chest"},
				Difficulty: models.DifficultyIntermediate, ExerciseType: models.ExerciseTypeCompound},
			{ID: 2, Name: "Squat", BodyPart: "legs", MuscleGroups: []string{"quads"},
				Difficulty: models.DifficultyAdvanced, ExerciseType: models.ExerciseTypeCompound},
			{ID: 3, Name: "Curl", BodyPart: "arms", MuscleGroups: []string{"biceps"},
				Difficulty: models.DifficultyBeginner, ExerciseType: models.ExerciseTypeIsolation},
		},
		sessions: make(map[uuid.UUID]models.PlannedSession),
		owners:   make(map[uuid.UUID]int),
		workouts: make(map[int][]models.WorkoutRecord),
		profiles: make(map[int]models.UserProfile),
		users:    make(map[string]int),
	}
}

func (m *memStore) ExerciseCatalog(context.Context, int) ([]models.CatalogEntry, error) {
	return m.catalog, nil
}

func (m *memStore) WorkoutHistory(_ context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.workouts[userID]
	return w[:min(len(w), limit)], nil
}

func (m *memStore) UserProfile(_ context.Context, userID int) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *memStore) WeeklyPlanning(_ context.Context, userID int, weekStart time.Time) (models.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	monday := schedule.MondayOf(weekStart)
	w := schedule.EmptyWeek(monday)
	for id, s := range m.sessions {
		i := int(s.Date.Sub(monday).Hours() / 24)
		if m.owners[id] != userID || i < 0 || i >= 7 {
			continue
		}
		w.Days[i].Sessions = append(w.Days[i].Sessions, s)
	}
	return w, nil
}

func (m *memStore) MoveSession(_ context.Context, id uuid.UUID, newDate time.Time, force bool) (models.MoveResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.MoveResponse{}, storage.ErrNotFound
	}
	if !force && len(m.moveWarnings) > 0 {
		return models.MoveResponse{Warnings: m.moveWarnings, RequiresConfirmation: true}, nil
	}
	s.Date = newDate
	m.sessions[id] = s
	ok = true
	return models.MoveResponse{Success: &ok}, nil
}

func (m *memStore) UpdateSession(_ context.Context, id uuid.UUID, u models.SessionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.Exercises = u.Exercises
	if u.EstimatedDuration != nil {
		s.EstimatedDuration = *u.EstimatedDuration
	}
	if u.PrimaryMuscles != nil {
		s.PrimaryMuscles = u.PrimaryMuscles
	}
	if u.PredictedQuality != nil {
		s.PredictedQualityScore = *u.PredictedQuality
	}
	m.sessions[id] = s
	return nil
}

func (m *memStore) CreateSession(_ context.Context, userID int, ns models.NewSession) (models.PlannedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.PlannedSession{
		ID:                    uuid.New(),
		Date:                  schedule.DateOf(ns.PlannedDate),
		Exercises:             ns.Exercises,
		EstimatedDuration:     ns.EstimatedDuration,
		PrimaryMuscles:        ns.PrimaryMuscles,
		PredictedQualityScore: ns.PredictedQuality,
		Status:                models.SessionPlanned,
	}
	m.sessions[s.ID] = s
	m.owners[s.ID] = userID
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.sessions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memStore) ExerciseAlternatives(_ context.Context, exerciseID int, muscleGroup string, userID int) ([]models.Alternative, error) {
	var alts []models.Alternative
	for _, e := range m.catalog {
		if e.ID != exerciseID && e.BodyPart == muscleGroup {
			alts = append(alts, models.Alternative{Exercise: e, MatchScore: 0.5, Reason: "targets " + muscleGroup})
		}
	}
	return alts, nil
}

func (m *memStore) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	m.users[login] = len(m.users) + 10
	return m.users[login], nil
}

func (m *memStore) InsertWorkout(_ context.Context, userID int, w models.WorkoutRecord) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.workouts[userID] = append(m.workouts[userID], w)
	return w.ID, nil
}

func (m *memStore) SaveUserProfile(_ context.Context, userID int, p models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
	return nil
}

// locked runs fn while holding the store lock.
func (m *memStore) locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func newTestServer(t *testing.T, store *memStore) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(store, nil, engine.DefaultOptions(), log)
	if err != nil {
		t.Fatal(err)
	}
	eng.WithClock(func() time.Time { return now })
	ts := httptest.NewServer(New(eng, store, testKey, log))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

// TestBackendContractRoundTrip verifies the REST client and the backend routes agree on the wire format.
func TestBackendContractRoundTrip(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, store)
	client := backend.NewClient(ts.URL, testKey)
	ctx := context.Background()

	catalog, err := client.ExerciseCatalog(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(store.catalog, catalog); diff != "" {
		t.Errorf("ExerciseCatalog() mismatch (-want +got):\n%s", diff)
	}

	created, err := client.CreateSession(ctx, 1, models.NewSession{
		PlannedDate: now, Exercises: []models.ExerciseRef{{ExerciseID: 1, Sets: 3}}, PrimaryMuscles: []string{"chest"},
	})
	if err != nil {
		t.Fatal(err)
	}
	week, err := client.WeeklyPlanning(ctx, 1, schedule.MondayOf(now))
	if err != nil {
		t.Fatal(err)
	}
	if got := week.Days[3].Sessions; len(got) != 1 || got[0].ID != created.ID {
		t.Errorf("thursday sessions = %+v, want the created session", got)
	}

	quality := 77
	err = client.UpdateSession(ctx, created.ID, models.SessionUpdate{
		Exercises: []models.ExerciseRef{{ExerciseID: 2}}, PrimaryMuscles: []string{"quads"}, PredictedQuality: &quality,
	})
	if err != nil {
		t.Fatal(err)
	}
	var stored models.PlannedSession
	store.locked(func() { stored = store.sessions[created.ID] })
	if stored.PredictedQualityScore != 77 || stored.EstimatedDuration != created.EstimatedDuration {
		t.Errorf("stored quality/duration = %d/%d, want 77/%d", stored.PredictedQualityScore, stored.EstimatedDuration, created.EstimatedDuration)
	}
	if diff := cmp.Diff([]string{"quads"}, stored.PrimaryMuscles); diff != "" {
		t.Errorf("stored muscles mismatch (-want +got):\n%s", diff)
	}
	store.locked(func() { store.moveWarnings = []string{"chest trained the day before"} })
	resp, err := client.MoveSession(ctx, created.ID, now.AddDate(0, 0, 1), false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded() || !resp.RequiresConfirmation {
		t.Errorf("move = %+v, want a soft block", resp)
	}
	if resp, err = client.MoveSession(ctx, created.ID, now.AddDate(0, 0, 1), true); err != nil || !resp.Succeeded() {
		t.Errorf("forced move = %+v, %v, want success", resp, err)
	}

	alts, err := client.ExerciseAlternatives(ctx, 1, "legs", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(alts) != 1 || alts[0].Exercise.ID != 2 {
		t.Errorf("alternatives = %+v, want squat", alts)
	}

	if err := client.DeleteSession(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	var se *backend.StatusError
	if err := client.DeleteSession(ctx, created.ID); !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("second delete error = %v, want 404", err)
	}
}

// TestBackendRoutesRequireAPIKey verifies the backend contract rejects missing and wrong keys.
func TestBackendRoutesRequireAPIKey(t *testing.T) {
	ts := newTestServer(t, newMemStore())

	resp, _ := do(t, ts, http.MethodGet, "/api/v1/users/1/exercises", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", resp.StatusCode)
	}
	if _, err := backend.NewClient(ts.URL, "wrong").ExerciseCatalog(context.Background(), 1); err == nil {
		t.Error("wrong key accepted")
	}
}

// TestWorkoutAndProfileWrites verifies workouts and profiles posted to the backend feed the engine.
func TestWorkoutAndProfileWrites(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, store)
	post := func(method, path string, body any) int {
		data, _ := json.Marshal(body)
		req, _ := http.NewRequest(method, ts.URL+path, bytes.NewReader(data))
		req.Header.Set("X-API-Key", testKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(http.MethodPost, "/api/v1/users/1/workouts", models.WorkoutRecord{CompletedAt: now.AddDate(0, 0, -1)}); code != http.StatusCreated {
		t.Errorf("POST workouts = %d, want 201", code)
	}
	var status models.WorkoutStatus
	store.locked(func() { status = store.workouts[1][0].Status })
	if status != models.WorkoutCompleted {
		t.Errorf("workout status = %q, want completed by default", status)
	}
	if code := post(http.MethodPut, "/api/v1/users/1/profile", models.UserProfile{FavoriteExercises: []int{3}}); code != http.StatusNoContent {
		t.Errorf("PUT profile = %d, want 204", code)
	}
	var profile models.UserProfile
	store.locked(func() { profile = store.profiles[1] })
	if !profile.IsFavorite(3) {
		t.Errorf("profile = %+v, want favorite 3", profile)
	}
}

// TestImportAlpha verifies an uploaded Alpha Progression export lands in the workout history.
func TestImportAlpha(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, store)
	csv := `"Push";"2026-10-13 18:00 h";"1:00 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 40 kg · 10 reps"
#;KG;REPS;RIR
1;80;6;1
2;82,5;6;0
"2. Cable Fly · Cable · 12 reps"
#;KG;REPS;RIR
1;15;12;1
`
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/users/1/workouts/import/alpha", strings.NewReader(csv))
	req.Header.Set("X-API-Key", testKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var res struct {
		WorkoutsImported int      `json:"workouts_imported"`
		SetsImported     int      `json:"sets_imported"`
		Unmatched        []string `json:"unmatched_exercises"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.WorkoutsImported != 1 || res.SetsImported != 2 {
		t.Errorf("imported = %d workouts / %d sets, want 1 / 2", res.WorkoutsImported, res.SetsImported)
	}
	if diff := cmp.Diff([]string{"Cable Fly"}, res.Unmatched); diff != "" {
		t.Errorf("unmatched mismatch (-want +got):\n%s", diff)
	}

	var history []models.WorkoutRecord
	store.locked(func() { history = store.workouts[1] })
	if len(history) != 1 || history[0].Sets[1].WeightKg != 82.5 {
		t.Errorf("history = %+v, want one workout ending at 82.5 kg", history)
	}
}

// TestScoreEndpoint verifies the engine score route returns a consistent score.
func TestScoreEndpoint(t *testing.T) {
	ts := newTestServer(t, newMemStore())

	resp, data := do(t, ts, http.MethodPost, "/api/v1/engine/score",
		map[string]any{"exercises": []models.ExerciseRef{{ExerciseID: 1}, {ExerciseID: 2}}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, data)
	}
	var got scoreResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Degraded {
		t.Error("degraded = true, want false")
	}
	if got.Score.Total != got.Score.Breakdown.Sum() || got.Score.Total <= 0 {
		t.Errorf("total = %d, breakdown %+v", got.Score.Total, got.Score.Breakdown)
	}
	if len(got.Exercises) != 2 || got.Exercises[0].Sets != models.DefaultSets {
		t.Errorf("exercises = %+v, want two with defaults", got.Exercises)
	}

	resp, _ = do(t, ts, http.MethodPost, "/api/v1/engine/score", "not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status for bad body = %d, want 400", resp.StatusCode)
	}
}

// TestScheduleFlow drives a session through create, soft-blocked move, confirmation and delete.
func TestScheduleFlow(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, store)

	resp, data := do(t, ts, http.MethodPost, "/api/v1/schedule/sessions",
		map[string]any{"date": "2026-10-16", "exercises": []models.ExerciseRef{{ExerciseID: 1}}})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", resp.StatusCode, data)
	}
	var created models.PlannedSession
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/schedule/sessions/" + created.ID.String()

	store.locked(func() { store.moveWarnings = []string{"chest trained the day before"} })
	resp, data = do(t, ts, http.MethodPost, base+"/move", map[string]string{"new_date": "2026-10-17"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("move status = %d, want 202: %s", resp.StatusCode, data)
	}
	resp, data = do(t, ts, http.MethodPost, base+"/confirm-move", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d, want 200: %s", resp.StatusCode, data)
	}
	var moved schedule.MoveResult
	if err := json.Unmarshal(data, &moved); err != nil {
		t.Fatal(err)
	}
	if !moved.Applied || moved.Session.Date.Format(models.DateFormat) != "2026-10-17" {
		t.Errorf("confirm = %+v, want applied on 2026-10-17", moved)
	}
	if resp, _ = do(t, ts, http.MethodDelete, base+"/pending-move", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("cancel after confirm = %d, want 404", resp.StatusCode)
	}

	resp, data = do(t, ts, http.MethodGet, "/api/v1/schedule", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule status = %d", resp.StatusCode)
	}
	var sched scheduleResponse
	if err := json.Unmarshal(data, &sched); err != nil {
		t.Fatal(err)
	}
	if sched.Focus != "2026-W42" || len(sched.Weeks) != 8 {
		t.Errorf("schedule focus %s with %d weeks, want 2026-W42 with 8", sched.Focus, len(sched.Weeks))
	}

	store.locked(func() { store.deleteErr = errors.New("database unavailable") })
	if resp, _ = do(t, ts, http.MethodDelete, base, nil); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("delete with backend failure = %d, want 502", resp.StatusCode)
	}
	store.locked(func() { store.deleteErr = nil })
	if resp, _ = do(t, ts, http.MethodDelete, base, nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", resp.StatusCode)
	}
}

// TestScheduleErrorStatuses verifies validation errors map to client statuses.
func TestScheduleErrorStatuses(t *testing.T) {
	ts := newTestServer(t, newMemStore())
	create := func() models.PlannedSession {
		resp, data := do(t, ts, http.MethodPost, "/api/v1/schedule/sessions",
			map[string]any{"date": "2026-10-20", "exercises": []models.ExerciseRef{{ExerciseID: 1}, {ExerciseID: 3}}})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d: %s", resp.StatusCode, data)
		}
		var s models.PlannedSession
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatal(err)
		}
		return s
	}
	s := create()
	create()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"full day", http.MethodPost, "/api/v1/schedule/sessions",
			map[string]any{"date": "2026-10-20", "exercises": []models.ExerciseRef{{ExerciseID: 2}}}, http.StatusConflict},
		{"bad date", http.MethodPost, "/api/v1/schedule/sessions", map[string]any{"date": "20.10.2026"}, http.StatusBadRequest},
		{"bad week key", http.MethodPost, "/api/v1/schedule/navigate", map[string]string{"week_key": "2025-W53"}, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/api/v1/schedule/sessions/" + uuid.NewString() + "/optimize", nil, http.StatusNotFound},
		{"bad session id", http.MethodPost, "/api/v1/schedule/sessions/nope/optimize", nil, http.StatusBadRequest},
		{"invalid order", http.MethodPut, "/api/v1/schedule/sessions/" + s.ID.String() + "/order",
			map[string][]int{"order": {0, 0}}, http.StatusBadRequest},
		{"exercise not in session", http.MethodDelete, "/api/v1/schedule/sessions/" + s.ID.String() + "/exercises/2", nil, http.StatusNotFound},
		{"no pending move", http.MethodPost, "/api/v1/schedule/sessions/" + s.ID.String() + "/confirm-move", nil, http.StatusNotFound},
		{"unknown week", http.MethodGet, "/api/v1/schedule/weeks/2026-W99", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, ts, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.want, data)
			}
		})
	}
}

// TestSwapSurvivesRefresh verifies a swap stores the new muscles and quality,
// so a reloaded week and the week score reflect the edited session.
func TestSwapSurvivesRefresh(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, store)
	resp, data := do(t, ts, http.MethodPost, "/api/v1/schedule/sessions",
		map[string]any{"date": "2026-10-16", "exercises": []models.ExerciseRef{{ExerciseID: 1}}})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var created models.PlannedSession
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/schedule/sessions/" + created.ID.String()

	resp, data = do(t, ts, http.MethodPost, base+"/swap", map[string]int{"old_exercise_id": 1, "new_exercise_id": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swap status = %d: %s", resp.StatusCode, data)
	}
	var swapped models.PlannedSession
	if err := json.Unmarshal(data, &swapped); err != nil {
		t.Fatal(err)
	}

	if resp, data = do(t, ts, http.MethodPost, "/api/v1/schedule/refresh", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", resp.StatusCode, data)
	}
	week, err := store.WeeklyPlanning(context.Background(), 1, now)
	if err != nil {
		t.Fatal(err)
	}
	reloaded := week.Days[4].Sessions
	if len(reloaded) != 1 {
		t.Fatalf("friday sessions = %d, want 1", len(reloaded))
	}
	if diff := cmp.Diff([]string{"legs"}, reloaded[0].PrimaryMuscles); diff != "" {
		t.Errorf("stored muscles mismatch (-want +got):\n%s", diff)
	}
	if reloaded[0].PredictedQualityScore != swapped.PredictedQualityScore {
		t.Errorf("stored quality = %d, want %d", reloaded[0].PredictedQualityScore, swapped.PredictedQualityScore)
	}
	if reloaded[0].EstimatedDuration != swapped.EstimatedDuration {
		t.Errorf("stored duration = %d, want %d", reloaded[0].EstimatedDuration, swapped.EstimatedDuration)
	}
}

// TestSessionEditing verifies reorder, swap and alternatives on a stored session.
func TestSessionEditing(t *testing.T) {
	ts := newTestServer(t, newMemStore())
	resp, data := do(t, ts, http.MethodPost, "/api/v1/schedule/sessions",
		map[string]any{"date": "2026-10-16", "exercises": []models.ExerciseRef{{ExerciseID: 3}, {ExerciseID: 1}}})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var s models.PlannedSession
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/schedule/sessions/" + s.ID.String()

	resp, data = do(t, ts, http.MethodPut, base+"/order", map[string][]int{"order": {1, 0}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d: %s", resp.StatusCode, data)
	}
	var updated models.PlannedSession
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Exercises[0].ExerciseID != 1 || updated.Exercises[1].ExerciseID != 3 {
		t.Errorf("order = %+v, want [1 3]", updated.Exercises)
	}

	resp, data = do(t, ts, http.MethodPost, base+"/swap", map[string]int{"old_exercise_id": 3, "new_exercise_id": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swap status = %d: %s", resp.StatusCode, data)
	}

	resp, data = do(t, ts, http.MethodGet, base+"/alternatives?exercise_id=1&muscle_group=legs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("alternatives status = %d: %s", resp.StatusCode, data)
	}
	var alts []models.Alternative
	if err := json.Unmarshal(data, &alts); err != nil {
		t.Fatal(err)
	}
	if len(alts) != 1 || alts[0].Exercise.ID != 2 {
		t.Errorf("alternatives = %+v, want squat", alts)
	}
	if resp, _ = do(t, ts, http.MethodGet, base+"/alternatives", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("alternatives without exercise_id = %d, want 400", resp.StatusCode)
	}
}
