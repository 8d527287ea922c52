package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/schedule"
	"github.com/meltforce/repplan/internal/scoring"
)

type exercisesRequest struct {
	Exercises []models.ExerciseRef `json:"exercises"`
}

type scoreResponse struct {
	Score     models.SessionScore     `json:"score"`
	Exercises []models.ExerciseDetail `json:"exercises"`
	Degraded  bool                    `json:"degraded"`
}

func newScoreResponse(res scoring.Result) scoreResponse {
	return scoreResponse{Score: res.Score, Exercises: res.Exercises, Degraded: len(res.Degraded) > 0}
}

type scheduleResponse struct {
	Focus string        `json:"focus_week"`
	Weeks []models.Week `json:"weeks"`
}

func (s *Server) sessionContext(r *http.Request) models.SessionContext {
	return models.SessionContext{UserID: userIDFromContext(r)}
}

func (s *Server) scheduler(w http.ResponseWriter, r *http.Request) (*schedule.Scheduler, bool) {
	sched, err := s.engine.Scheduler(userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sched, true
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req exercisesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	res := s.engine.CalculateScore(r.Context(), req.Exercises, s.sessionContext(r))
	writeJSON(w, http.StatusOK, newScoreResponse(res))
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req exercisesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	ranked := s.engine.RankExercises(r.Context(), req.Exercises, s.sessionContext(r))
	writeJSON(w, http.StatusOK, map[string]any{"exercises": ranked})
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req exercisesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	res := s.engine.RecalculateAfterReorder(r.Context(), req.Exercises, s.sessionContext(r))
	writeJSON(w, http.StatusOK, newScoreResponse(res))
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "sessionID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	entries, err := s.engine.ScoreHistory(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeSchedule(w http.ResponseWriter, sched *schedule.Scheduler, weeks []models.Week) {
	writeJSON(w, http.StatusOK, scheduleResponse{Focus: sched.FocusKey(), Weeks: weeks})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	writeSchedule(w, sched, sched.Weeks(r.Context()))
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	week, err := sched.Week(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	writeSchedule(w, sched, sched.Refresh(r.Context()))
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	writeSchedule(w, sched, sched.GoToToday(r.Context()))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekKey string `json:"week_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	weeks, err := sched.NavigateToWeek(r.Context(), req.WeekKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSchedule(w, sched, weeks)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string               `json:"date"`
		Exercises []models.ExerciseRef `json:"exercises"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	created, err := sched.CreateSession(r.Context(), date, req.Exercises)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	if err := sched.DeleteSession(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMoveResult(w http.ResponseWriter, res schedule.MoveResult) {
	status := http.StatusOK
	if res.RequiresConfirmation {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

func (s *Server) handleMoveSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req struct {
		NewDate string `json:"new_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	date, err := parseDate(req.NewDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	res, err := sched.MoveSession(r.Context(), id, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMoveResult(w, res)
}

func (s *Server) handleConfirmMove(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	res, err := sched.ConfirmMove(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMoveResult(w, res)
}

func (s *Server) handleCancelMove(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	if err := sched.CancelMove(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOptimizeSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	updated, err := sched.OptimizeSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req struct {
		OldExerciseID int `json:"old_exercise_id"`
		NewExerciseID int `json:"new_exercise_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	updated, err := sched.PerformSwap(r.Context(), id, req.OldExerciseID, req.NewExerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req struct {
		Order []int `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	updated, err := sched.ReorderExercises(r.Context(), id, req.Order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	exerciseID, err := intParam(r, "exerciseID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	updated, err := sched.RemoveExercise(r.Context(), id, exerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	exerciseID := queryInt(r, "exercise_id", 0)
	if exerciseID == 0 {
		writeBadRequest(w, "exercise_id parameter required")
		return
	}
	sched, ok := s.scheduler(w, r)
	if !ok {
		return
	}
	alts, err := sched.Alternatives(r.Context(), id, exerciseID, r.URL.Query().Get("muscle_group"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alts)
}
