package server

import (
	"errors"
	"net/http"

	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/storage"
)

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.log.Error("store error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) handleExerciseCatalog(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	entries, err := s.store.ExerciseCatalog(r.Context(), uid)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWorkoutHistory(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	workouts, err := s.store.WorkoutHistory(r.Context(), uid, queryInt(r, "limit", 20))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleInsertWorkout(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var workout models.WorkoutRecord
	if err := decodeJSON(r, &workout); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if workout.Status == "" {
		workout.Status = models.WorkoutCompleted
	}
	id, err := s.store.InsertWorkout(r.Context(), uid, workout)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// maxImportBytes caps the size of an uploaded export.
const maxImportBytes = 32 << 20

func (s *Server) handleImportAlpha(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	res, err := s.alpha.Import(r.Context(), uid, http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.log.Error("alpha import error", "user_id", uid, "error", err)
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	profile, err := s.store.UserProfile(r.Context(), uid)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveUserProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var profile models.UserProfile
	if err := decodeJSON(r, &profile); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.store.SaveUserProfile(r.Context(), uid, profile); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWeeklyPlanning(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	start, err := parseDate(r.URL.Query().Get("week_start"))
	if err != nil {
		writeBadRequest(w, "week_start: "+err.Error())
		return
	}
	week, err := s.store.WeeklyPlanning(r.Context(), uid, start)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleCreatePlannedSession(w http.ResponseWriter, r *http.Request) {
	uid, err := intParam(r, "userID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var ns models.NewSession
	if err := decodeJSON(r, &ns); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if ns.PlannedDate.IsZero() {
		writeBadRequest(w, "planned_date is required")
		return
	}
	created, err := s.store.CreateSession(r.Context(), uid, ns)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePlannedSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req models.SessionUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.store.UpdateSession(r.Context(), id, req); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMovePlannedSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req models.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	date, err := parseDate(req.NewDate)
	if err != nil {
		writeBadRequest(w, "new_date: "+err.Error())
		return
	}
	resp, err := s.store.MoveSession(r.Context(), id, date, req.ForceMove)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePlannedSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExerciseAlternatives(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	alts, err := s.store.ExerciseAlternatives(r.Context(), exerciseID,
		r.URL.Query().Get("muscle_group"), queryInt(r, "user_id", 1))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alts)
}
