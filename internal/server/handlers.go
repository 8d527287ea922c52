package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/schedule"
	"github.com/meltforce/repplan/internal/storage"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps engine, scheduler and storage errors to HTTP statuses.
// Anything unrecognized is a failure of the planning backend.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var se *backend.StatusError
	switch {
	case errors.Is(err, schedule.ErrDayFull), errors.Is(err, schedule.ErrMoveRejected):
		status = http.StatusConflict
	case errors.Is(err, schedule.ErrInvalidOrder), errors.Is(err, schedule.ErrInvalidWeekKey):
		status = http.StatusBadRequest
	case errors.Is(err, schedule.ErrSessionNotFound), errors.Is(err, schedule.ErrExerciseNotFound),
		errors.Is(err, schedule.ErrNoPendingMove), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusBadGateway {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("date is required")
	}
	d, err := time.Parse(models.DateFormat, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
	}
	return d, nil
}
