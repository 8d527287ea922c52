// Package server exposes the planning backend contract and the engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/backend"
	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/importer"
	"github.com/meltforce/repplan/internal/models"
	"tailscale.com/client/tailscale/apitype"
)

// Store is the local planning database. When present, the server also serves
// the backend REST contract on top of it.
type Store interface {
	backend.API
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	InsertWorkout(ctx context.Context, userID int, w models.WorkoutRecord) (uuid.UUID, error)
	SaveUserProfile(ctx context.Context, userID int, p models.UserProfile) error
}

// WhoIser resolves a tailnet peer address to its identity.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine *engine.Engine
	store  Store
	alpha  *importer.Importer
	whois  WhoIser
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. store may be nil when
// the engine runs against a remote backend.
func New(eng *engine.Engine, store Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		engine: eng,
		store:  store,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	if store != nil {
		s.alpha = importer.New(store, log)
	}
	s.routes()
	return s
}

// SetTailscale enables Tailscale identity for engine routes.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// Mount attaches an extra handler, such as the MCP endpoint, under pattern.
// The handler sees the same identity as the engine routes.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.With(s.identity).Handle(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Backend contract (API key required), local mode only
	if s.store != nil {
		s.router.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Route("/api/v1/users/{userID}", func(r chi.Router) {
				r.Get("/exercises", s.handleExerciseCatalog)
				r.Get("/workouts", s.handleWorkoutHistory)
				r.Post("/workouts", s.handleInsertWorkout)
				r.Post("/workouts/import/alpha", s.handleImportAlpha)
				r.Get("/profile", s.handleUserProfile)
				r.Put("/profile", s.handleSaveUserProfile)
				r.Get("/planning", s.handleWeeklyPlanning)
				r.Post("/planned-sessions", s.handleCreatePlannedSession)
			})
			r.Route("/api/v1/planned-sessions/{id}", func(r chi.Router) {
				r.Put("/", s.handleUpdatePlannedSession)
				r.Put("/move", s.handleMovePlannedSession)
				r.Delete("/", s.handleDeletePlannedSession)
			})
			r.Get("/api/v1/exercises/{id}/alternatives", s.handleExerciseAlternatives)
		})
	}

	// Engine and schedule API, guarded by the tailnet instead of an API key
	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)
		r.Get("/api/v1/me", s.handleMe)

		r.Post("/api/v1/engine/score", s.handleScore)
		r.Post("/api/v1/engine/order", s.handleOrder)
		r.Post("/api/v1/engine/recalculate", s.handleRecalculate)
		r.Get("/api/v1/engine/scores/{sessionID}", s.handleScoreHistory)

		r.Get("/api/v1/schedule", s.handleSchedule)
		r.Get("/api/v1/schedule/weeks/{key}", s.handleWeek)
		r.Post("/api/v1/schedule/refresh", s.handleRefresh)
		r.Post("/api/v1/schedule/today", s.handleToday)
		r.Post("/api/v1/schedule/navigate", s.handleNavigate)
		r.Post("/api/v1/schedule/sessions", s.handleCreateSession)
		r.Route("/api/v1/schedule/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/move", s.handleMoveSession)
			r.Post("/confirm-move", s.handleConfirmMove)
			r.Delete("/pending-move", s.handleCancelMove)
			r.Post("/optimize", s.handleOptimizeSession)
			r.Post("/swap", s.handleSwap)
			r.Put("/order", s.handleReorder)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Get("/alternatives", s.handleAlternatives)
		})
	})
}
