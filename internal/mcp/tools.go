package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/schedule"
)

var exerciseItems = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"exercise_id":  map[string]any{"type": "integer"},
		"sets":         map[string]any{"type": "integer"},
		"reps_min":     map[string]any{"type": "integer"},
		"reps_max":     map[string]any{"type": "integer"},
		"rest_seconds": map[string]any{"type": "integer"},
		"predicted_weight": map[string]any{
			"type":        "number",
			"description": "Planned load in kg. Compared with the last logged weight for the progression score.",
		},
	},
	"required": []string{"exercise_id"},
}

// --- Tool definitions ---

var toolScoreSession = mcp.NewTool("score_session",
	mcp.WithDescription("Rate a candidate strength session from 0 to 100. Returns muscle rotation, recovery, progression and adherence sub-scores (0-25 each), up to three suggestions and a confidence value."),
	mcp.WithArray("exercises", mcp.Required(), mcp.Items(exerciseItems),
		mcp.Description("Exercises in session order. Omitted sets/reps/rest default to 3 x 8-12 with 90s rest.")),
)

var toolOrderSession = mcp.NewTool("order_session",
	mcp.WithDescription("Reorder a candidate session by priority: compound lifts, exercises not trained recently and harder lifts first. Returns each exercise with its priority."),
	mcp.WithArray("exercises", mcp.Required(), mcp.Items(exerciseItems), mcp.Description("Exercises to order")),
)

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Get planned sessions. Without week_key returns the whole window around the current week."),
	mcp.WithString("week_key", mcp.Description("ISO week key, e.g. 2026-W42")),
)

var toolCreateSession = mcp.NewTool("create_session",
	mcp.WithDescription("Plan a session on a date. The session is scored before it is stored. Fails when the day already holds the maximum number of sessions."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
	mcp.WithArray("exercises", mcp.Required(), mcp.Items(exerciseItems), mcp.Description("Exercises in session order")),
)

var toolMoveSession = mcp.NewTool("move_session",
	mcp.WithDescription("Move a planned session to another date. When the move shortens recovery the backend returns warnings and the move waits for confirm_move."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Planned session ID")),
	mcp.WithString("new_date", mcp.Required(), mcp.Description("Target date (YYYY-MM-DD)")),
)

var toolConfirmMove = mcp.NewTool("confirm_move",
	mcp.WithDescription("Apply a move that was held back by recovery warnings."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Planned session ID")),
)

// --- Tool handlers ---

type exercisesArgs struct {
	Exercises []models.ExerciseRef `json:"exercises"`
}

func bindExercises(req mcp.CallToolRequest) ([]models.ExerciseRef, error) {
	var args exercisesArgs
	if err := req.BindArguments(&args); err != nil {
		return nil, err
	}
	for _, ex := range args.Exercises {
		if ex.ExerciseID <= 0 {
			return nil, errors.New("every exercise needs a positive exercise_id")
		}
	}
	return args.Exercises, nil
}

func sessionContext(ctx context.Context) models.SessionContext {
	return models.SessionContext{UserID: UserIDFromContext(ctx)}
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) scoreSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := bindExercises(req)
	if err != nil {
		return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
	}
	res := h.planner.CalculateScore(ctx, refs, sessionContext(ctx))
	return jsonResult(map[string]any{
		"score":     res.Score,
		"exercises": res.Exercises,
		"degraded":  len(res.Degraded) > 0,
	}), nil
}

func (h *handlers) orderSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := bindExercises(req)
	if err != nil {
		return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
	}
	return jsonResult(h.planner.RankExercises(ctx, refs, sessionContext(ctx))), nil
}

func (h *handlers) scheduler(ctx context.Context) (*schedule.Scheduler, *mcp.CallToolResult) {
	s, err := h.planner.Scheduler(UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp scheduler", "error", err)
		return nil, mcp.NewToolResultError("scheduler unavailable: " + err.Error())
	}
	return s, nil
}

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := h.scheduler(ctx)
	if errResult != nil {
		return errResult, nil
	}
	key := req.GetString("week_key", "")
	if key == "" {
		return jsonResult(s.Weeks(ctx)), nil
	}
	week, err := s.Week(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(week), nil
}

func (h *handlers) createSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	date, err := time.Parse(models.DateFormat, dateStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	refs, err := bindExercises(req)
	if err != nil {
		return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
	}

	s, errResult := h.scheduler(ctx)
	if errResult != nil {
		return errResult, nil
	}
	created, err := s.CreateSession(ctx, date, refs)
	if err != nil {
		h.log.Warn("mcp create_session", "error", err)
		return mcp.NewToolResultError("create failed: " + err.Error()), nil
	}
	return jsonResult(created), nil
}

func sessionID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("session_id parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("invalid session_id")
	}
	return id, nil
}

func (h *handlers) moveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := sessionID(req)
	if errResult != nil {
		return errResult, nil
	}
	dateStr, err := req.RequireString("new_date")
	if err != nil {
		return mcp.NewToolResultError("new_date parameter is required"), nil
	}
	date, err := time.Parse(models.DateFormat, dateStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	s, errResult := h.scheduler(ctx)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.MoveSession(ctx, id, date)
	if err != nil {
		h.log.Warn("mcp move_session", "session_id", id, "error", err)
		return mcp.NewToolResultError("move failed: " + err.Error()), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) confirmMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := sessionID(req)
	if errResult != nil {
		return errResult, nil
	}
	s, errResult := h.scheduler(ctx)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.ConfirmMove(ctx, id)
	if err != nil {
		h.log.Warn("mcp confirm_move", "session_id", id, "error", err)
		return mcp.NewToolResultError("confirm failed: " + err.Error()), nil
	}
	return jsonResult(res), nil
}
