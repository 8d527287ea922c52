package mcp

import (
	"context"

	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/models"
	"github.com/meltforce/repplan/internal/ordering"
	"github.com/meltforce/repplan/internal/schedule"
	"github.com/meltforce/repplan/internal/scoring"
)

// Planner is the engine surface the MCP tools use. *engine.Engine satisfies
// it both in the server (local or remote backend) and in the stdio binary.
type Planner interface {
	CalculateScore(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) scoring.Result
	RankExercises(ctx context.Context, refs []models.ExerciseRef, sc models.SessionContext) []ordering.Ranked
	Scheduler(userID int) (*schedule.Scheduler, error)
}

var _ Planner = (*engine.Engine)(nil)
