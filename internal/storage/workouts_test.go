package storage

import (
	"strings"
	"testing"
)

// TestWorkoutHistoryLimitsCompletedOnly verifies the completed-status filter
// applies before the limit, so planned workouts cannot crowd out finished ones.
func TestWorkoutHistoryLimitsCompletedOnly(t *testing.T) {
	filter := strings.Index(workoutHistoryQuery, "status = 'completed'")
	limit := strings.Index(workoutHistoryQuery, "LIMIT $2")
	if filter < 0 {
		t.Fatal("history query does not filter on completed status")
	}
	if limit < 0 || filter > limit {
		t.Errorf("completed filter at %d, limit at %d: filter must come first", filter, limit)
	}
}
