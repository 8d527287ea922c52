package schedule

import "fmt"

// Options bounds the scheduler's calendar.
type Options struct {
	// MaxSessionsPerDay caps the sessions planned on one calendar day.
	MaxSessionsPerDay int
	// WeeksToShow is the number of weeks in the window.
	WeeksToShow int
	// WeeksBefore is how many weeks before the current one the window starts.
	WeeksBefore int
}

// DefaultOptions returns two sessions per day and an eight-week window that
// starts three weeks before the current week.
func DefaultOptions() Options {
	return Options{MaxSessionsPerDay: 2, WeeksToShow: 8, WeeksBefore: 3}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	if o.MaxSessionsPerDay < 1 {
		return fmt.Errorf("max sessions per day must be at least 1, got %d", o.MaxSessionsPerDay)
	}
	if o.WeeksToShow < 1 {
		return fmt.Errorf("weeks to show must be at least 1, got %d", o.WeeksToShow)
	}
	if o.WeeksBefore < 0 || o.WeeksBefore >= o.WeeksToShow {
		return fmt.Errorf("weeks before must be in [0, %d), got %d", o.WeeksToShow, o.WeeksBefore)
	}
	return nil
}
