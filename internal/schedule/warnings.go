package schedule

import (
	"fmt"
	"time"

	"github.com/meltforce/repplan/internal/models"
)

// DayWarnings lists the recovery problems of day: a primary muscle that was
// also trained the day before, and a muscle trained by two sessions on the
// same day. prev may be nil when the previous day is not loaded.
func DayWarnings(prev *models.Day, day models.Day) []string {
	warnings := []string{}

	yesterday := make(map[string]bool)
	if prev != nil {
		for _, m := range muscles(prev.Sessions) {
			yesterday[m] = true
		}
	}

	counts := make(map[string]int)
	for _, s := range day.Sessions {
		seen := make(map[string]bool)
		for _, m := range s.PrimaryMuscles {
			if !seen[m] {
				seen[m] = true
				counts[m]++
			}
		}
	}

	for _, m := range muscles(day.Sessions) {
		if yesterday[m] {
			warnings = append(warnings, fmt.Sprintf("%s trained the previous day: less than 48h recovery", m))
		}
		if counts[m] > 1 {
			warnings = append(warnings, fmt.Sprintf("%s trained in %d sessions on the same day", m, counts[m]))
		}
	}
	return warnings
}

// muscles returns the distinct primary muscles of sessions in first-seen order.
func muscles(sessions []models.PlannedSession) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range sessions {
		for _, m := range s.PrimaryMuscles {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// refreshWarnings recomputes the warnings of every day in weeks, looking
// across week boundaries where the neighbouring week is loaded.
func refreshWarnings(weeks map[string]*models.Week) {
	byDate := make(map[time.Time]*models.Day)
	for _, w := range weeks {
		for i := range w.Days {
			byDate[w.Days[i].Date] = &w.Days[i]
		}
	}
	for _, w := range weeks {
		for i := range w.Days {
			d := &w.Days[i]
			d.Warnings = DayWarnings(byDate[d.Date.AddDate(0, 0, -1)], *d)
		}
	}
}

// primaryMuscles derives a session's primary muscles from its resolved
// exercises: the distinct known body parts in exercise order.
func primaryMuscles(details []models.ExerciseDetail) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, d := range details {
		if !d.Known() || seen[d.BodyPart] {
			continue
		}
		seen[d.BodyPart] = true
		out = append(out, d.BodyPart)
	}
	return out
}
