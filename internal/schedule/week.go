package schedule

import (
	"time"

	"github.com/meltforce/repplan/internal/models"
)

const daysPerWeek = 7

// EmptyWeek returns the seven empty days of the week starting at monday.
func EmptyWeek(monday time.Time) models.Week {
	w := models.Week{Key: WeekKey(monday), StartDate: monday, Days: make([]models.Day, daysPerWeek)}
	for i := range w.Days {
		w.Days[i] = models.Day{
			Date:     monday.AddDate(0, 0, i),
			Sessions: []models.PlannedSession{},
			Warnings: []string{},
		}
	}
	return w
}

// Normalize rebuilds a backend week payload into exactly seven days starting
// at monday, filing each session under the day of its own date. It returns
// the number of sessions dropped for being dated outside the week.
func Normalize(payload models.Week, monday time.Time) (models.Week, int) {
	w := EmptyWeek(monday)
	w.WeekScore = max(0, min(payload.WeekScore, 100))

	dropped := 0
	for _, d := range payload.Days {
		for _, s := range d.Sessions {
			date := s.Date
			if date.IsZero() {
				date = d.Date
			}
			idx, ok := dayIndex(w, date)
			if !ok {
				dropped++
				continue
			}
			s = s.Clone()
			s.Date = w.Days[idx].Date
			if s.Status == "" {
				s.Status = models.SessionPlanned
			}
			w.Days[idx].Sessions = append(w.Days[idx].Sessions, s)
		}
	}
	return w, dropped
}

// dayIndex returns the position of date within w.
func dayIndex(w models.Week, date time.Time) (int, bool) {
	if date.IsZero() {
		return 0, false
	}
	idx := int(DateOf(date).Sub(w.StartDate).Hours() / 24)
	if idx < 0 || idx >= len(w.Days) {
		return 0, false
	}
	return idx, true
}
