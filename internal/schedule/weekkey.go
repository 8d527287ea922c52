package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWeekKey is returned for keys that do not name an ISO week.
var ErrInvalidWeekKey = errors.New("invalid week key")

// WeekKey returns the ISO week key of t, e.g. "2026-W42".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseWeekKey returns the Monday (UTC midnight) of the ISO week named by key.
func ParseWeekKey(key string) (time.Time, error) {
	var year, week int
	n, err := fmt.Sscanf(key, "%4d-W%2d", &year, &week)
	if err != nil || n != 2 || len(key) != len("2006-W01") {
		return time.Time{}, fmt.Errorf("%w %q: want YYYY-Www", ErrInvalidWeekKey, key)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("%w %q: week %d out of range", ErrInvalidWeekKey, key, week)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := MondayOf(jan4).AddDate(0, 0, (week-1)*7)
	if WeekKey(monday) != key {
		return time.Time{}, fmt.Errorf("%w %q: year %d has no week %d", ErrInvalidWeekKey, key, year, week)
	}
	return monday, nil
}

// MondayOf returns the Monday (UTC midnight) of the ISO week containing t.
func MondayOf(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
