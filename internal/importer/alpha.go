// Package importer loads completed workouts from Alpha Progression CSV
// exports into the planning store, so recovery and progression scoring see
// training logged outside the planner.
package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionLineRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warmups"]
	exerciseLineRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLineRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)
)

const columnLine = "#;KG;REPS;RIR"

// Session is one logged training session of an export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is one exercise block of a session.
type Exercise struct {
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is a logged set. WeightKg is the added load for bodyweight exercises.
type Set struct {
	Number     int
	WeightKg   float64
	Bodyweight bool
	Reps       int
	RIR        float64
	Warmup     bool
}

// WorkingSets returns the non-warmup sets of e.
func (e Exercise) WorkingSets() []Set {
	var sets []Set
	for _, s := range e.Sets {
		if !s.Warmup {
			sets = append(sets, s)
		}
	}
	return sets
}

// ParseAlpha reads an Alpha Progression CSV export. Sessions are separated by
// blank lines; unknown lines such as notes are skipped.
func ParseAlpha(r io.Reader) ([]Session, error) {
	var (
		sessions []Session
		cur      *Session
		ex       *Exercise
	)
	flushExercise := func() {
		if cur != nil && ex != nil {
			cur.Exercises = append(cur.Exercises, *ex)
		}
		ex = nil
	}
	flushSession := func() {
		flushExercise()
		if cur != nil {
			sessions = append(sessions, *cur)
		}
		cur = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flushSession()

		case line == columnLine:

		case sessionLineRe.MatchString(line):
			m := sessionLineRe.FindStringSubmatch(line)
			flushSession()
			date, err := parseSessionDate(m[2])
			if err != nil {
				return nil, err
			}
			cur = &Session{Name: m[1], Date: date, Duration: m[3]}

		case exerciseLineRe.MatchString(line):
			m := exerciseLineRe.FindStringSubmatch(line)
			if cur == nil {
				return nil, fmt.Errorf("exercise without session: %q", line)
			}
			flushExercise()
			target, _ := strconv.Atoi(m[4])
			ex = &Exercise{
				Name:       strings.TrimSpace(m[2]),
				Equipment:  strings.TrimSpace(m[3]),
				TargetReps: target,
			}
			if m[6] != "" {
				ex.Sets = append(ex.Sets, parseWarmups(m[6])...)
			}

		case setLineRe.MatchString(line):
			m := setLineRe.FindStringSubmatch(line)
			if ex == nil {
				return nil, fmt.Errorf("set without exercise: %q", line)
			}
			num, _ := strconv.Atoi(m[1])
			weight, bw := parseWeight(m[2])
			reps, _ := strconv.Atoi(m[3])
			ex.Sets = append(ex.Sets, Set{
				Number:     num,
				WeightKg:   weight,
				Bodyweight: bw,
				Reps:       reps,
				RIR:        parseDecimal(m[4]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	flushSession()
	return sessions, nil
}

// parseSessionDate accepts "2026-02-19 4:54" and "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing session date %q", s)
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps".
func parseWarmups(s string) []Set {
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Number: num, WeightKg: weight, Bodyweight: bw, Reps: reps, Warmup: true})
	}
	return sets
}

// parseWeight reads "102,5" and the bodyweight-plus form "+35".
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

// parseDecimal reads numbers with a comma decimal separator. Garbage reads as 0.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
