// Package scorelog keeps the history of scores computed for planned sessions
// in a local SQLite database.
package scorelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
	_ "modernc.org/sqlite"
)

// Entry is one recorded session score.
type Entry struct {
	SessionID   uuid.UUID        `json:"session_id"`
	UserID      int              `json:"user_id"`
	Total       int              `json:"total"`
	Breakdown   models.Breakdown `json:"breakdown"`
	Confidence  float64          `json:"confidence"`
	Suggestions []string         `json:"suggestions"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

// Store records session scores.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the score log at dir/scores.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating score log dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "scores.db"))
	if err != nil {
		return nil, fmt.Errorf("opening score log: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_scores (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id      TEXT NOT NULL,
		user_id         INTEGER NOT NULL,
		total           INTEGER NOT NULL,
		muscle_rotation INTEGER NOT NULL,
		recovery        INTEGER NOT NULL,
		progression     INTEGER NOT NULL,
		adherence       INTEGER NOT NULL,
		confidence      REAL NOT NULL,
		suggestions     TEXT NOT NULL,
		recorded_at     INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating score log table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_session_scores_session
		ON session_scores (session_id, recorded_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating score log index: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Record stores a score for a planned session. A zero score timestamp is
// replaced by the current time.
func (s *Store) Record(ctx context.Context, userID int, sessionID uuid.UUID, score models.SessionScore) error {
	suggestions, err := json.Marshal(score.Suggestions)
	if err != nil {
		return fmt.Errorf("encoding suggestions: %w", err)
	}
	at := score.Timestamp
	if at.IsZero() {
		at = s.now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_scores
		 (session_id, user_id, total, muscle_rotation, recovery, progression, adherence, confidence, suggestions, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID.String(), userID, score.Total,
		score.Breakdown.MuscleRotation, score.Breakdown.Recovery, score.Breakdown.Progression, score.Breakdown.Adherence,
		score.Confidence, string(suggestions), at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting session score: %w", err)
	}
	return nil
}

// History returns up to limit scores of a session, most recent first.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, total, muscle_rotation, recovery, progression, adherence,
		        confidence, suggestions, recorded_at
		 FROM session_scores WHERE session_id = ?
		 ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		sessionID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session scores: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e           Entry
			id          string
			suggestions string
			at          int64
		)
		if err := rows.Scan(&id, &e.UserID, &e.Total,
			&e.Breakdown.MuscleRotation, &e.Breakdown.Recovery, &e.Breakdown.Progression, &e.Breakdown.Adherence,
			&e.Confidence, &suggestions, &at); err != nil {
			return nil, fmt.Errorf("scanning session score: %w", err)
		}
		if e.SessionID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing session id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(suggestions), &e.Suggestions); err != nil {
			return nil, fmt.Errorf("decoding suggestions: %w", err)
		}
		e.RecordedAt = time.Unix(0, at).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the score log.
func (s *Store) Close() error {
	return s.db.Close()
}
