package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, learner_id, course_id, started_at, ended_at, duration_ms, items_practiced, spikes_detected, final_rolling_avg_ms"

// InsertSession records a session at its start. The caller supplies the
// id.
func (s *Store) InsertSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if session.ID == "" {
		return errors.New("session requires an id")
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.LearnerID,
		session.CourseID,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTimePtr(session.EndedAt),
		session.DurationMS,
		session.ItemsPracticed,
		session.SpikesDetected,
		session.FinalRollingAvgMS,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession writes a session's end-of-run counters.
func (s *Store) FinishSession(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session requires an id")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET ended_at = ?, duration_ms = ?, items_practiced = ?,
             spikes_detected = ?, final_rolling_avg_ms = ?
         WHERE id = ?`,
		nullableTimePtr(session.EndedAt),
		session.DurationMS,
		session.ItemsPracticed,
		session.SpikesDetected,
		session.FinalRollingAvgMS,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// GetSession fetches one session by id, or nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns a learner's sessions, newest first. A limit <= 0
// returns all of them.
func (s *Store) ListSessions(ctx context.Context, learnerID string, limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE learner_id = ? ORDER BY started_at DESC, id DESC`
	args := []any{learnerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session    Session
		startedRaw string
		endedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&session.LearnerID,
		&session.CourseID,
		&startedRaw,
		&endedRaw,
		&session.DurationMS,
		&session.ItemsPracticed,
		&session.SpikesDetected,
		&session.FinalRollingAvgMS,
	); err != nil {
		return nil, err
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = started
	}
	if endedRaw.Valid {
		if ended, err := parseTimeString(endedRaw.String); err == nil {
			session.EndedAt = &ended
		}
	}
	return &session, nil
}
