package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cadence/internal/progress"
)

const unitColumns = "learner_id, unit_id, thread, position, skip_number, repetitions, is_retired, introduced_at, last_practiced_at, last_seen_seq, updated_at"

// SaveUnitProgress upserts one unit's scheduling state.
func (s *Store) SaveUnitProgress(ctx context.Context, u *progress.Unit) error {
	if u == nil {
		return errors.New("unit is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO unit_progress (`+unitColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(learner_id, unit_id) DO UPDATE SET
             thread = excluded.thread,
             position = excluded.position,
             skip_number = excluded.skip_number,
             repetitions = excluded.repetitions,
             is_retired = excluded.is_retired,
             introduced_at = excluded.introduced_at,
             last_practiced_at = excluded.last_practiced_at,
             last_seen_seq = excluded.last_seen_seq,
             updated_at = excluded.updated_at`,
		u.LearnerID,
		u.UnitID,
		u.Thread,
		u.Position,
		u.Skip,
		u.Repetitions,
		boolToInt(u.Retired),
		nullableTime(u.IntroducedAt),
		nullableTime(u.LastPracticedAt),
		u.LastSeenSeq,
		nullableTime(u.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save unit progress: %w", err)
	}
	return nil
}

// UnitProgress fetches one unit's progress row, or nil when absent.
func (s *Store) UnitProgress(ctx context.Context, learnerID, unitID string) (*progress.Unit, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+unitColumns+` FROM unit_progress WHERE learner_id = ? AND unit_id = ?`,
		learnerID,
		unitID,
	)
	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unit progress: %w", err)
	}
	return u, nil
}

// ListUnitProgress returns a learner's progress rows ordered by unit id.
func (s *Store) ListUnitProgress(ctx context.Context, learnerID string) ([]*progress.Unit, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+unitColumns+` FROM unit_progress WHERE learner_id = ? ORDER BY unit_id`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unit progress: %w", err)
	}
	defer rows.Close()

	var units []*progress.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// ThreadCursors returns the per-thread practice sequences for a learner.
func (s *Store) ThreadCursors(ctx context.Context, learnerID string) (map[int]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT thread, seq FROM thread_cursors WHERE learner_id = ?`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list thread cursors: %w", err)
	}
	defer rows.Close()

	cursors := make(map[int]int64)
	for rows.Next() {
		var thread int
		var seq int64
		if err := rows.Scan(&thread, &seq); err != nil {
			return nil, err
		}
		cursors[thread] = seq
	}
	return cursors, rows.Err()
}

// SaveThreadCursor upserts one thread's practice sequence.
func (s *Store) SaveThreadCursor(ctx context.Context, learnerID string, thread int, seq int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO thread_cursors (learner_id, thread, seq) VALUES (?, ?, ?)
         ON CONFLICT(learner_id, thread) DO UPDATE SET seq = excluded.seq`,
		learnerID,
		thread,
		seq,
	)
	if err != nil {
		return fmt.Errorf("save thread cursor: %w", err)
	}
	return nil
}

func scanUnit(scanner interface{ Scan(dest ...any) error }) (*progress.Unit, error) {
	var (
		learnerID    string
		unitID       string
		thread       int
		position     int
		skip         int
		repetitions  int
		retired      sql.NullInt64
		introducedAt sql.NullString
		practicedAt  sql.NullString
		lastSeenSeq  int64
		updatedAt    sql.NullString
	)

	if err := scanner.Scan(
		&learnerID,
		&unitID,
		&thread,
		&position,
		&skip,
		&repetitions,
		&retired,
		&introducedAt,
		&practicedAt,
		&lastSeenSeq,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	u := &progress.Unit{
		LearnerID:   learnerID,
		UnitID:      unitID,
		Thread:      thread,
		Position:    position,
		Skip:        skip,
		Repetitions: repetitions,
		LastSeenSeq: lastSeenSeq,
	}
	if retired.Valid {
		u.Retired = retired.Int64 != 0
	}
	if introduced, err := parseTimeString(introducedAt.String); err == nil {
		u.IntroducedAt = introduced
	}
	if practiced, err := parseTimeString(practicedAt.String); err == nil {
		u.LastPracticedAt = practiced
	}
	if updated, err := parseTimeString(updatedAt.String); err == nil {
		u.UpdatedAt = updated
	}
	return u, nil
}
