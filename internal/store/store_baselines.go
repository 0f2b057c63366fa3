package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cadence/internal/baseline"
)

const baselineColumns = "id, learner_id, course_id, sample_count, latency_mean_ms, latency_stddev_ms, delta_mean_ms, delta_stddev_ms, had_timing_data, created_at, superseded_at"

// SaveBaseline inserts a fresh baseline and stamps the previously active
// one for the same (learner, course) superseded, in one transaction. The
// record's ID is assigned when empty.
func (s *Store) SaveBaseline(ctx context.Context, b *baseline.Baseline) error {
	if b == nil {
		return errors.New("baseline is nil")
	}
	if b.LearnerID == "" || b.CourseID == "" {
		return errors.New("baseline requires learner and course ids")
	}
	if b.ID == "" {
		b.ID = s.newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin baseline tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stamp := b.CreatedAt.UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE learner_baselines SET superseded_at = ?
         WHERE learner_id = ? AND course_id = ? AND superseded_at IS NULL`,
		stamp,
		b.LearnerID,
		b.CourseID,
	); err != nil {
		return fmt.Errorf("supersede baselines: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO learner_baselines (`+baselineColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.LearnerID,
		b.CourseID,
		b.SampleCount,
		b.LatencyMeanMS,
		b.LatencyStddevMS,
		b.DeltaMeanMS,
		b.DeltaStddevMS,
		boolToInt(b.HadTimingData),
		stamp,
		nullableTimePtr(b.SupersededAt),
	); err != nil {
		return fmt.Errorf("insert baseline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit baseline: %w", err)
	}
	return nil
}

// ActiveBaseline returns the current baseline for a (learner, course)
// pair, or nil when none exists.
func (s *Store) ActiveBaseline(ctx context.Context, learnerID, courseID string) (*baseline.Baseline, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+baselineColumns+` FROM learner_baselines
         WHERE learner_id = ? AND course_id = ? AND superseded_at IS NULL
         ORDER BY created_at DESC LIMIT 1`,
		learnerID,
		courseID,
	)
	b, err := scanBaseline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active baseline: %w", err)
	}
	return b, nil
}

// ListBaselines returns a learner's baselines, newest first, including
// superseded ones.
func (s *Store) ListBaselines(ctx context.Context, learnerID string) ([]*baseline.Baseline, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+baselineColumns+` FROM learner_baselines
         WHERE learner_id = ? ORDER BY created_at DESC, id DESC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list baselines: %w", err)
	}
	defer rows.Close()

	var baselines []*baseline.Baseline
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return nil, err
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// SupersedeStaleBaselines stamps active baselines created before the
// cutoff as superseded so the next session recalibrates. It returns the
// number of baselines aged out.
func (s *Store) SupersedeStaleBaselines(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE learner_baselines SET superseded_at = ?
         WHERE superseded_at IS NULL AND created_at < ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("supersede stale baselines: %w", err)
	}
	return res.RowsAffected()
}

func scanBaseline(scanner interface{ Scan(dest ...any) error }) (*baseline.Baseline, error) {
	var (
		b             baseline.Baseline
		hadTiming     int
		createdRaw    string
		supersededRaw sql.NullString
	)
	if err := scanner.Scan(
		&b.ID,
		&b.LearnerID,
		&b.CourseID,
		&b.SampleCount,
		&b.LatencyMeanMS,
		&b.LatencyStddevMS,
		&b.DeltaMeanMS,
		&b.DeltaStddevMS,
		&hadTiming,
		&createdRaw,
		&supersededRaw,
	); err != nil {
		return nil, err
	}
	b.HadTimingData = hadTiming != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		b.CreatedAt = created
	}
	if supersededRaw.Valid {
		if superseded, err := parseTimeString(supersededRaw.String); err == nil {
			b.SupersededAt = &superseded
		}
	}
	return &b, nil
}
