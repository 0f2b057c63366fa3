package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cadence/internal/spike"
)

const metricColumns = "id, session_id, learner_id, unit_id, thread, recorded_at, latency_ms, phrase_len, normalized_ms, duration_delta_ms, triggered_spike, mode"

const spikeColumns = "id, session_id, learner_id, unit_id, thread, recorded_at, latency_ms, rolling_avg_ms, ratio, response"

// InsertResponseMetric appends one response metric, assigning an id when
// the caller left it empty.
func (s *Store) InsertResponseMetric(ctx context.Context, m *ResponseMetric) error {
	if m == nil {
		return errors.New("metric is nil")
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}
	mode := m.Mode
	if mode == "" {
		mode = ModeLive
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO response_metrics (`+metricColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.SessionID,
		m.LearnerID,
		m.UnitID,
		m.Thread,
		m.RecordedAt.UTC().Format(time.RFC3339Nano),
		m.LatencyMS,
		m.PhraseLen,
		m.NormalizedMS,
		m.DurationDeltaMS,
		boolToInt(m.TriggeredSpike),
		string(mode),
	)
	if err != nil {
		return fmt.Errorf("insert response metric: %w", err)
	}
	return nil
}

// InsertSpikeEvent appends one spike event, assigning an id when the
// caller left it empty.
func (s *Store) InsertSpikeEvent(ctx context.Context, e *SpikeEvent) error {
	if e == nil {
		return errors.New("event is nil")
	}
	if _, ok := spike.ParseResponse(string(e.Response)); !ok {
		return fmt.Errorf("unknown spike response %q", e.Response)
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO spike_events (`+spikeColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.SessionID,
		e.LearnerID,
		e.UnitID,
		e.Thread,
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
		e.LatencyMS,
		e.RollingAvgMS,
		e.Ratio,
		string(e.Response),
	)
	if err != nil {
		return fmt.Errorf("insert spike event: %w", err)
	}
	return nil
}

// ResponseMetricsBySession returns a session's metrics in recording
// order.
func (s *Store) ResponseMetricsBySession(ctx context.Context, sessionID string) ([]*ResponseMetric, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+metricColumns+` FROM response_metrics WHERE session_id = ? ORDER BY recorded_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list response metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*ResponseMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// SpikeEventsByLearner returns a learner's most recent spike events,
// newest first. A limit <= 0 returns all of them.
func (s *Store) SpikeEventsByLearner(ctx context.Context, learnerID string, limit int) ([]*SpikeEvent, error) {
	query := `SELECT ` + spikeColumns + ` FROM spike_events WHERE learner_id = ? ORDER BY recorded_at DESC, id DESC`
	args := []any{learnerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spike events: %w", err)
	}
	defer rows.Close()

	var events []*SpikeEvent
	for rows.Next() {
		e, err := scanSpike(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanMetric(scanner interface{ Scan(dest ...any) error }) (*ResponseMetric, error) {
	var (
		m           ResponseMetric
		recordedRaw string
		spiked      int
		mode        string
	)
	if err := scanner.Scan(
		&m.ID,
		&m.SessionID,
		&m.LearnerID,
		&m.UnitID,
		&m.Thread,
		&recordedRaw,
		&m.LatencyMS,
		&m.PhraseLen,
		&m.NormalizedMS,
		&m.DurationDeltaMS,
		&spiked,
		&mode,
	); err != nil {
		return nil, err
	}
	m.TriggeredSpike = spiked != 0
	m.Mode = Mode(mode)
	if recorded, err := parseTimeString(recordedRaw); err == nil {
		m.RecordedAt = recorded
	}
	return &m, nil
}

func scanSpike(scanner interface{ Scan(dest ...any) error }) (*SpikeEvent, error) {
	var (
		e           SpikeEvent
		recordedRaw string
		response    string
	)
	if err := scanner.Scan(
		&e.ID,
		&e.SessionID,
		&e.LearnerID,
		&e.UnitID,
		&e.Thread,
		&recordedRaw,
		&e.LatencyMS,
		&e.RollingAvgMS,
		&e.Ratio,
		&response,
	); err != nil {
		return nil, err
	}
	e.Response = spike.Response(response)
	if recorded, err := parseTimeString(recordedRaw); err == nil {
		e.RecordedAt = recorded
	}
	return &e, nil
}
