package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// PruneResponseMetrics deletes metrics recorded before the cutoff and
// returns how many rows went away.
func (s *Store) PruneResponseMetrics(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM response_metrics WHERE recorded_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune response metrics: %w", err)
	}
	return res.RowsAffected()
}

// PruneSpikeEvents deletes spike events recorded before the cutoff and
// returns how many rows went away.
func (s *Store) PruneSpikeEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM spike_events WHERE recorded_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune spike events: %w", err)
	}
	return res.RowsAffected()
}

// Vacuum reclaims space after pruning.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// Stats aggregates one learner's persisted state for diagnostics.
func (s *Store) Stats(ctx context.Context, learnerID string) (Stats, error) {
	stats := Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM unit_progress WHERE learner_id = ?`, &stats.UnitsTracked},
		{`SELECT COUNT(1) FROM unit_progress WHERE learner_id = ? AND is_retired = 1`, &stats.UnitsRetired},
		{`SELECT COUNT(1) FROM sessions WHERE learner_id = ?`, &stats.Sessions},
		{`SELECT COUNT(1) FROM response_metrics WHERE learner_id = ?`, &stats.ResponseMetrics},
		{`SELECT COUNT(1) FROM spike_events WHERE learner_id = ?`, &stats.SpikeEvents},
		{`SELECT COUNT(1) FROM learner_baselines WHERE learner_id = ? AND superseded_at IS NULL`, &stats.ActiveBaselines},
	}
	for _, c := range counts {
		row := s.db.QueryRowContext(ctx, c.query, learnerID)
		if err := row.Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("learner stats: %w", err)
		}
	}
	return stats, nil
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	expected := []string{
		"unit_progress",
		"thread_cursors",
		"sessions",
		"response_metrics",
		"spike_events",
		"learner_baselines",
	}
	for _, table := range expected {
		var name string
		row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err := row.Scan(&name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				health.MissingTables = append(health.MissingTables, table)
				continue
			}
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	}

	if len(health.MissingTables) == 0 {
		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM sessions")
		if err := row.Scan(&health.TotalSessions); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count sessions: %w", err)
		}
	}

	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
