package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/go-co-op/gocron"
	"github.com/gofrs/flock"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/store"
)

// Each scheduled sweep gets this long before it is abandoned.
const sweepTimeout = 5 * time.Minute

// Report summarizes one sweep.
type Report struct {
	MetricsPruned    int64
	SpikesPruned     int64
	BaselinesExpired int64
	Vacuumed         bool
	MetricsCutoff    time.Time
	BaselineCutoff   time.Time
}

// Runner owns the retention sweeps. RunOnce performs a single pass;
// Start schedules recurring passes behind the single-instance lock.
type Runner struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	scheduler *gocron.Scheduler
	lock      *flock.Flock
	running   atomic.Bool
}

// New constructs a runner. The store stays owned by the caller.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("maintenance requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "maintenance"),
		lock:   flock.New(cfg.LockPath()),
	}, nil
}

// RunOnce performs one retention sweep. A zero retention or
// recalibration setting disables the corresponding pass; the vacuum
// runs only when enabled and rows were actually removed.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	now := time.Now().UTC()
	report := Report{}

	if days := r.cfg.Maintenance.MetricsRetentionDays; days > 0 {
		report.MetricsCutoff = now.AddDate(0, 0, -days)
		pruned, err := r.store.PruneResponseMetrics(ctx, report.MetricsCutoff)
		if err != nil {
			return report, fmt.Errorf("prune response metrics: %w", err)
		}
		report.MetricsPruned = pruned

		pruned, err = r.store.PruneSpikeEvents(ctx, report.MetricsCutoff)
		if err != nil {
			return report, fmt.Errorf("prune spike events: %w", err)
		}
		report.SpikesPruned = pruned
	}

	if days := r.cfg.Baseline.RecalibrateAfterDays; days > 0 {
		report.BaselineCutoff = now.AddDate(0, 0, -days)
		expired, err := r.store.SupersedeStaleBaselines(ctx, report.BaselineCutoff)
		if err != nil {
			return report, fmt.Errorf("supersede stale baselines: %w", err)
		}
		report.BaselinesExpired = expired
	}

	if r.cfg.Maintenance.Vacuum && report.MetricsPruned+report.SpikesPruned > 0 {
		if err := r.store.Vacuum(ctx); err != nil {
			return report, fmt.Errorf("vacuum: %w", err)
		}
		report.Vacuumed = true
	}

	r.logger.Info("maintenance sweep complete",
		logging.Int64("metrics_pruned", report.MetricsPruned),
		logging.Int64("spikes_pruned", report.SpikesPruned),
		logging.Int64("baselines_expired", report.BaselinesExpired),
		logging.Bool("vacuumed", report.Vacuumed),
	)
	return report, nil
}

// Start acquires the single-instance lock and schedules recurring
// sweeps every SweepInterval minutes.
func (r *Runner) Start() error {
	if r.running.Load() {
		return errors.New("maintenance runner already started")
	}

	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire maintenance lock: %w", err)
	}
	if !ok {
		return errors.New("another maintenance runner holds the lock")
	}

	interval := r.cfg.Maintenance.SweepInterval
	if interval < 1 {
		interval = 1
	}
	r.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := r.scheduler.Every(interval).Minutes().Do(r.sweep); err != nil {
		_ = r.lock.Unlock()
		r.scheduler = nil
		return fmt.Errorf("schedule sweep: %w", err)
	}
	r.scheduler.StartAsync()
	r.running.Store(true)
	r.logger.Info("maintenance runner started",
		logging.Int("sweep_interval_minutes", interval),
		logging.String("lock", r.cfg.LockPath()),
	)
	return nil
}

// Stop halts scheduled sweeps and releases the lock.
func (r *Runner) Stop() {
	if !r.running.Load() {
		return
	}
	if r.scheduler != nil {
		r.scheduler.Stop()
		r.scheduler = nil
	}
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("failed to release maintenance lock", logging.Error(err))
	}
	r.running.Store(false)
	r.logger.Info("maintenance runner stopped")
}

func (r *Runner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("maintenance sweep failed",
			logging.Error(err),
			logging.Alert("maintenance_failure"),
		)
	}
}
