// Package testsupport provides shared fixtures for package tests: a
// config seeded with per-test temp directories, an opened store with
// registered cleanup, and course bundle builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"cadence/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CoursesDir = filepath.Join(base, "courses")
	cfg.Learner.ID = "learner-test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLearner sets the learner id on the test config.
func WithLearner(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Learner.ID = id
	}
}

// WithCalibrationWindow overrides the baseline calibration window.
func WithCalibrationWindow(window int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Baseline.CalibrationWindow = window
	}
}

// WithNewUnitBudget overrides the per-session introduction budget.
func WithNewUnitBudget(budget int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Session.NewUnitBudget = budget
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
