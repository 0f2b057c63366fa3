package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLearner()
	c.normalizeSession()
	c.normalizeBaseline()
	c.normalizeSpike()
	c.normalizeAudio()
	c.normalizeMaintenance()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CoursesDir) == "" {
		c.Paths.CoursesDir = defaultCoursesDir
	}
	if c.Paths.CoursesDir, err = expandPath(c.Paths.CoursesDir); err != nil {
		return fmt.Errorf("paths.courses_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLearner() {
	if value, ok := os.LookupEnv("CADENCE_LEARNER"); ok && strings.TrimSpace(value) != "" {
		c.Learner.ID = strings.TrimSpace(value)
	}
	c.Learner.ID = strings.TrimSpace(c.Learner.ID)
	if c.Learner.ID == "" {
		c.Learner.ID = defaultLearnerID
	}
}

func (c *Config) normalizeSession() {
	if c.Session.NewUnitBudget < 0 {
		c.Session.NewUnitBudget = 0
	}
	if c.Session.MaxItems < 0 {
		c.Session.MaxItems = 0
	}
}

func (c *Config) normalizeBaseline() {
	if c.Baseline.CalibrationWindow <= 0 {
		c.Baseline.CalibrationWindow = defaultCalibrationWindow
	}
	if c.Baseline.RecalibrateAfterDays < 0 {
		c.Baseline.RecalibrateAfterDays = 0
	}
}

func (c *Config) normalizeSpike() {
	if c.Spike.RepeatThreshold <= 0 {
		c.Spike.RepeatThreshold = defaultRepeatThreshold
	}
	if c.Spike.BreakdownThreshold <= 0 {
		c.Spike.BreakdownThreshold = defaultBreakdownThreshold
	}
	if c.Spike.Smoothing <= 0 || c.Spike.Smoothing > 1 {
		c.Spike.Smoothing = defaultSmoothing
	}
	if c.Spike.MinRepeatThreshold <= 0 {
		c.Spike.MinRepeatThreshold = defaultMinRepeatThreshold
	}
}

func (c *Config) normalizeAudio() {
	if c.Audio.FetchTimeout <= 0 {
		c.Audio.FetchTimeout = defaultFetchTimeout
	}
	if c.Audio.FetchConcurrency <= 0 {
		c.Audio.FetchConcurrency = defaultFetchConcurrency
	}
}

func (c *Config) normalizeMaintenance() {
	if c.Maintenance.MetricsRetentionDays < 0 {
		c.Maintenance.MetricsRetentionDays = 0
	}
	if c.Maintenance.SweepInterval <= 0 {
		c.Maintenance.SweepInterval = defaultSweepInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
