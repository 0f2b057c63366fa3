package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLearner(); err != nil {
		return err
	}
	if err := c.validateBaseline(); err != nil {
		return err
	}
	if err := c.validateSpike(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLearner() error {
	if strings.TrimSpace(c.Learner.ID) == "" {
		return errors.New("learner.id must be set (or set CADENCE_LEARNER)")
	}
	return nil
}

func (c *Config) validateBaseline() error {
	if c.Baseline.CalibrationWindow < 1 {
		return errors.New("baseline.calibration_window must be positive")
	}
	return nil
}

func (c *Config) validateSpike() error {
	if c.Spike.RepeatThreshold <= 1 {
		return errors.New("spike.repeat_threshold must be greater than 1")
	}
	if c.Spike.BreakdownThreshold <= c.Spike.RepeatThreshold {
		return errors.New("spike.breakdown_threshold must be greater than spike.repeat_threshold")
	}
	if c.Spike.Smoothing <= 0 || c.Spike.Smoothing > 1 {
		return errors.New("spike.smoothing must be in (0, 1]")
	}
	if c.Spike.MinRepeatThreshold <= 1 || c.Spike.MinRepeatThreshold > c.Spike.RepeatThreshold {
		return fmt.Errorf("spike.min_repeat_threshold must be in (1, %g]", c.Spike.RepeatThreshold)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.fetch_timeout":     c.Audio.FetchTimeout,
		"audio.fetch_concurrency": c.Audio.FetchConcurrency,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if c.Maintenance.MetricsRetentionDays < 0 {
		return errors.New("maintenance.metrics_retention_days must be >= 0")
	}
	if c.Maintenance.SweepInterval <= 0 {
		return errors.New("maintenance.sweep_interval must be positive (minutes)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
