package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	CacheDir   string `toml:"cache_dir"`
	LogDir     string `toml:"log_dir"`
	CoursesDir string `toml:"courses_dir"`
}

// Learner identifies the local learner. The engine treats the id as an
// opaque key supplied by the surrounding authentication layer; on a
// single-user install it comes from here or the CADENCE_LEARNER env var.
type Learner struct {
	ID string `toml:"id"`
}

// Session contains per-session limits.
type Session struct {
	NewUnitBudget int `toml:"new_unit_budget"`
	MaxItems      int `toml:"max_items"`
}

// Baseline contains calibration settings.
type Baseline struct {
	CalibrationWindow    int `toml:"calibration_window"`
	RecalibrateAfterDays int `toml:"recalibrate_after_days"`
}

// Spike contains anomaly-detection thresholds.
type Spike struct {
	RepeatThreshold    float64 `toml:"repeat_threshold"`
	BreakdownThreshold float64 `toml:"breakdown_threshold"`
	Smoothing          float64 `toml:"smoothing"`
	MinRepeatThreshold float64 `toml:"min_repeat_threshold"`
}

// Audio contains cache-fill settings.
type Audio struct {
	FetchTimeout     int  `toml:"fetch_timeout"`
	FetchConcurrency int  `toml:"fetch_concurrency"`
	VerifyChecksums  bool `toml:"verify_checksums"`
}

// Maintenance contains retention and sweep settings.
type Maintenance struct {
	MetricsRetentionDays int  `toml:"metrics_retention_days"`
	SweepInterval        int  `toml:"sweep_interval"`
	Vacuum               bool `toml:"vacuum"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Cadence.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, log, and course bundle directories
//   - Learner: local learner identity
//   - Session: new-unit budget and item cap per session
//   - Baseline: calibration window size and recalibration age
//   - Spike: detection thresholds and rolling-average smoothing
//   - Audio: cache-fill timeouts and concurrency
//   - Maintenance: metric retention and sweep cadence
//   - Logging: log format, level, and retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	Learner     Learner     `toml:"learner"`
	Session     Session     `toml:"session"`
	Baseline    Baseline    `toml:"baseline"`
	Spike       Spike       `toml:"spike"`
	Audio       Audio       `toml:"audio"`
	Maintenance Maintenance `toml:"maintenance"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cadence/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cadence/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cadence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for engine operation.
// CoursesDir is created on a best-effort basis so the engine can run when
// course bundles live on storage that is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.CoursesDir) != "" {
		_ = os.MkdirAll(c.Paths.CoursesDir, 0o755)
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cadence.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "cadence.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the config path expansion rules to other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "cadence", "audio")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/cadence/audio"
	}
	return filepath.Join(home, ".cache", "cadence", "audio")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
