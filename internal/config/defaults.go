package config

const (
	defaultDataDir              = "~/.local/share/cadence"
	defaultLogDir               = "~/.local/share/cadence/logs"
	defaultCoursesDir           = "~/.local/share/cadence/courses"
	defaultLearnerID            = "default"
	defaultNewUnitBudget        = 5
	defaultCalibrationWindow    = 10
	defaultRecalibrateAfterDays = 30
	defaultRepeatThreshold      = 2.0
	defaultBreakdownThreshold   = 3.0
	defaultSmoothing            = 0.3
	defaultMinRepeatThreshold   = 1.4
	defaultFetchTimeout         = 30
	defaultFetchConcurrency     = 2
	defaultMetricsRetentionDays = 180
	defaultSweepInterval        = 60
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			CacheDir:   defaultCacheDir(),
			LogDir:     defaultLogDir,
			CoursesDir: defaultCoursesDir,
		},
		Learner: Learner{
			ID: defaultLearnerID,
		},
		Session: Session{
			NewUnitBudget: defaultNewUnitBudget,
		},
		Baseline: Baseline{
			CalibrationWindow:    defaultCalibrationWindow,
			RecalibrateAfterDays: defaultRecalibrateAfterDays,
		},
		Spike: Spike{
			RepeatThreshold:    defaultRepeatThreshold,
			BreakdownThreshold: defaultBreakdownThreshold,
			Smoothing:          defaultSmoothing,
			MinRepeatThreshold: defaultMinRepeatThreshold,
		},
		Audio: Audio{
			FetchTimeout:     defaultFetchTimeout,
			FetchConcurrency: defaultFetchConcurrency,
			VerifyChecksums:  true,
		},
		Maintenance: Maintenance{
			MetricsRetentionDays: defaultMetricsRetentionDays,
			SweepInterval:        defaultSweepInterval,
			Vacuum:               true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
