package store

import (
	"time"

	"cadence/internal/spike"
)

// Mode tags a response metric with the detector state that judged it.
type Mode string

const (
	// ModeCalibration marks responses consumed by the calibration window.
	ModeCalibration Mode = "calibration"
	// ModeLive marks responses judged by a live detector.
	ModeLive Mode = "live"
)

// ResponseMetric is one learner response event. Rows are append-only.
type ResponseMetric struct {
	ID              string
	SessionID       string
	LearnerID       string
	UnitID          string
	Thread          int
	RecordedAt      time.Time
	LatencyMS       float64
	PhraseLen       int
	NormalizedMS    float64
	DurationDeltaMS float64
	TriggeredSpike  bool
	Mode            Mode
}

// SpikeEvent is one detected latency anomaly. Rows are append-only.
type SpikeEvent struct {
	ID           string
	SessionID    string
	LearnerID    string
	UnitID       string
	Thread       int
	RecordedAt   time.Time
	LatencyMS    float64
	RollingAvgMS float64
	Ratio        float64
	Response     spike.Response
}

// Session is one practice session's summary row.
type Session struct {
	ID                string
	LearnerID         string
	CourseID          string
	StartedAt         time.Time
	EndedAt           *time.Time
	DurationMS        int64
	ItemsPracticed    int
	SpikesDetected    int
	FinalRollingAvgMS float64
}

// Stats aggregates one learner's persisted state for diagnostics.
type Stats struct {
	UnitsTracked    int
	UnitsRetired    int
	Sessions        int
	ResponseMetrics int
	SpikeEvents     int
	ActiveBaselines int
}

// DatabaseHealth reports diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	MissingTables    []string
	TotalSessions    int
	IntegrityCheck   bool
	Error            string
}
