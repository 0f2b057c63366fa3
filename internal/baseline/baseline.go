package baseline

import (
	"sync"
	"time"
)

// Baseline is one calibration result for a (learner, course) pair.
// SampleCount counts only samples that carried timing data; when it
// falls short of the calibration window, HadTimingData is false and
// downstream consumers keep their configured defaults.
type Baseline struct {
	ID              string
	LearnerID       string
	CourseID        string
	SampleCount     int
	LatencyMeanMS   float64
	LatencyStddevMS float64
	DeltaMeanMS     float64
	DeltaStddevMS   float64
	HadTimingData   bool
	CreatedAt       time.Time
	SupersededAt    *time.Time
}

// Holder publishes the current baseline for concurrent readers.
// Replace swaps the whole record; a reader observes either the old
// baseline or the new one, never a partial write.
type Holder struct {
	mu      sync.RWMutex
	current *Baseline
}

// NewHolder returns a Holder with no baseline installed.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the installed baseline, or nil before calibration.
func (h *Holder) Current() *Baseline {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Replace installs a fresh baseline.
func (h *Holder) Replace(b *Baseline) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = b
}
