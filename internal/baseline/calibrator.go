package baseline

import (
	"math"
	"time"
)

// Sample is one calibration observation. HasTiming is false when the
// response carried no usable latency measurement; such samples consume
// a calibration slot but contribute nothing to the statistics.
type Sample struct {
	LatencyMS       float64
	DurationDeltaMS float64
	HasTiming       bool
}

// Calibrator accumulates the initial response window for one learner
// and course. It is not safe for concurrent use; the session event
// loop owns it.
type Calibrator struct {
	window  int
	samples []Sample
}

// NewCalibrator returns a calibrator that fills after window samples.
func NewCalibrator(window int) *Calibrator {
	if window < 1 {
		window = 1
	}
	return &Calibrator{
		window:  window,
		samples: make([]Sample, 0, window),
	}
}

// Add records one observation.
func (c *Calibrator) Add(sample Sample) {
	c.samples = append(c.samples, sample)
}

// Count returns the number of observations recorded so far.
func (c *Calibrator) Count() int {
	return len(c.samples)
}

// Window returns the configured calibration window.
func (c *Calibrator) Window() int {
	return c.window
}

// Full reports whether the calibration window has been consumed.
func (c *Calibrator) Full() bool {
	return len(c.samples) >= c.window
}

// Finalize computes the baseline from the timed samples seen so far.
// With fewer timed samples than the window, HadTimingData is false and
// the statistics cover whatever timed samples were available.
func (c *Calibrator) Finalize(learnerID, courseID string) *Baseline {
	latencies := make([]float64, 0, len(c.samples))
	deltas := make([]float64, 0, len(c.samples))
	for _, s := range c.samples {
		if !s.HasTiming {
			continue
		}
		latencies = append(latencies, s.LatencyMS)
		deltas = append(deltas, s.DurationDeltaMS)
	}

	latencyMean, latencyStddev := meanStddev(latencies)
	deltaMean, deltaStddev := meanStddev(deltas)

	return &Baseline{
		LearnerID:       learnerID,
		CourseID:        courseID,
		SampleCount:     len(latencies),
		LatencyMeanMS:   latencyMean,
		LatencyStddevMS: latencyStddev,
		DeltaMeanMS:     deltaMean,
		DeltaStddevMS:   deltaStddev,
		HadTimingData:   len(latencies) >= c.window,
		CreatedAt:       time.Now().UTC(),
	}
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
