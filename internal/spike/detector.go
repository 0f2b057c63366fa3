package spike

import (
	"math"
	"strings"

	"cadence/internal/baseline"
)

// State tracks where a detector is in its per-session lifecycle.
type State string

const (
	// StateUnset means the session has not decided between seeding and
	// calibrating yet.
	StateUnset State = "unset"
	// StateCalibrating means responses are accumulating silently.
	StateCalibrating State = "calibrating"
	// StateLive means the detector emits events.
	StateLive State = "live"
)

// Response is the remedial action attached to a spike event.
type Response string

const (
	// ResponseRepeat replays the unit for a moderate overshoot.
	ResponseRepeat Response = "repeat"
	// ResponseBreakdown decomposes the unit for a severe overshoot.
	ResponseBreakdown Response = "breakdown"
)

var responseSet = map[Response]struct{}{
	ResponseRepeat:    {},
	ResponseBreakdown: {},
}

// ParseResponse converts a string into a known Response.
func ParseResponse(value string) (Response, bool) {
	normalized := Response(strings.ToLower(strings.TrimSpace(value)))
	_, ok := responseSet[normalized]
	return normalized, ok
}

// Observation is one response latency handed to the detector.
type Observation struct {
	UnitID    string
	Thread    int
	LatencyMS float64
	PhraseLen int
}

// Event is one detected spike. RollingAvgMS is the average at detection
// time, before the observation folded in.
type Event struct {
	UnitID       string
	Thread       int
	LatencyMS    float64
	RollingAvgMS float64
	Ratio        float64
	Response     Response
}

// Assessment reports how one observation was judged. Event is nil when
// nothing fired. Ratio is zero until a live average exists.
type Assessment struct {
	NormalizedMS float64
	RollingAvgMS float64
	Ratio        float64
	Event        *Event
}

// Options configure a detector. Zero values fall back to the package
// defaults.
type Options struct {
	RepeatThreshold    float64
	BreakdownThreshold float64
	Smoothing          float64
	MinRepeatThreshold float64
}

const (
	defaultRepeatThreshold    = 2.0
	defaultBreakdownThreshold = 3.0
	defaultSmoothing          = 0.3
	defaultMinRepeatThreshold = 1.4
)

// Detector classifies response latencies for one learner session. It is
// not safe for concurrent use; the session event loop owns it.
type Detector struct {
	state State

	configuredRepeat    float64
	configuredBreakdown float64
	repeat              float64
	breakdown           float64
	smoothing           float64
	minRepeat           float64

	avg    float64
	avgSet bool
}

// NewDetector returns a detector in StateUnset with the configured
// thresholds in place.
func NewDetector(opts Options) *Detector {
	repeat := opts.RepeatThreshold
	if repeat <= 1 {
		repeat = defaultRepeatThreshold
	}
	breakdown := opts.BreakdownThreshold
	if breakdown <= repeat {
		breakdown = repeat * (defaultBreakdownThreshold / defaultRepeatThreshold)
	}
	smoothing := opts.Smoothing
	if smoothing <= 0 || smoothing > 1 {
		smoothing = defaultSmoothing
	}
	minRepeat := opts.MinRepeatThreshold
	if minRepeat <= 1 || minRepeat > repeat {
		minRepeat = defaultMinRepeatThreshold
	}
	return &Detector{
		state:               StateUnset,
		configuredRepeat:    repeat,
		configuredBreakdown: breakdown,
		repeat:              repeat,
		breakdown:           breakdown,
		smoothing:           smoothing,
		minRepeat:           minRepeat,
	}
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	return d.state
}

// Thresholds returns the active repeat and breakdown ratios.
func (d *Detector) Thresholds() (repeat, breakdown float64) {
	return d.repeat, d.breakdown
}

// RollingAvg returns the current rolling average of normalized latency,
// or zero before any observation.
func (d *Detector) RollingAvg() float64 {
	if !d.avgSet {
		return 0
	}
	return d.avg
}

// StartCalibration moves an unset detector into calibration.
func (d *Detector) StartCalibration() {
	if d.state == StateUnset {
		d.state = StateCalibrating
	}
}

// Seed moves the detector live. A baseline with timing data personalizes
// the repeat threshold to clamp((mean+2σ)/mean, minRepeat,
// configuredRepeat); the breakdown threshold keeps the configured
// breakdown/repeat proportion. Without timing data the configured
// thresholds stay as they are.
func (d *Detector) Seed(b *baseline.Baseline) {
	d.state = StateLive
	if b == nil || !b.HadTimingData || b.LatencyMeanMS <= 0 {
		return
	}
	personalized := (b.LatencyMeanMS + 2*b.LatencyStddevMS) / b.LatencyMeanMS
	if personalized < d.minRepeat {
		personalized = d.minRepeat
	}
	if personalized > d.configuredRepeat {
		personalized = d.configuredRepeat
	}
	d.repeat = personalized
	d.breakdown = personalized * (d.configuredBreakdown / d.configuredRepeat)
}

// Observe judges one response. Outside StateLive the observation only
// warms the rolling average and never produces an event. The first live
// observation with no average yet initializes it and cannot spike. The
// average folds in every observation afterward, spiked or not.
func (d *Detector) Observe(obs Observation) Assessment {
	normalized := obs.LatencyMS / lengthFactor(obs.PhraseLen)

	if d.state != StateLive {
		d.fold(normalized)
		return Assessment{NormalizedMS: normalized, RollingAvgMS: d.avg}
	}

	if !d.avgSet || d.avg <= 0 {
		d.avg = normalized
		d.avgSet = true
		return Assessment{NormalizedMS: normalized, RollingAvgMS: d.avg}
	}

	before := d.avg
	ratio := normalized / before
	assessment := Assessment{
		NormalizedMS: normalized,
		RollingAvgMS: before,
		Ratio:        ratio,
	}
	switch {
	case ratio >= d.breakdown:
		assessment.Event = d.event(obs, before, ratio, ResponseBreakdown)
	case ratio >= d.repeat:
		assessment.Event = d.event(obs, before, ratio, ResponseRepeat)
	}
	d.fold(normalized)
	return assessment
}

func (d *Detector) event(obs Observation, avg, ratio float64, response Response) *Event {
	return &Event{
		UnitID:       obs.UnitID,
		Thread:       obs.Thread,
		LatencyMS:    obs.LatencyMS,
		RollingAvgMS: avg,
		Ratio:        ratio,
		Response:     response,
	}
}

func (d *Detector) fold(normalized float64) {
	if !d.avgSet {
		d.avg = normalized
		d.avgSet = true
		return
	}
	d.avg = d.smoothing*normalized + (1-d.smoothing)*d.avg
}

// lengthFactor returns sqrt(max(n, 1)). Square-root scaling gives longer
// phrases more latitude without forgiving them linearly.
func lengthFactor(n int) float64 {
	if n < 1 {
		n = 1
	}
	return math.Sqrt(float64(n))
}
