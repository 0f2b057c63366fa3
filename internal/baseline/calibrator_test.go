package baseline_test

import (
	"math"
	"sync"
	"testing"

	"cadence/internal/baseline"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalibratorFillsAfterWindow(t *testing.T) {
	c := baseline.NewCalibrator(3)
	if c.Full() {
		t.Fatal("new calibrator should not be full")
	}
	for i := 0; i < 3; i++ {
		c.Add(baseline.Sample{LatencyMS: 1000, HasTiming: true})
	}
	if !c.Full() {
		t.Fatalf("calibrator with %d samples should be full", c.Count())
	}
}

func TestFinalizeComputesStatistics(t *testing.T) {
	c := baseline.NewCalibrator(5)
	latencies := []float64{1000, 1200, 1400, 1600, 1800}
	deltas := []float64{-100, -50, 0, 50, 100}
	for i := range latencies {
		c.Add(baseline.Sample{
			LatencyMS:       latencies[i],
			DurationDeltaMS: deltas[i],
			HasTiming:       true,
		})
	}

	b := c.Finalize("learner-1", "es-101")
	if b.SampleCount != 5 {
		t.Fatalf("sample count = %d, want 5", b.SampleCount)
	}
	if !b.HadTimingData {
		t.Fatal("expected HadTimingData with a full timed window")
	}
	if !almostEqual(b.LatencyMeanMS, 1400) {
		t.Fatalf("latency mean = %v, want 1400", b.LatencyMeanMS)
	}
	if want := math.Sqrt(80000); !almostEqual(b.LatencyStddevMS, want) {
		t.Fatalf("latency stddev = %v, want %v", b.LatencyStddevMS, want)
	}
	if !almostEqual(b.DeltaMeanMS, 0) {
		t.Fatalf("delta mean = %v, want 0", b.DeltaMeanMS)
	}
	if want := math.Sqrt(5000); !almostEqual(b.DeltaStddevMS, want) {
		t.Fatalf("delta stddev = %v, want %v", b.DeltaStddevMS, want)
	}
	if b.LearnerID != "learner-1" || b.CourseID != "es-101" {
		t.Fatalf("identity = %s/%s, want learner-1/es-101", b.LearnerID, b.CourseID)
	}
	if b.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}
}

func TestFinalizeWithoutTimingKeepsDefaults(t *testing.T) {
	c := baseline.NewCalibrator(3)
	for i := 0; i < 3; i++ {
		c.Add(baseline.Sample{HasTiming: false})
	}

	b := c.Finalize("learner-1", "es-101")
	if b.HadTimingData {
		t.Fatal("expected HadTimingData=false without timed samples")
	}
	if b.SampleCount != 0 {
		t.Fatalf("sample count = %d, want 0", b.SampleCount)
	}
	if b.LatencyMeanMS != 0 || b.LatencyStddevMS != 0 {
		t.Fatalf("expected zero statistics, got mean=%v stddev=%v", b.LatencyMeanMS, b.LatencyStddevMS)
	}
}

func TestFinalizeShortTimedWindow(t *testing.T) {
	c := baseline.NewCalibrator(4)
	c.Add(baseline.Sample{LatencyMS: 900, HasTiming: true})
	c.Add(baseline.Sample{HasTiming: false})
	c.Add(baseline.Sample{LatencyMS: 1100, HasTiming: true})
	c.Add(baseline.Sample{HasTiming: false})

	b := c.Finalize("learner-1", "es-101")
	if b.HadTimingData {
		t.Fatal("two timed samples out of four should not count as timing data")
	}
	if b.SampleCount != 2 {
		t.Fatalf("sample count = %d, want 2", b.SampleCount)
	}
	if !almostEqual(b.LatencyMeanMS, 1000) {
		t.Fatalf("latency mean = %v, want 1000", b.LatencyMeanMS)
	}
}

func TestHolderReplaceIsObservedWhole(t *testing.T) {
	h := baseline.NewHolder()
	if h.Current() != nil {
		t.Fatal("fresh holder should have no baseline")
	}

	first := &baseline.Baseline{LearnerID: "learner-1", SampleCount: 10}
	second := &baseline.Baseline{LearnerID: "learner-1", SampleCount: 20}
	h.Replace(first)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := h.Current()
				if b != first && b != second {
					t.Error("reader observed a baseline that was never installed")
					return
				}
			}
		}()
	}
	h.Replace(second)
	wg.Wait()

	if got := h.Current(); got != second {
		t.Fatalf("current = %+v, want the replacement", got)
	}
}
