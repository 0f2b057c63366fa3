package spike_test

import (
	"math"
	"testing"

	"cadence/internal/baseline"
	"cadence/internal/spike"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func liveDetector(t *testing.T, warmupMS float64) *spike.Detector {
	t.Helper()
	d := spike.NewDetector(spike.Options{})
	d.Seed(nil)
	if got := d.Observe(spike.Observation{UnitID: "unit-0", Thread: 1, LatencyMS: warmupMS, PhraseLen: 1}); got.Event != nil {
		t.Fatalf("warmup observation fired %+v", got.Event)
	}
	return d
}

func TestNewDetectorAppliesDefaults(t *testing.T) {
	d := spike.NewDetector(spike.Options{})
	if d.State() != spike.StateUnset {
		t.Fatalf("state = %s, want %s", d.State(), spike.StateUnset)
	}
	repeat, breakdown := d.Thresholds()
	if !almostEqual(repeat, 2.0) || !almostEqual(breakdown, 3.0) {
		t.Fatalf("thresholds = %v/%v, want 2/3", repeat, breakdown)
	}
}

func TestCalibratingNeverEmits(t *testing.T) {
	d := spike.NewDetector(spike.Options{})
	d.StartCalibration()
	if d.State() != spike.StateCalibrating {
		t.Fatalf("state = %s, want %s", d.State(), spike.StateCalibrating)
	}

	first := d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 1000, PhraseLen: 1})
	huge := d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 5000, PhraseLen: 1})
	if first.Event != nil || huge.Event != nil {
		t.Fatal("calibrating detector must not emit events")
	}
	if want := 0.3*5000 + 0.7*1000; !almostEqual(d.RollingAvg(), want) {
		t.Fatalf("rolling avg = %v, want %v", d.RollingAvg(), want)
	}
}

func TestCalibrationWarmsAverageForLive(t *testing.T) {
	d := spike.NewDetector(spike.Options{})
	d.StartCalibration()
	d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 1000, PhraseLen: 1})
	d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 5000, PhraseLen: 1})

	d.Seed(nil)
	if d.State() != spike.StateLive {
		t.Fatalf("state = %s, want %s", d.State(), spike.StateLive)
	}

	got := d.Observe(spike.Observation{UnitID: "unit-2", Thread: 1, LatencyMS: 6600, PhraseLen: 1})
	if got.Event == nil {
		t.Fatal("expected a spike against the warmed average")
	}
	if got.Event.Response != spike.ResponseBreakdown {
		t.Fatalf("response = %s, want %s", got.Event.Response, spike.ResponseBreakdown)
	}
	if !almostEqual(got.Event.Ratio, 3.0) {
		t.Fatalf("ratio = %v, want 3", got.Event.Ratio)
	}
}

func TestFirstLiveObservationCannotSpike(t *testing.T) {
	d := spike.NewDetector(spike.Options{})
	d.Seed(nil)

	got := d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 9999, PhraseLen: 1})
	if got.Event != nil {
		t.Fatalf("first live observation fired %+v", got.Event)
	}
	if !almostEqual(d.RollingAvg(), 9999) {
		t.Fatalf("rolling avg = %v, want 9999", d.RollingAvg())
	}
}

func TestBreakdownAndRepeatClassification(t *testing.T) {
	d := liveDetector(t, 1000)

	got := d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 3000, PhraseLen: 1})
	if got.Event == nil || got.Event.Response != spike.ResponseBreakdown {
		t.Fatalf("3x latency = %+v, want breakdown", got.Event)
	}
	if !almostEqual(got.Event.RollingAvgMS, 1000) {
		t.Fatalf("event rolling avg = %v, want pre-update 1000", got.Event.RollingAvgMS)
	}
	if want := 0.3*3000 + 0.7*1000; !almostEqual(d.RollingAvg(), want) {
		t.Fatalf("rolling avg after spike = %v, want %v", d.RollingAvg(), want)
	}

	d = liveDetector(t, 1000)
	got = d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 2000, PhraseLen: 1})
	if got.Event == nil || got.Event.Response != spike.ResponseRepeat {
		t.Fatalf("2x latency = %+v, want repeat", got.Event)
	}

	d = liveDetector(t, 1000)
	got = d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 1500, PhraseLen: 1})
	if got.Event != nil {
		t.Fatalf("1.5x latency fired %+v, want nothing", got.Event)
	}
}

func TestNormalizationUsesSquareRootOfPhraseLength(t *testing.T) {
	d := liveDetector(t, 1000)
	got := d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 4000, PhraseLen: 4})
	if !almostEqual(got.NormalizedMS, 2000) {
		t.Fatalf("normalized = %v, want 2000", got.NormalizedMS)
	}
	if got.Event == nil || got.Event.Response != spike.ResponseRepeat {
		t.Fatalf("normalized 2x = %+v, want repeat", got.Event)
	}

	d = liveDetector(t, 1000)
	got = d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 4000, PhraseLen: 16})
	if !almostEqual(got.NormalizedMS, 1000) {
		t.Fatalf("normalized = %v, want 1000", got.NormalizedMS)
	}
	if got.Event != nil {
		t.Fatalf("long phrase fired %+v, want nothing", got.Event)
	}

	d = liveDetector(t, 500)
	got = d.Observe(spike.Observation{UnitID: "unit-1", Thread: 1, LatencyMS: 1000, PhraseLen: 0})
	if !almostEqual(got.NormalizedMS, 1000) {
		t.Fatalf("zero phrase length normalized = %v, want raw 1000", got.NormalizedMS)
	}
	if got.Event == nil || got.Event.Response != spike.ResponseRepeat {
		t.Fatalf("zero phrase length = %+v, want repeat", got.Event)
	}
}

func TestSeedPersonalizesThresholds(t *testing.T) {
	tests := []struct {
		name          string
		b             *baseline.Baseline
		wantRepeat    float64
		wantBreakdown float64
	}{
		{
			name:          "tight baseline clamps to floor",
			b:             &baseline.Baseline{LatencyMeanMS: 1000, LatencyStddevMS: 150, HadTimingData: true},
			wantRepeat:    1.4,
			wantBreakdown: 2.1,
		},
		{
			name:          "moderate baseline lands between",
			b:             &baseline.Baseline{LatencyMeanMS: 1000, LatencyStddevMS: 400, HadTimingData: true},
			wantRepeat:    1.8,
			wantBreakdown: 2.7,
		},
		{
			name:          "loose baseline clamps to configured",
			b:             &baseline.Baseline{LatencyMeanMS: 1000, LatencyStddevMS: 600, HadTimingData: true},
			wantRepeat:    2.0,
			wantBreakdown: 3.0,
		},
		{
			name:          "no timing data keeps configured",
			b:             &baseline.Baseline{LatencyMeanMS: 1000, LatencyStddevMS: 50, HadTimingData: false},
			wantRepeat:    2.0,
			wantBreakdown: 3.0,
		},
		{
			name:          "nil baseline keeps configured",
			b:             nil,
			wantRepeat:    2.0,
			wantBreakdown: 3.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := spike.NewDetector(spike.Options{})
			d.Seed(tt.b)
			if d.State() != spike.StateLive {
				t.Fatalf("state = %s, want %s", d.State(), spike.StateLive)
			}
			repeat, breakdown := d.Thresholds()
			if !almostEqual(repeat, tt.wantRepeat) {
				t.Fatalf("repeat = %v, want %v", repeat, tt.wantRepeat)
			}
			if !almostEqual(breakdown, tt.wantBreakdown) {
				t.Fatalf("breakdown = %v, want %v", breakdown, tt.wantBreakdown)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	if got, ok := spike.ParseResponse(" Breakdown "); !ok || got != spike.ResponseBreakdown {
		t.Fatalf("ParseResponse(Breakdown) = %q, %v", got, ok)
	}
	if _, ok := spike.ParseResponse("skip"); ok {
		t.Fatal("expected unknown response to fail")
	}
}
