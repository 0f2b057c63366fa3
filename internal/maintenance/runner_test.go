package maintenance_test

import (
	"context"
	"testing"
	"time"

	"cadence/internal/baseline"
	"cadence/internal/logging"
	"cadence/internal/maintenance"
	"cadence/internal/spike"
	"cadence/internal/store"
	"cadence/internal/testsupport"
)

func seedMetric(t *testing.T, st *store.Store, sessionID string, at time.Time) {
	t.Helper()

	err := st.InsertResponseMetric(context.Background(), &store.ResponseMetric{
		SessionID:  sessionID,
		LearnerID:  "learner-test",
		UnitID:     "unit-a",
		Thread:     1,
		RecordedAt: at,
		LatencyMS:  1500,
	})
	if err != nil {
		t.Fatalf("seed metric: %v", err)
	}
}

func seedSpike(t *testing.T, st *store.Store, at time.Time) {
	t.Helper()

	err := st.InsertSpikeEvent(context.Background(), &store.SpikeEvent{
		SessionID:    "sess-spike",
		LearnerID:    "learner-test",
		UnitID:       "unit-a",
		Thread:       1,
		RecordedAt:   at,
		LatencyMS:    4000,
		RollingAvgMS: 1500,
		Ratio:        2.6,
		Response:     spike.ResponseRepeat,
	})
	if err != nil {
		t.Fatalf("seed spike: %v", err)
	}
}

func seedBaseline(t *testing.T, st *store.Store, courseID string, createdAt time.Time) {
	t.Helper()

	err := st.SaveBaseline(context.Background(), &baseline.Baseline{
		LearnerID:     "learner-test",
		CourseID:      courseID,
		SampleCount:   10,
		LatencyMeanMS: 2000,
		HadTimingData: true,
		CreatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("seed baseline: %v", err)
	}
}

func TestRunOncePrunesAgedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Maintenance.MetricsRetentionDays = 30
	cfg.Maintenance.Vacuum = true
	cfg.Baseline.RecalibrateAfterDays = 30
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now().UTC()
	aged := now.AddDate(0, 0, -45)
	fresh := now.AddDate(0, 0, -1)

	seedMetric(t, st, "sess-old", aged)
	seedMetric(t, st, "sess-old", aged.Add(time.Minute))
	seedMetric(t, st, "sess-new", fresh)
	seedSpike(t, st, aged)
	seedSpike(t, st, fresh)
	seedBaseline(t, st, "es-demo", now.AddDate(0, 0, -60))
	seedBaseline(t, st, "es-other", fresh)

	runner, err := maintenance.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("maintenance.New: %v", err)
	}
	report, err := runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.MetricsPruned != 2 || report.SpikesPruned != 1 || report.BaselinesExpired != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !report.Vacuumed {
		t.Fatal("vacuum should run after rows were pruned")
	}

	if rows, err := st.ResponseMetricsBySession(ctx, "sess-old"); err != nil || len(rows) != 0 {
		t.Fatalf("aged metrics remain: %v rows, err %v", len(rows), err)
	}
	if rows, err := st.ResponseMetricsBySession(ctx, "sess-new"); err != nil || len(rows) != 1 {
		t.Fatalf("fresh metrics = %v rows, err %v", len(rows), err)
	}
	events, err := st.SpikeEventsByLearner(ctx, "learner-test", 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("spike events = %v, err %v", len(events), err)
	}

	if b, err := st.ActiveBaseline(ctx, "learner-test", "es-demo"); err != nil || b != nil {
		t.Fatalf("aged baseline still active: %+v, err %v", b, err)
	}
	if b, err := st.ActiveBaseline(ctx, "learner-test", "es-other"); err != nil || b == nil {
		t.Fatalf("fresh baseline lost: err %v", err)
	}
}

func TestRunOnceWithDisabledPassesKeepsEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Maintenance.MetricsRetentionDays = 0
	cfg.Baseline.RecalibrateAfterDays = 0
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ancient := time.Now().UTC().AddDate(-1, 0, 0)
	seedMetric(t, st, "sess-keep", ancient)
	seedBaseline(t, st, "es-demo", ancient)

	runner, err := maintenance.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("maintenance.New: %v", err)
	}
	report, err := runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.MetricsPruned != 0 || report.SpikesPruned != 0 || report.BaselinesExpired != 0 || report.Vacuumed {
		t.Fatalf("report = %+v", report)
	}

	if rows, err := st.ResponseMetricsBySession(ctx, "sess-keep"); err != nil || len(rows) != 1 {
		t.Fatalf("metric lost: %v rows, err %v", len(rows), err)
	}
	if b, err := st.ActiveBaseline(ctx, "learner-test", "es-demo"); err != nil || b == nil {
		t.Fatalf("baseline lost: err %v", err)
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first, err := maintenance.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("maintenance.New: %v", err)
	}
	second, err := maintenance.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("maintenance.New: %v", err)
	}

	if err := first.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(); err == nil {
		first.Stop()
		t.Fatal("second Start must fail while the lock is held")
	}
	first.Stop()

	if err := second.Start(); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	second.Stop()
}
