package session

import (
	"context"
	"fmt"
	"time"

	"cadence/internal/baseline"
	"cadence/internal/cycle"
	"cadence/internal/logging"
	"cadence/internal/progress"
	"cadence/internal/spike"
	"cadence/internal/store"
)

// Response is the learner's answer to the active cycle. LatencyMS of
// zero or less means no timing was captured; such responses count
// toward scheduling but never touch the rolling average.
type Response struct {
	LatencyMS float64
	Correct   bool
	At        time.Time
}

// SubmitResult reports how one response was judged and folded in.
type SubmitResult struct {
	Outcome       progress.Outcome
	Mode          store.Mode
	Spiked        bool
	Response      spike.Response
	NormalizedMS  float64
	RollingAvgMS  float64
	BaselineReady bool
}

// Summary is the completed session's totals.
type Summary struct {
	SessionID         string
	LearnerID         string
	CourseID          string
	StartedAt         time.Time
	EndedAt           time.Time
	DurationMS        int64
	ItemsPracticed    int
	UnitsIntroduced   int
	SpikesDetected    int
	FinalRollingAvgMS float64
}

// Submit folds the learner's response to the active cycle into the
// detector, the calibration window, and the schedule, and queues the
// persistence writes. A spike forces a failure outcome so the unit
// stays at its current schedule position, and queues remedial replays:
// a repeat spike replays one practice cycle, a breakdown replays the
// introduction first.
func (o *Orchestrator) Submit(resp Response) (SubmitResult, error) {
	if o.current == nil {
		return SubmitResult{}, ErrNoActiveCycle
	}
	cur := o.current
	o.current = nil

	now := resp.At
	if now.IsZero() {
		now = time.Now().UTC()
	}
	unit := cur.unit
	hasTiming := resp.LatencyMS > 0
	calibrating := o.detector.State() != spike.StateLive

	var durationDelta float64
	if hasTiming {
		durationDelta = resp.LatencyMS - float64(cur.cycle.Target.Voice1.Duration.Milliseconds())
	}

	assessment := spike.Assessment{RollingAvgMS: o.detector.RollingAvg()}
	if hasTiming {
		assessment = o.detector.Observe(spike.Observation{
			UnitID:    unit.UnitID,
			Thread:    unit.Thread,
			LatencyMS: resp.LatencyMS,
			PhraseLen: o.phraseLength(unit.UnitID),
		})
	}

	rec := record{}
	baselineReady := false
	if calibrating {
		o.calibrator.Add(baseline.Sample{
			LatencyMS:       resp.LatencyMS,
			DurationDeltaMS: durationDelta,
			HasTiming:       hasTiming,
		})
		if o.calibrator.Full() {
			b := o.calibrator.Finalize(o.learnerID, o.course.ID)
			o.baselines.Replace(b)
			o.detector.Seed(b)
			rec.baseline = b
			baselineReady = true
			repeat, breakdown := o.detector.Thresholds()
			o.logger.Info("calibration complete",
				logging.String(logging.FieldSessionID, o.id),
				logging.Int("sample_count", b.SampleCount),
				logging.Float64("latency_mean_ms", b.LatencyMeanMS),
				logging.Float64("latency_stddev_ms", b.LatencyStddevMS),
				logging.Bool("had_timing_data", b.HadTimingData),
				logging.Float64("repeat_threshold", repeat),
				logging.Float64("breakdown_threshold", breakdown),
			)
		}
	}

	spiked := assessment.Event != nil
	outcome := progress.OutcomeFailure
	if resp.Correct && !spiked {
		outcome = progress.OutcomeSuccess
	}
	o.scheduler.Apply(unit, outcome, now)

	mode := store.ModeLive
	if calibrating {
		mode = store.ModeCalibration
	}
	rec.metric = &store.ResponseMetric{
		SessionID:       o.id,
		LearnerID:       o.learnerID,
		UnitID:          unit.UnitID,
		Thread:          unit.Thread,
		RecordedAt:      now,
		LatencyMS:       resp.LatencyMS,
		PhraseLen:       o.phraseLength(unit.UnitID),
		NormalizedMS:    assessment.NormalizedMS,
		DurationDeltaMS: durationDelta,
		TriggeredSpike:  spiked,
		Mode:            mode,
	}

	result := SubmitResult{
		Outcome:       outcome,
		Mode:          mode,
		Spiked:        spiked,
		NormalizedMS:  assessment.NormalizedMS,
		RollingAvgMS:  o.detector.RollingAvg(),
		BaselineReady: baselineReady,
	}
	if spiked {
		ev := assessment.Event
		result.Response = ev.Response
		o.spikes++
		rec.spike = &store.SpikeEvent{
			SessionID:    o.id,
			LearnerID:    o.learnerID,
			UnitID:       unit.UnitID,
			Thread:       unit.Thread,
			RecordedAt:   now,
			LatencyMS:    ev.LatencyMS,
			RollingAvgMS: ev.RollingAvgMS,
			Ratio:        ev.Ratio,
			Response:     ev.Response,
		}
		switch ev.Response {
		case spike.ResponseBreakdown:
			o.remedial = append(o.remedial,
				remedialStep{unitID: unit.UnitID, typ: cycle.TypeIntro},
				remedialStep{unitID: unit.UnitID, typ: cycle.TypePractice},
			)
		default:
			o.remedial = append(o.remedial, remedialStep{unitID: unit.UnitID, typ: cycle.TypePractice})
		}
		o.logger.Warn("latency spike detected",
			logging.String(logging.FieldSessionID, o.id),
			logging.String(logging.FieldUnitID, unit.UnitID),
			logging.Int(logging.FieldThread, unit.Thread),
			logging.Float64("ratio", ev.Ratio),
			logging.String("response", string(ev.Response)),
			logging.Alert("latency_spike"),
		)
	}

	snapshot := *unit
	rec.unit = &snapshot
	rec.cursor = &cursorRecord{learnerID: o.learnerID, thread: unit.Thread, seq: o.scheduler.Cursor(unit.Thread)}
	o.recorder.enqueue(rec)
	o.items++
	return result, nil
}

// Finish closes the session: in-flight fetches are cancelled, queued
// writes drain, and the session row is completed. The orchestrator
// cannot be used afterwards.
func (o *Orchestrator) Finish(ctx context.Context) (Summary, error) {
	if o.finished {
		return Summary{}, ErrSessionComplete
	}
	o.finished = true
	o.current = nil

	o.manager.Close()
	o.recorder.Close()

	endedAt := time.Now().UTC()
	summary := Summary{
		SessionID:         o.id,
		LearnerID:         o.learnerID,
		CourseID:          o.course.ID,
		StartedAt:         o.startedAt,
		EndedAt:           endedAt,
		DurationMS:        endedAt.Sub(o.startedAt).Milliseconds(),
		ItemsPracticed:    o.items,
		UnitsIntroduced:   o.introduced,
		SpikesDetected:    o.spikes,
		FinalRollingAvgMS: o.detector.RollingAvg(),
	}
	if err := o.store.FinishSession(ctx, &store.Session{
		ID:                o.id,
		LearnerID:         o.learnerID,
		CourseID:          o.course.ID,
		StartedAt:         o.startedAt,
		EndedAt:           &endedAt,
		DurationMS:        summary.DurationMS,
		ItemsPracticed:    summary.ItemsPracticed,
		SpikesDetected:    summary.SpikesDetected,
		FinalRollingAvgMS: summary.FinalRollingAvgMS,
	}); err != nil {
		return summary, fmt.Errorf("session: finish session: %w", err)
	}
	o.logger.Info("session finished",
		logging.String(logging.FieldSessionID, o.id),
		logging.Int("items_practiced", summary.ItemsPracticed),
		logging.Int("units_introduced", summary.UnitsIntroduced),
		logging.Int("spikes_detected", summary.SpikesDetected),
		logging.Int64("duration_ms", summary.DurationMS),
	)
	return summary, nil
}

func (o *Orchestrator) phraseLength(unitID string) int {
	if unit, ok := o.course.Unit(unitID); ok {
		return unit.PhraseLength()
	}
	return 0
}
