package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"cadence/internal/audiocache"
	"cadence/internal/baseline"
	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/cycle"
	"cadence/internal/logging"
	"cadence/internal/progress"
	"cadence/internal/readiness"
	"cadence/internal/spike"
	"cadence/internal/store"
)

// Units at or past this schedule position get review cycles.
const reviewPosition = 6

// How often a stalled audio wait re-checks the cache and re-requests
// the gap.
const fetchRetryInterval = 2 * time.Second

type remedialStep struct {
	unitID string
	typ    cycle.Type
}

type activeCycle struct {
	cycle *cycle.Cycle
	unit  *progress.Unit
}

// Orchestrator drives one practice session end to end: it selects
// units, assembles cycles, blocks until their audio is cached, judges
// responses, and records everything through the background recorder.
type Orchestrator struct {
	cfg    *config.Config
	course *catalog.Course
	store  *store.Store
	logger *slog.Logger

	id        string
	learnerID string
	startedAt time.Time

	cache     *audiocache.Cache
	manager   *audiocache.Manager
	assembler *cycle.Assembler

	scheduler  *progress.Scheduler
	detector   *spike.Detector
	calibrator *baseline.Calibrator
	baselines  *baseline.Holder

	recorder *recorder

	current    *activeCycle
	remedial   []remedialStep
	items      int
	spikes     int
	introduced int
	finished   bool
}

// New opens a session for the configured learner against one course.
// Stored progress and cursors are restored, course units without
// progress are enrolled as introduction candidates, and the detector is
// seeded from the active baseline when one exists. A session row is
// inserted before New returns; Finish completes it.
func New(ctx context.Context, cfg *config.Config, course *catalog.Course, st *store.Store, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("session: config is required")
	}
	if course == nil {
		return nil, errors.New("session: course is required")
	}
	if st == nil {
		return nil, errors.New("session: store is required")
	}
	learnerID := cfg.Learner.ID
	if learnerID == "" {
		return nil, errors.New("session: learner id not configured")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logging.NewComponentLogger(logger, "session")

	registry := audiocache.NewRegistry()
	for _, unit := range course.Units {
		if err := registerUnitAudio(registry, unit); err != nil {
			return nil, fmt.Errorf("session: register audio for %s: %w", unit.ID, err)
		}
	}

	cache, err := audiocache.Open(cfg.Paths.CacheDir, cfg.Audio.VerifyChecksums, logger)
	if err != nil {
		return nil, fmt.Errorf("session: open audio cache: %w", err)
	}

	scheduler := progress.NewScheduler(progress.Options{
		LearnerID:     learnerID,
		NewUnitBudget: cfg.Session.NewUnitBudget,
		Logger:        logger,
	})
	rows, err := st.ListUnitProgress(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("session: load progress: %w", err)
	}
	tracked := 0
	for _, row := range rows {
		if _, ok := course.Unit(row.UnitID); !ok {
			log.Debug("progress row for unknown unit skipped",
				logging.String(logging.FieldUnitID, row.UnitID),
				logging.String(logging.FieldCourseID, course.ID),
			)
			continue
		}
		scheduler.Track(row)
		tracked++
	}
	cursors, err := st.ThreadCursors(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("session: load cursors: %w", err)
	}
	for thread, seq := range cursors {
		scheduler.SetCursor(thread, seq)
	}
	enrolled := 0
	for _, unit := range course.Units {
		if _, ok := scheduler.Unit(unit.ID); ok {
			continue
		}
		scheduler.Enroll(unit.ID, unit.Thread)
		enrolled++
	}

	detector := spike.NewDetector(spike.Options{
		RepeatThreshold:    cfg.Spike.RepeatThreshold,
		BreakdownThreshold: cfg.Spike.BreakdownThreshold,
		Smoothing:          cfg.Spike.Smoothing,
		MinRepeatThreshold: cfg.Spike.MinRepeatThreshold,
	})
	calibrator := baseline.NewCalibrator(cfg.Baseline.CalibrationWindow)
	baselines := baseline.NewHolder()
	active, err := st.ActiveBaseline(ctx, learnerID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("session: load baseline: %w", err)
	}
	if active != nil {
		baselines.Replace(active)
		detector.Seed(active)
		log.Debug("baseline restored",
			logging.String(logging.FieldLearnerID, learnerID),
			logging.Int("sample_count", active.SampleCount),
			logging.Bool("had_timing_data", active.HadTimingData),
		)
	} else {
		detector.StartCalibration()
		log.Info("calibration started",
			logging.String(logging.FieldLearnerID, learnerID),
			logging.Int("window", calibrator.Window()),
		)
	}

	id := uuid.NewString()
	startedAt := time.Now().UTC()
	if err := st.InsertSession(ctx, &store.Session{
		ID:        id,
		LearnerID: learnerID,
		CourseID:  course.ID,
		StartedAt: startedAt,
	}); err != nil {
		return nil, fmt.Errorf("session: insert session: %w", err)
	}

	o := &Orchestrator{
		cfg:        cfg,
		course:     course,
		store:      st,
		logger:     log,
		id:         id,
		learnerID:  learnerID,
		startedAt:  startedAt,
		cache:      cache,
		manager:    audiocache.NewManager(&audiocache.LocalFetcher{MediaDir: course.MediaDir, Cache: cache}, registry, cfg.Audio.FetchConcurrency, time.Duration(cfg.Audio.FetchTimeout)*time.Second, logger),
		assembler:  cycle.NewAssembler(registry, 0),
		scheduler:  scheduler,
		detector:   detector,
		calibrator: calibrator,
		baselines:  baselines,
		recorder:   newRecorder(st, logger),
	}

	warm := o.prefetch(ctx)
	log.Info("session started",
		logging.String(logging.FieldSessionID, id),
		logging.String(logging.FieldLearnerID, learnerID),
		logging.String(logging.FieldCourseID, course.ID),
		logging.Int("tracked_units", tracked),
		logging.Int("enrollable_units", enrolled),
		logging.Int("new_unit_budget", scheduler.RemainingBudget()),
		logging.Int("prefetching", warm),
	)
	return o, nil
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string {
	return o.id
}

// Baseline returns the active baseline, or nil while calibrating.
func (o *Orchestrator) Baseline() *baseline.Baseline {
	return o.baselines.Current()
}

func registerUnitAudio(registry *audiocache.Registry, unit catalog.Unit) error {
	if err := registry.Register(unit.Known.AudioID, unit.Known.SourceURL, unit.Known.DurationMS); err != nil {
		return err
	}
	for _, voice := range unit.Target.Voices {
		if err := registry.Register(voice.AudioID, voice.SourceURL, voice.DurationMS); err != nil {
			return err
		}
	}
	return nil
}

// prefetch schedules background fetches for every course asset missing
// from the cache, so most cycles are ready by the time they come up.
func (o *Orchestrator) prefetch(ctx context.Context) int {
	var missing []string
	for _, unit := range o.course.Units {
		ids := [3]string{unit.Known.AudioID, unit.Target.Voices[0].AudioID, unit.Target.Voices[1].AudioID}
		for _, id := range ids {
			if _, ok := o.cache.Lookup(id); !ok {
				missing = append(missing, id)
			}
		}
	}
	return o.manager.Request(ctx, missing...)
}

// Next selects and assembles the next cycle. Remedial replays queued by
// spikes run before the schedule resumes. Units whose content or audio
// cannot be served are suspended for the rest of the session; Next
// moves on to the following candidate. ErrSessionComplete means the
// schedule is exhausted or the item cap was reached.
func (o *Orchestrator) Next(ctx context.Context) (*cycle.Cycle, error) {
	if o.current != nil {
		return nil, ErrResponsePending
	}
	if o.finished {
		return nil, ErrSessionComplete
	}
	if max := o.cfg.Session.MaxItems; max > 0 && o.items >= max {
		return nil, ErrSessionComplete
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unitID, typ, remedial, fresh, ok := o.pick()
		if !ok {
			return nil, ErrSessionComplete
		}
		unit, trackedUnit := o.scheduler.Unit(unitID)
		if !trackedUnit {
			continue
		}

		c, err := o.buildCycle(ctx, unit, typ)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.suspend(unit, err)
			continue
		}

		o.current = &activeCycle{cycle: c, unit: unit}
		if fresh {
			o.introduced++
		}
		o.logger.Debug("cycle ready",
			logging.String(logging.FieldSessionID, o.id),
			logging.String(logging.FieldUnitID, unit.UnitID),
			logging.Int(logging.FieldThread, unit.Thread),
			logging.String("cycle_type", string(c.Type)),
			logging.Bool("remedial", remedial),
		)
		return c, nil
	}
}

// pick pops the remedial queue first; otherwise it asks the scheduler.
// The fresh flag marks a unit introduced by this pick.
func (o *Orchestrator) pick() (unitID string, typ cycle.Type, remedial, fresh, ok bool) {
	for len(o.remedial) > 0 {
		step := o.remedial[0]
		o.remedial = o.remedial[1:]
		if _, tracked := o.scheduler.Unit(step.unitID); !tracked {
			continue
		}
		return step.unitID, step.typ, true, false, true
	}
	p, found := o.scheduler.Next(time.Now().UTC())
	if !found {
		return "", "", false, false, false
	}
	return p.Unit.UnitID, cycleTypeFor(p.Unit), false, p.Introduced, true
}

func (o *Orchestrator) buildCycle(ctx context.Context, unit *progress.Unit, typ cycle.Type) (*cycle.Cycle, error) {
	courseUnit, ok := o.course.Unit(unit.UnitID)
	if !ok {
		return nil, &cycle.ContentError{UnitID: unit.UnitID, Field: "unit", Reason: "not in course"}
	}
	c, err := o.assembler.Assemble(courseUnit, typ)
	if err != nil {
		return nil, err
	}
	if err := o.ensureAudio(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ensureAudio blocks until every asset the cycle references is cached.
// Completions arrive on the shared fetch channel; results for other
// cycles' assets are consumed and ignored because the cache, not the
// channel, is the readiness source of truth. The retry tick re-requests
// the gap in case a completion was consumed elsewhere.
func (o *Orchestrator) ensureAudio(ctx context.Context, c *cycle.Cycle) error {
	missing := readiness.ValidateCycle(c, o.cache).Missing
	if len(missing) == 0 {
		return nil
	}
	o.logger.Debug("awaiting cycle audio",
		logging.String(logging.FieldUnitID, c.UnitID),
		logging.Int("missing", len(missing)),
	)
	o.manager.Request(ctx, missing...)

	retry := time.NewTicker(fetchRetryInterval)
	defer retry.Stop()
	for {
		select {
		case res, open := <-o.manager.Results():
			if !open {
				return errors.New("audio fetch manager closed")
			}
			if res.Err != nil && slices.Contains(missing, res.ID) {
				return fmt.Errorf("fetch %s: %w", res.ID, res.Err)
			}
			missing = readiness.ValidateCycle(c, o.cache).Missing
			if len(missing) == 0 {
				return nil
			}
		case <-retry.C:
			missing = readiness.ValidateCycle(c, o.cache).Missing
			if len(missing) == 0 {
				return nil
			}
			o.manager.Request(ctx, missing...)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Orchestrator) suspend(unit *progress.Unit, cause error) {
	hint := "check course media files and the cache directory"
	msg := "unit audio unavailable, skipping for this session"
	var contentErr *cycle.ContentError
	if errors.As(cause, &contentErr) {
		hint = "validate the course bundle"
		msg = "unit content invalid, skipping for this session"
	}
	o.logger.Warn(msg,
		logging.String(logging.FieldSessionID, o.id),
		logging.String(logging.FieldUnitID, unit.UnitID),
		logging.Int(logging.FieldThread, unit.Thread),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, hint),
	)
	o.scheduler.Suspend(unit.UnitID)
}

func cycleTypeFor(u *progress.Unit) cycle.Type {
	switch {
	case u.Repetitions == 0:
		return cycle.TypeIntro
	case u.Repetitions == 1:
		return cycle.TypeDebut
	case u.Position >= reviewPosition:
		return cycle.TypeReview
	default:
		return cycle.TypePractice
	}
}
