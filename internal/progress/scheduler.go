package progress

import (
	"log/slog"
	"sort"
	"time"

	"cadence/internal/logging"
)

// Options configure a session scheduler.
type Options struct {
	LearnerID     string
	NewUnitBudget int
	Logger        *slog.Logger
}

// Pick is one scheduling decision. Introduced is true when the unit was
// created fresh because nothing already tracked was due.
type Pick struct {
	Unit       *Unit
	Introduced bool
}

type candidate struct {
	unitID string
	thread int
}

// Scheduler owns unit selection for one learner session. It is not safe
// for concurrent use; the session event loop owns it.
type Scheduler struct {
	logger    *slog.Logger
	learnerID string

	units    map[string]*Unit
	threads  map[int]struct{}
	cursors  map[int]int64
	queue    []candidate
	enrolled map[string]struct{}

	budget     int
	lastThread int
}

// NewScheduler returns an empty scheduler for one learner.
func NewScheduler(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	budget := opts.NewUnitBudget
	if budget < 0 {
		budget = 0
	}
	return &Scheduler{
		logger:    logging.NewComponentLogger(logger, "scheduler"),
		learnerID: opts.LearnerID,
		units:     make(map[string]*Unit),
		threads:   make(map[int]struct{}),
		cursors:   make(map[int]int64),
		enrolled:  make(map[string]struct{}),
		budget:    budget,
	}
}

// Track registers an existing progress row. Live rows outside the skip
// schedule are clamped to the terminal position and retired.
func (s *Scheduler) Track(u *Unit) {
	if u == nil || u.UnitID == "" || u.Thread < 1 {
		return
	}
	s.repair(u)
	s.units[u.UnitID] = u
	s.threads[u.Thread] = struct{}{}
}

// Enroll queues a unit with no progress row yet as an introduction
// candidate. Candidates are introduced in enrollment order.
func (s *Scheduler) Enroll(unitID string, thread int) {
	if unitID == "" || thread < 1 {
		return
	}
	if _, ok := s.units[unitID]; ok {
		return
	}
	if _, ok := s.enrolled[unitID]; ok {
		return
	}
	s.enrolled[unitID] = struct{}{}
	s.queue = append(s.queue, candidate{unitID: unitID, thread: thread})
}

// Suspend removes a unit from selection for the rest of the session.
// Stored progress is untouched; Track re-registers it.
func (s *Scheduler) Suspend(unitID string) {
	delete(s.units, unitID)
}

// SetCursor restores a thread's practice sequence from storage.
func (s *Scheduler) SetCursor(thread int, seq int64) {
	if thread < 1 || seq < 0 {
		return
	}
	s.cursors[thread] = seq
}

// Cursor returns a thread's current practice sequence.
func (s *Scheduler) Cursor(thread int) int64 {
	return s.cursors[thread]
}

// RemainingBudget returns how many introductions the session may still
// make.
func (s *Scheduler) RemainingBudget() int {
	return s.budget
}

// Unit returns a tracked unit by id.
func (s *Scheduler) Unit(id string) (*Unit, bool) {
	u, ok := s.units[id]
	return u, ok
}

// Units returns all tracked units ordered by unit id.
func (s *Scheduler) Units() []*Unit {
	out := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

// Introduce creates fresh progress for a unit at the start of the
// schedule.
func (s *Scheduler) Introduce(unitID string, thread int, now time.Time) *Unit {
	u := &Unit{
		LearnerID:    s.learnerID,
		UnitID:       unitID,
		Thread:       thread,
		Position:     0,
		Skip:         skipSchedule[0],
		IntroducedAt: now,
		LastSeenSeq:  s.cursors[thread],
		UpdatedAt:    now,
	}
	s.units[unitID] = u
	s.threads[thread] = struct{}{}
	delete(s.enrolled, unitID)
	for i, c := range s.queue {
		if c.unitID == unitID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.logger.Info("unit introduced",
		logging.String(logging.FieldUnitID, unitID),
		logging.Int(logging.FieldThread, thread),
	)
	return u
}

// Next returns the next unit to practice. Due units win; introductions
// happen only when nothing is due and the new-unit budget remains. The
// second return is false when the schedule is exhausted.
func (s *Scheduler) Next(now time.Time) (Pick, bool) {
	if u := s.nextDue(); u != nil {
		return Pick{Unit: u}, true
	}
	if s.budget > 0 && len(s.queue) > 0 {
		c := s.queue[0]
		s.budget--
		return Pick{Unit: s.Introduce(c.unitID, c.thread, now), Introduced: true}, true
	}
	return Pick{}, false
}

// Apply folds one practice attempt into the schedule. Success advances
// the position and widens the skip; reaching the terminal skip retires
// the unit permanently. Failure leaves position and skip unchanged.
// Either way the attempt advances the thread cursor and counts as a
// repetition.
func (s *Scheduler) Apply(u *Unit, outcome Outcome, now time.Time) {
	if u == nil || u.Thread < 1 {
		return
	}
	s.repair(u)

	seq := s.cursors[u.Thread] + 1
	s.cursors[u.Thread] = seq
	s.lastThread = u.Thread

	u.LastSeenSeq = seq
	u.Repetitions++
	u.LastPracticedAt = now
	u.UpdatedAt = now

	if outcome != OutcomeSuccess || u.Retired {
		return
	}
	if u.Position < maxPosition {
		u.Position++
	}
	u.Skip = skipSchedule[u.Position]
	if u.Skip >= TerminalSkip {
		u.Retired = true
		s.logger.Info("unit retired",
			logging.String(logging.FieldUnitID, u.UnitID),
			logging.Int(logging.FieldThread, u.Thread),
			logging.Int("repetitions", u.Repetitions),
		)
	}
}

// nextDue scans threads in round-robin order starting after the last
// practiced thread and returns the best due unit from the first thread
// that has one.
func (s *Scheduler) nextDue() *Unit {
	for _, thread := range s.threadOrder() {
		seq := s.cursors[thread]
		var best *Unit
		for _, u := range s.units {
			if u.Retired || u.Thread != thread {
				continue
			}
			if seq-u.LastSeenSeq < int64(u.Skip) {
				continue
			}
			if best == nil || pickBefore(u, best) {
				best = u
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// pickBefore orders due units: oldest practice first (never practiced
// sorts oldest), then lowest position, then unit id.
func pickBefore(a, b *Unit) bool {
	if !a.LastPracticedAt.Equal(b.LastPracticedAt) {
		return a.LastPracticedAt.Before(b.LastPracticedAt)
	}
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.UnitID < b.UnitID
}

func (s *Scheduler) threadOrder() []int {
	threads := make([]int, 0, len(s.threads))
	for t := range s.threads {
		threads = append(threads, t)
	}
	sort.Ints(threads)
	if s.lastThread == 0 || len(threads) == 0 {
		return threads
	}
	start := sort.SearchInts(threads, s.lastThread+1)
	if start == len(threads) {
		start = 0
	}
	ordered := make([]int, 0, len(threads))
	ordered = append(ordered, threads[start:]...)
	ordered = append(ordered, threads[:start]...)
	return ordered
}

// repair clamps a live row that has left the schedule and retires it.
// The alert makes the invariant violation loud without crashing the
// session.
func (s *Scheduler) repair(u *Unit) {
	if u.Retired {
		return
	}
	if u.Position >= 0 && u.Position <= maxPosition && u.Skip >= 1 && u.Skip <= TerminalSkip {
		return
	}
	s.logger.Error("unit progress outside skip schedule",
		logging.String(logging.FieldUnitID, u.UnitID),
		logging.Int(logging.FieldThread, u.Thread),
		logging.Int("position", u.Position),
		logging.Int("skip_number", u.Skip),
		logging.Alert("schedule_invariant"),
	)
	u.Position = maxPosition
	u.Skip = TerminalSkip
	u.Retired = true
}
