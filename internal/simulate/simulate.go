package simulate

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"cadence/internal/cycle"
	"cadence/internal/progress"
	"cadence/internal/session"
	"cadence/internal/spike"
	"cadence/internal/store"
)

const (
	defaultBaseLatencyMS = 2400
	defaultSpikeFactor   = 3.5
)

// Profile scripts the simulated learner. Zero values select the
// defaults; SpikeEvery and FailureEvery of zero disable those
// injections.
type Profile struct {
	Seed          int64
	Items         int
	BaseLatencyMS float64
	JitterMS      float64
	SpikeEvery    int
	SpikeFactor   float64
	FailureEvery  int
}

// ItemResult records one simulated practice item.
type ItemResult struct {
	Index     int
	UnitID    string
	CycleType cycle.Type
	LatencyMS float64
	Correct   bool
	Outcome   progress.Outcome
	Mode      store.Mode
	Spiked    bool
	Response  spike.Response
}

// Outcome is the full simulated session transcript.
type Outcome struct {
	Summary session.Summary
	Items   []ItemResult
}

// Run plays the session to completion, or for profile.Items items if
// that cap comes first, and finishes it. Ownership of the orchestrator
// passes to Run; it cannot be reused afterwards.
func Run(ctx context.Context, orch *session.Orchestrator, profile Profile) (Outcome, error) {
	if profile.BaseLatencyMS <= 0 {
		profile.BaseLatencyMS = defaultBaseLatencyMS
	}
	if profile.JitterMS < 0 {
		profile.JitterMS = 0
	}
	if profile.SpikeFactor <= 1 {
		profile.SpikeFactor = defaultSpikeFactor
	}

	rng := rand.New(rand.NewSource(profile.Seed))
	outcome := Outcome{}

	// A synthetic one-second timeline keeps tie-breaks on practice
	// timestamps identical across runs with the same seed.
	start := time.Now().UTC()

	for i := 0; profile.Items <= 0 || i < profile.Items; i++ {
		c, err := orch.Next(ctx)
		if errors.Is(err, session.ErrSessionComplete) {
			break
		}
		if err != nil {
			return outcome, err
		}

		latency := profile.BaseLatencyMS
		if profile.JitterMS > 0 {
			latency += (rng.Float64()*2 - 1) * profile.JitterMS
		}
		if profile.SpikeEvery > 0 && (i+1)%profile.SpikeEvery == 0 {
			latency *= profile.SpikeFactor
		}
		correct := true
		if profile.FailureEvery > 0 && (i+1)%profile.FailureEvery == 0 {
			correct = false
		}

		res, err := orch.Submit(session.Response{
			LatencyMS: latency,
			Correct:   correct,
			At:        start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			return outcome, err
		}
		outcome.Items = append(outcome.Items, ItemResult{
			Index:     i,
			UnitID:    c.UnitID,
			CycleType: c.Type,
			LatencyMS: latency,
			Correct:   correct,
			Outcome:   res.Outcome,
			Mode:      res.Mode,
			Spiked:    res.Spiked,
			Response:  res.Response,
		})
	}

	summary, err := orch.Finish(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.Summary = summary
	return outcome, nil
}
