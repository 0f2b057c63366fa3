package progress

import (
	"strings"
	"time"
)

// Outcome classifies one practice attempt.
type Outcome string

const (
	// OutcomeSuccess is a correct, unspiked response.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure is a wrong or spiked response.
	OutcomeFailure Outcome = "failure"
)

// ParseOutcome converts a string into a known Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(value))) {
	case OutcomeSuccess:
		return OutcomeSuccess, true
	case OutcomeFailure:
		return OutcomeFailure, true
	default:
		return "", false
	}
}

// skipSchedule maps schedule position to skip number.
var skipSchedule = [8]int{1, 1, 2, 3, 5, 8, 13, 21}

// TerminalSkip is the skip number at which a unit retires for good.
const TerminalSkip = 21

const maxPosition = len(skipSchedule) - 1

// Unit is the mutable scheduling state for one (learner, vocabulary
// unit) pair. Skip is the number of other units practiced on the same
// thread before this one comes due again.
type Unit struct {
	LearnerID       string
	UnitID          string
	Thread          int
	Position        int
	Skip            int
	Repetitions     int
	Retired         bool
	IntroducedAt    time.Time
	LastPracticedAt time.Time
	LastSeenSeq     int64
	UpdatedAt       time.Time
}
