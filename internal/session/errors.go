package session

import "errors"

var (
	// ErrSessionComplete signals that the schedule is exhausted, the
	// item cap was reached, or Finish has already run.
	ErrSessionComplete = errors.New("session complete")

	// ErrResponsePending signals a Next call while the previous cycle
	// still awaits its Submit.
	ErrResponsePending = errors.New("response pending for current cycle")

	// ErrNoActiveCycle signals a Submit call with no cycle outstanding.
	ErrNoActiveCycle = errors.New("no active cycle")
)
