// Package progress schedules vocabulary units for spaced repetition.
// Each unit walks a Fibonacci skip schedule: every successful practice
// advances its position and widens the gap, measured in other units
// practiced on the same thread, before it comes due again. Units retire
// permanently at the terminal skip number. Failed attempts leave the
// schedule where it is; near-term repetition is the spike detector's
// job, not the scheduler's.
package progress
