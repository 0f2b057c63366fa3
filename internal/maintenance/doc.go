// Package maintenance sweeps aged rows out of the store: response
// metrics and spike events past their retention window, and baselines
// old enough to warrant recalibration. Sweeps run once on demand or on
// a fixed cadence guarded by a file lock so only one runner touches the
// database at a time.
package maintenance
