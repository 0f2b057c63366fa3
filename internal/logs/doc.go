// Package logs reads the engine's dated log files for the CLI.
//
// It serves `cadence logs` with bounded-memory tail reads and a polling
// follow mode that picks up lines as sessions and sweeps append them.
// The offset ReadLast returns feeds straight into Follow, so the command
// never re-prints what it already showed.
package logs
