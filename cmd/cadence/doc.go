// Package main hosts the Cadence CLI entrypoint and command graph.
//
// The cobra-based command tree covers course bundle inspection, learner
// progress and session reporting, simulated practice runs, and store
// maintenance. It centralizes configuration resolution and logger setup
// so subcommands stay declarative; the engine logic itself lives in the
// internal packages and is surfaced here through dedicated commands.
package main
