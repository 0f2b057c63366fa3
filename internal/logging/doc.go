// Package logging builds slog loggers for the engine and its CLI.
//
// It provides a console handler for interactive use, a JSON handler for
// structured output, typed attribute helpers, standardized field keys
// (learner, unit, session, thread), and age-based pruning of old log
// files. Components obtain scoped loggers via NewComponentLogger so every
// record carries a component attribute.
package logging
