// Package store persists learner state in SQLite: unit progress and
// thread cursors, append-only response metrics and spike events,
// superseding learner baselines, and session summaries. Migrations are
// embedded and applied inside a transaction on open.
package store
