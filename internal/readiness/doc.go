// Package readiness decides whether a cycle's audio can be played.
//
// Validation is pure: it consults only the presence of audio ids in a
// cache index and reports the missing ids in presentation order. The
// orchestrator treats a not-ready result as "fetch these, then
// re-validate", never as a failure.
package readiness
