// Package config loads, normalizes, and validates Cadence configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CADENCE_LEARNER. The Config type centralizes every knob the engine and CLI
// need, allowing data/cache directories and detection thresholds to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
