// Package baseline builds per-learner latency baselines from an initial
// calibration window of responses. A baseline captures the mean and
// spread of response latency and of the duration-delta signal; spike
// detection personalizes its thresholds from these numbers. Baselines
// are replaced whole on recalibration, never mutated.
package baseline
