// Package spike flags anomalously slow responses. A detector runs per
// learner session, normalizes raw latency by phrase length, compares it
// against an exponentially weighted rolling average, and classifies
// overshoots as repeat or breakdown events. Detectors emit nothing
// until calibration has finished.
package spike
