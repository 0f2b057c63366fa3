// Package simulate drives a session with a scripted learner. Latencies
// come from a seeded generator so runs are reproducible; the script can
// inject periodic spikes and failures to exercise the detector and the
// remedial flow without a human at the keyboard.
package simulate
