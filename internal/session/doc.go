// Package session runs one practice session for one learner. The
// orchestrator owns the scheduler, the spike detector, the calibration
// window, and the audio cache fill, and persists everything through a
// background recorder so the practice loop never waits on the database.
//
// The orchestrator is not safe for concurrent use. One caller drives
// Next, Submit, and Finish; background work is limited to audio fetches
// and persistence.
package session
