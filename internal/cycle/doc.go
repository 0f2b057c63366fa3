// Package cycle defines the atomic instructional unit and its assembler.
//
// A Cycle combines a known-language prompt, a pause, and two
// target-language voice renditions. Text and audio are bound by
// identifier at construction time; a cycle can never reference audio by
// matching text. Cycles are immutable once assembled and are consumed
// read-only by playback and readiness validation.
package cycle
