// Package textutil provides text helpers for filename sanitization and
// phrase comparison.
//
// SanitizeFileName maps arbitrary asset identifiers to names the audio
// cache can store on any filesystem. Fingerprints are word-frequency
// vectors over phrase text; course validation compares them to catch
// units that teach the same phrase twice under different ids.
package textutil
