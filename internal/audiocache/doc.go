// Package audiocache manages locally cached audio assets.
//
// The readiness validator consults an Index (audio id to CachedAudio) to
// decide whether a cycle may play. Cache is the directory-backed index
// used in production; it stores one file per asset plus a versioned JSON
// index with durations and checksums. Registry is the session-scoped
// mapping from audio id to source location and duration, and Manager
// fills cache gaps asynchronously through a Fetcher.
package audiocache
