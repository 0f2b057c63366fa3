package audiocache

import (
	"sync"
	"time"
)

// CachedAudio is one locally available audio asset.
type CachedAudio struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	DurationMS int64     `json:"duration_ms"`
	Checksum   string    `json:"checksum"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Index answers presence queries for audio assets. Readiness validation
// depends only on this interface.
type Index interface {
	Lookup(id string) (CachedAudio, bool)
}

// MemoryIndex is a map-backed Index for tests and snapshots.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]CachedAudio
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]CachedAudio)}
}

// Put stores or replaces an entry.
func (m *MemoryIndex) Put(audio CachedAudio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[audio.ID] = audio
}

// Lookup implements Index.
func (m *MemoryIndex) Lookup(id string) (CachedAudio, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	audio, ok := m.entries[id]
	return audio, ok
}

// Remove drops an entry if present.
func (m *MemoryIndex) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// Len returns the number of entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
