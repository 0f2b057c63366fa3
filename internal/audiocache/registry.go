package audiocache

import (
	"fmt"
	"strings"
	"sync"
)

// Source describes where an audio asset can be fetched from and how long
// it plays.
type Source struct {
	URL        string
	DurationMS int64
}

// Registry maps audio ids to their sources for one session. It replaces
// process-wide lookup state: each session builds its own registry from
// the course content it is about to practice.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register records the source for an audio id. Registering the same id
// twice is an authoring error and is rejected.
func (r *Registry) Register(id, url string, durationMS int64) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("audiocache: register empty audio id")
	}
	if durationMS <= 0 {
		return fmt.Errorf("audiocache: register %s with non-positive duration", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("audiocache: audio id %s already registered", id)
	}
	r.sources[id] = Source{URL: strings.TrimSpace(url), DurationMS: durationMS}
	return nil
}

// Resolve returns the source for an audio id.
func (r *Registry) Resolve(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[id]
	return source, ok
}

// Duration returns the registered duration for an audio id.
func (r *Registry) Duration(id string) (int64, bool) {
	source, ok := r.Resolve(id)
	if !ok {
		return 0, false
	}
	return source.DurationMS, true
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
