package readiness

import (
	"cadence/internal/audiocache"
	"cadence/internal/cycle"
)

// Result reports whether playback may proceed. Missing lists absent
// audio ids in presentation order; it is nil when Ready.
type Result struct {
	Ready   bool
	Missing []string
}

// ValidateCycle checks the three audio ids a cycle needs: known prompt,
// first voice, second voice, in that fixed order. Present ids are
// omitted from Missing.
func ValidateCycle(c *cycle.Cycle, idx audiocache.Index) Result {
	if c == nil {
		return Result{Ready: true}
	}
	var missing []string
	for _, id := range c.AudioIDs() {
		if _, ok := idx.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return Result{Missing: missing}
	}
	return Result{Ready: true}
}

// ValidateSession aggregates missing ids across cycles in input order.
// An id referenced by more than one cycle appears once, at its first
// occurrence. Empty input is always ready.
func ValidateSession(cycles []*cycle.Cycle, idx audiocache.Index) Result {
	var missing []string
	seen := make(map[string]struct{})
	for _, c := range cycles {
		if c == nil {
			continue
		}
		for _, id := range c.AudioIDs() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := idx.Lookup(id); !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		return Result{Missing: missing}
	}
	return Result{Ready: true}
}
