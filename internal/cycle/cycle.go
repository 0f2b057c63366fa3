package cycle

import (
	"strings"
	"time"
)

// Type classifies how a cycle presents its unit.
type Type string

const (
	// TypeIntro presents a unit for the very first time.
	TypeIntro Type = "intro"
	// TypeDebut is the first practice pass after an introduction.
	TypeDebut Type = "debut"
	// TypePractice is a routine scheduled repetition.
	TypePractice Type = "practice"
	// TypeReview is a late-stage repetition of a well-known unit.
	TypeReview Type = "review"
)

var allTypes = []Type{TypeIntro, TypeDebut, TypePractice, TypeReview}

var typeSet = func() map[Type]struct{} {
	set := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		set[t] = struct{}{}
	}
	return set
}()

// AllTypes returns the ordered list of known cycle types.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := typeSet[normalized]
	return normalized, ok
}

// Prompt is the known-language half of a cycle.
type Prompt struct {
	Text     string
	AudioID  string
	Duration time.Duration
}

// Voice is one target-language rendition.
type Voice struct {
	Name     string
	AudioID  string
	Duration time.Duration
}

// Target carries the shared target text and its two voice renditions.
type Target struct {
	Text   string
	Voice1 Voice
	Voice2 Voice
}

// Cycle is the immutable instructional unit handed to playback.
type Cycle struct {
	ID     string
	UnitID string
	Type   Type
	Known  Prompt
	Target Target
	Pause  time.Duration
}

// AudioIDs returns the three audio ids in presentation order:
// known, voice1, voice2.
func (c *Cycle) AudioIDs() [3]string {
	return [3]string{c.Known.AudioID, c.Target.Voice1.AudioID, c.Target.Voice2.AudioID}
}
