package cycle

import (
	"fmt"
	"strings"
	"time"

	"cadence/internal/audiocache"
	"cadence/internal/catalog"
)

// DefaultPauseMultiplier scales the first target voice's duration into
// the response pause, so silence length follows content length.
const DefaultPauseMultiplier = 2.0

// ContentError reports malformed course content for one unit. The
// orchestrator skips the unit and logs it; it never aborts the session.
type ContentError struct {
	UnitID string
	Field  string
	Reason string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("unit %s: %s: %s", e.UnitID, e.Field, e.Reason)
}

// Assembler builds cycles from course units. Durations come from the
// session's audio registry, never from free text matching.
type Assembler struct {
	registry        *audiocache.Registry
	pauseMultiplier float64
}

// NewAssembler wires an assembler to the session's registry. A
// non-positive multiplier selects DefaultPauseMultiplier.
func NewAssembler(registry *audiocache.Registry, pauseMultiplier float64) *Assembler {
	if pauseMultiplier <= 0 {
		pauseMultiplier = DefaultPauseMultiplier
	}
	return &Assembler{registry: registry, pauseMultiplier: pauseMultiplier}
}

// Assemble converts one unit into a playable cycle. Every text and audio
// reference is validated here; the returned ContentError names the field
// that failed.
func (a *Assembler) Assemble(unit *catalog.Unit, typ Type) (*Cycle, error) {
	if unit == nil {
		return nil, &ContentError{UnitID: "(none)", Field: "unit", Reason: "missing"}
	}
	if _, ok := typeSet[typ]; !ok {
		return nil, &ContentError{UnitID: unit.ID, Field: "type", Reason: fmt.Sprintf("unknown cycle type %q", typ)}
	}

	known, err := a.resolve(unit.ID, "known", unit.Known.Text, unit.Known.AudioID)
	if err != nil {
		return nil, err
	}
	voice1, err := a.resolveVoice(unit.ID, "target.voice1", unit.Target.Text, unit.Target.Voices[0])
	if err != nil {
		return nil, err
	}
	voice2, err := a.resolveVoice(unit.ID, "target.voice2", unit.Target.Text, unit.Target.Voices[1])
	if err != nil {
		return nil, err
	}

	pause := time.Duration(a.pauseMultiplier * float64(voice1.Duration))
	return &Cycle{
		ID:     unit.ID + ":" + string(typ),
		UnitID: unit.ID,
		Type:   typ,
		Known:  known,
		Target: Target{Text: strings.TrimSpace(unit.Target.Text), Voice1: voice1, Voice2: voice2},
		Pause:  pause,
	}, nil
}

func (a *Assembler) resolve(unitID, field, text, audioID string) (Prompt, error) {
	duration, err := a.duration(unitID, field, text, audioID)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Text: strings.TrimSpace(text), AudioID: audioID, Duration: duration}, nil
}

func (a *Assembler) resolveVoice(unitID, field, text string, voice catalog.Voice) (Voice, error) {
	if strings.TrimSpace(voice.Name) == "" {
		return Voice{}, &ContentError{UnitID: unitID, Field: field + ".name", Reason: "empty voice name"}
	}
	duration, err := a.duration(unitID, field, text, voice.AudioID)
	if err != nil {
		return Voice{}, err
	}
	return Voice{Name: voice.Name, AudioID: voice.AudioID, Duration: duration}, nil
}

func (a *Assembler) duration(unitID, field, text, audioID string) (time.Duration, error) {
	if strings.TrimSpace(text) == "" {
		return 0, &ContentError{UnitID: unitID, Field: field + ".text", Reason: "empty text"}
	}
	if strings.TrimSpace(audioID) == "" {
		return 0, &ContentError{UnitID: unitID, Field: field + ".audio_id", Reason: "missing audio id"}
	}
	ms, ok := a.registry.Duration(audioID)
	if !ok {
		return 0, &ContentError{UnitID: unitID, Field: field + ".audio_id", Reason: fmt.Sprintf("audio id %q not registered", audioID)}
	}
	if ms <= 0 {
		return 0, &ContentError{UnitID: unitID, Field: field + ".duration", Reason: "non-positive duration"}
	}
	return time.Duration(ms) * time.Millisecond, nil
}
