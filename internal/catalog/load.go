package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// UnitError identifies invalid course content down to the offending field.
type UnitError struct {
	CourseID string
	UnitID   string
	Field    string
	Reason   string
}

func (e *UnitError) Error() string {
	if e.UnitID == "" {
		return fmt.Sprintf("course %s: %s: %s", e.CourseID, e.Field, e.Reason)
	}
	return fmt.Sprintf("course %s: unit %s: %s: %s", e.CourseID, e.UnitID, e.Field, e.Reason)
}

// Loose rows mirror the bundle JSON. Conversion to the exported structs
// happens only after validation.
type courseFile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	KnownLanguage  string    `json:"known_language"`
	TargetLanguage string    `json:"target_language"`
	MediaDir       string    `json:"media_dir"`
	Units          []unitRow `json:"units"`
}

type unitRow struct {
	ID     string    `json:"id"`
	Thread int       `json:"thread"`
	Known  promptRow `json:"known"`
	Target targetRow `json:"target"`
}

type promptRow struct {
	Text       string `json:"text"`
	AudioID    string `json:"audio_id"`
	DurationMS int64  `json:"duration_ms"`
	SourceURL  string `json:"source_url"`
}

type targetRow struct {
	Text   string     `json:"text"`
	Voices []voiceRow `json:"voices"`
}

type voiceRow struct {
	Name       string `json:"name"`
	AudioID    string `json:"audio_id"`
	DurationMS int64  `json:"duration_ms"`
	SourceURL  string `json:"source_url"`
}

// Load reads and validates a course bundle. A relative media_dir is
// resolved against the bundle file's directory.
func Load(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course bundle: %w", err)
	}

	var file courseFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse course bundle %s: %w", filepath.Base(path), err)
	}

	course, err := build(&file)
	if err != nil {
		return nil, err
	}

	if course.MediaDir != "" && !filepath.IsAbs(course.MediaDir) {
		course.MediaDir = filepath.Join(filepath.Dir(path), course.MediaDir)
	}
	return course, nil
}

// List returns the course bundle files (*.json) under dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read courses dir: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func build(file *courseFile) (*Course, error) {
	courseID := strings.TrimSpace(file.ID)
	if courseID == "" {
		return nil, &UnitError{CourseID: "(unnamed)", Field: "id", Reason: "must be set"}
	}

	fail := func(unitID, field, reason string) error {
		return &UnitError{CourseID: courseID, UnitID: unitID, Field: field, Reason: reason}
	}

	known, err := language.Parse(strings.TrimSpace(file.KnownLanguage))
	if err != nil {
		return nil, fail("", "known_language", fmt.Sprintf("invalid tag %q", file.KnownLanguage))
	}
	target, err := language.Parse(strings.TrimSpace(file.TargetLanguage))
	if err != nil {
		return nil, fail("", "target_language", fmt.Sprintf("invalid tag %q", file.TargetLanguage))
	}
	if len(file.Units) == 0 {
		return nil, fail("", "units", "course has no units")
	}

	course := &Course{
		ID:             courseID,
		Name:           strings.TrimSpace(file.Name),
		KnownLanguage:  known,
		TargetLanguage: target,
		MediaDir:       strings.TrimSpace(file.MediaDir),
		Units:          make([]Unit, 0, len(file.Units)),
		unitsByID:      make(map[string]*Unit, len(file.Units)),
	}

	audioOwner := make(map[string]string, len(file.Units)*3)
	claimAudio := func(unitID, field, audioID string) error {
		if owner, taken := audioOwner[audioID]; taken {
			return fail(unitID, field, fmt.Sprintf("audio id %q already used by unit %s", audioID, owner))
		}
		audioOwner[audioID] = unitID
		return nil
	}

	for _, row := range file.Units {
		unitID := strings.TrimSpace(row.ID)
		if unitID == "" {
			return nil, fail("", "units", "unit with empty id")
		}
		if _, dup := course.unitsByID[unitID]; dup {
			return nil, fail(unitID, "id", "duplicate unit id")
		}
		if row.Thread < 1 {
			return nil, fail(unitID, "thread", "must be >= 1")
		}
		if strings.TrimSpace(row.Known.Text) == "" {
			return nil, fail(unitID, "known.text", "must be set")
		}
		if strings.TrimSpace(row.Known.AudioID) == "" {
			return nil, fail(unitID, "known.audio_id", "must be set")
		}
		if row.Known.DurationMS <= 0 {
			return nil, fail(unitID, "known.duration_ms", "must be positive")
		}
		if strings.TrimSpace(row.Target.Text) == "" {
			return nil, fail(unitID, "target.text", "must be set")
		}
		if len(row.Target.Voices) != 2 {
			return nil, fail(unitID, "target.voices", fmt.Sprintf("need exactly 2 voices, got %d", len(row.Target.Voices)))
		}

		unit := Unit{
			ID:     unitID,
			Thread: row.Thread,
			Known: Prompt{
				Text:       strings.TrimSpace(row.Known.Text),
				AudioID:    strings.TrimSpace(row.Known.AudioID),
				DurationMS: row.Known.DurationMS,
				SourceURL:  strings.TrimSpace(row.Known.SourceURL),
			},
			Target: Target{Text: strings.TrimSpace(row.Target.Text)},
		}
		if err := claimAudio(unitID, "known.audio_id", unit.Known.AudioID); err != nil {
			return nil, err
		}

		for i, voice := range row.Target.Voices {
			field := fmt.Sprintf("target.voices[%d]", i)
			if strings.TrimSpace(voice.Name) == "" {
				return nil, fail(unitID, field+".name", "must be set")
			}
			if strings.TrimSpace(voice.AudioID) == "" {
				return nil, fail(unitID, field+".audio_id", "must be set")
			}
			if voice.DurationMS <= 0 {
				return nil, fail(unitID, field+".duration_ms", "must be positive")
			}
			unit.Target.Voices[i] = Voice{
				Name:       strings.TrimSpace(voice.Name),
				AudioID:    strings.TrimSpace(voice.AudioID),
				DurationMS: voice.DurationMS,
				SourceURL:  strings.TrimSpace(voice.SourceURL),
			}
			if err := claimAudio(unitID, field+".audio_id", unit.Target.Voices[i].AudioID); err != nil {
				return nil, err
			}
		}

		course.Units = append(course.Units, unit)
	}

	for i := range course.Units {
		course.unitsByID[course.Units[i].ID] = &course.Units[i]
	}
	return course, nil
}
