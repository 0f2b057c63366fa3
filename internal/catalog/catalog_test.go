package catalog_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/catalog"
)

func writeBundle(t *testing.T, dir string, doc map[string]any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(dir, "course.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func validBundle() map[string]any {
	unit := func(id string, thread int, knownAudio, v1Audio, v2Audio string) map[string]any {
		return map[string]any{
			"id":     id,
			"thread": thread,
			"known": map[string]any{
				"text":        "the house",
				"audio_id":    knownAudio,
				"duration_ms": 1200,
				"source_url":  "known/" + id + ".mp3",
			},
			"target": map[string]any{
				"text": "la casa grande",
				"voices": []map[string]any{
					{"name": "lucia", "audio_id": v1Audio, "duration_ms": 1400, "source_url": "lucia/" + id + ".mp3"},
					{"name": "mateo", "audio_id": v2Audio, "duration_ms": 1500, "source_url": "mateo/" + id + ".mp3"},
				},
			},
		}
	}
	return map[string]any{
		"id":              "es-1",
		"name":            "spanish one",
		"known_language":  "en-US",
		"target_language": "es-ES",
		"media_dir":       "media",
		"units": []map[string]any{
			unit("u1", 1, "k1", "a1", "a2"),
			unit("u2", 2, "k2", "b1", "b2"),
		},
	}
}

func TestLoadValidBundle(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, validBundle())

	course, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if course.ID != "es-1" {
		t.Fatalf("unexpected course id: %q", course.ID)
	}
	if got := course.KnownLanguage.String(); got != "en-US" {
		t.Fatalf("unexpected known language: %q", got)
	}
	if got := course.TargetLanguage.String(); got != "es-ES" {
		t.Fatalf("unexpected target language: %q", got)
	}
	if want := filepath.Join(dir, "media"); course.MediaDir != want {
		t.Fatalf("media dir not resolved: got %q want %q", course.MediaDir, want)
	}
	if len(course.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(course.Units))
	}
	if got := course.Threads(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected threads: %v", got)
	}

	unit, ok := course.Unit("u1")
	if !ok {
		t.Fatal("unit u1 not found")
	}
	if unit.Known.AudioID != "k1" {
		t.Fatalf("unexpected known audio: %q", unit.Known.AudioID)
	}
	if unit.Target.Voices[0].AudioID != "a1" || unit.Target.Voices[1].AudioID != "a2" {
		t.Fatalf("unexpected voice audio ids: %+v", unit.Target.Voices)
	}
	if got := unit.PhraseLength(); got != 3 {
		t.Fatalf("expected phrase length 3 for %q, got %d", unit.Target.Text, got)
	}
	if course.DisplayName() != "Spanish One" {
		t.Fatalf("unexpected display name: %q", course.DisplayName())
	}
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc map[string]any)
		unit   string
		field  string
	}{
		{
			name:   "bad language tag",
			mutate: func(doc map[string]any) { doc["target_language"] = "not a tag!" },
			field:  "target_language",
		},
		{
			name:   "no units",
			mutate: func(doc map[string]any) { doc["units"] = []map[string]any{} },
			field:  "units",
		},
		{
			name: "zero thread",
			mutate: func(doc map[string]any) {
				doc["units"].([]map[string]any)[0]["thread"] = 0
			},
			unit:  "u1",
			field: "thread",
		},
		{
			name: "empty known text",
			mutate: func(doc map[string]any) {
				doc["units"].([]map[string]any)[0]["known"].(map[string]any)["text"] = "  "
			},
			unit:  "u1",
			field: "known.text",
		},
		{
			name: "missing known audio",
			mutate: func(doc map[string]any) {
				doc["units"].([]map[string]any)[0]["known"].(map[string]any)["audio_id"] = ""
			},
			unit:  "u1",
			field: "known.audio_id",
		},
		{
			name: "one voice only",
			mutate: func(doc map[string]any) {
				target := doc["units"].([]map[string]any)[0]["target"].(map[string]any)
				target["voices"] = target["voices"].([]map[string]any)[:1]
			},
			unit:  "u1",
			field: "target.voices",
		},
		{
			name: "non-positive voice duration",
			mutate: func(doc map[string]any) {
				target := doc["units"].([]map[string]any)[0]["target"].(map[string]any)
				target["voices"].([]map[string]any)[1]["duration_ms"] = 0
			},
			unit:  "u1",
			field: "target.voices[1].duration_ms",
		},
		{
			name: "audio id reused across units",
			mutate: func(doc map[string]any) {
				known := doc["units"].([]map[string]any)[1]["known"].(map[string]any)
				known["audio_id"] = "a1"
			},
			unit:  "u2",
			field: "known.audio_id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := validBundle()
			tc.mutate(doc)
			path := writeBundle(t, t.TempDir(), doc)

			_, err := catalog.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var unitErr *catalog.UnitError
			if !errors.As(err, &unitErr) {
				t.Fatalf("expected UnitError, got %T: %v", err, err)
			}
			if unitErr.UnitID != tc.unit {
				t.Fatalf("unexpected unit: got %q want %q (%v)", unitErr.UnitID, tc.unit, err)
			}
			if unitErr.Field != tc.field {
				t.Fatalf("unexpected field: got %q want %q (%v)", unitErr.Field, tc.field, err)
			}
		})
	}
}

func TestListFiltersNonBundles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "media.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	paths, err := catalog.List(dir)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 bundles, got %v", paths)
	}
	if filepath.Base(paths[0]) != "a.json" || filepath.Base(paths[1]) != "b.json" {
		t.Fatalf("expected sorted bundle names, got %v", paths)
	}
}
