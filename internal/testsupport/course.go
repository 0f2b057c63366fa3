package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/catalog"
)

// CourseSpec shapes a generated course bundle.
type CourseSpec struct {
	ID      string
	Units   int
	Threads int
}

// WriteCourse writes a course bundle JSON plus media files under dir and
// returns the bundle path. Units cycle across threads; every audio id
// is backed by a small media file so local fetches succeed.
func WriteCourse(t testing.TB, dir string, spec CourseSpec) string {
	t.Helper()

	if spec.ID == "" {
		spec.ID = "es-demo"
	}
	if spec.Units <= 0 {
		spec.Units = 4
	}
	if spec.Threads <= 0 {
		spec.Threads = 2
	}

	mediaDir := filepath.Join(dir, spec.ID+"-media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}

	units := make([]map[string]any, 0, spec.Units)
	for i := 0; i < spec.Units; i++ {
		unitID := fmt.Sprintf("%s-u%02d", spec.ID, i+1)
		known := fmt.Sprintf("%s-known", unitID)
		voice1 := fmt.Sprintf("%s-v1", unitID)
		voice2 := fmt.Sprintf("%s-v2", unitID)
		for _, audioID := range []string{known, voice1, voice2} {
			writeMedia(t, filepath.Join(mediaDir, audioID+".audio"))
		}
		units = append(units, map[string]any{
			"id":     unitID,
			"thread": i%spec.Threads + 1,
			"known": map[string]any{
				"text":        fmt.Sprintf("phrase %d", i+1),
				"audio_id":    known,
				"duration_ms": 900,
				"source_url":  known + ".audio",
			},
			"target": map[string]any{
				"text": fmt.Sprintf("frase %d", i+1),
				"voices": []map[string]any{
					{
						"name":        "lucia",
						"audio_id":    voice1,
						"duration_ms": 1200,
						"source_url":  voice1 + ".audio",
					},
					{
						"name":        "mateo",
						"audio_id":    voice2,
						"duration_ms": 1300,
						"source_url":  voice2 + ".audio",
					},
				},
			},
		})
	}

	bundle := map[string]any{
		"id":              spec.ID,
		"name":            "demo course",
		"known_language":  "en-US",
		"target_language": "es-ES",
		"media_dir":       filepath.Base(mediaDir),
		"units":           units,
	}

	payload, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(dir, spec.ID+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

// MustLoadCourse writes a course bundle and loads it through the
// catalog.
func MustLoadCourse(t testing.TB, dir string, spec CourseSpec) *catalog.Course {
	t.Helper()

	path := WriteCourse(t, dir, spec)
	course, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return course
}

func writeMedia(t testing.TB, path string) {
	t.Helper()

	if err := os.WriteFile(path, []byte("audio-bytes:"+filepath.Base(path)), 0o644); err != nil {
		t.Fatalf("write media %s: %v", path, err)
	}
}
