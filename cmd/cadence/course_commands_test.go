package main

import (
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/catalog"
	"cadence/internal/testsupport"
)

func TestCourseListValidateInfo(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "course", "list")
	if err != nil {
		t.Fatalf("course list: %v", err)
	}
	requireContains(t, out, "es-demo")
	requireContains(t, out, "en-US -> es-ES")
	requireContains(t, out, "ok")

	out, _, err = runCLI(t, env.configPath, "course", "validate", env.courseID)
	if err != nil {
		t.Fatalf("course validate: %v", err)
	}
	requireContains(t, out, "Course es-demo: 4 units across 2 threads")
	requireContains(t, out, "12 local files, 0 remote sources, 0 missing")
	requireContains(t, out, "Course valid")

	out, _, err = runCLI(t, env.configPath, "course", "info", env.courseID, "--units")
	if err != nil {
		t.Fatalf("course info: %v", err)
	}
	requireContains(t, out, "ID:        es-demo")
	requireContains(t, out, "Languages: en-US -> es-ES")
	requireContains(t, out, "es-demo-u01")
	requireContains(t, out, "lucia, mateo")
}

func TestCourseValidateReportsMissingMedia(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	path := testsupport.WriteCourse(t, dir, testsupport.CourseSpec{ID: "es-hole", Units: 2, Threads: 1})
	victim := filepath.Join(dir, "es-hole-media", "es-hole-u02-v1.audio")
	if err := os.Remove(victim); err != nil {
		t.Fatalf("remove media: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "course", "validate", path)
	if err != nil {
		t.Fatalf("course validate: %v", err)
	}
	requireContains(t, out, "1 missing")
	requireContains(t, out, "es-hole-u02-v1.audio (unit es-hole-u02)")
}

func TestCourseResolutionFailsForUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "course", "info", "nope")
	if err == nil {
		t.Fatal("expected unknown course id to fail")
	}
	requireContains(t, err.Error(), "not found")
}

func TestNearDuplicateTargetDetection(t *testing.T) {
	course := &catalog.Course{
		ID: "es-dup",
		Units: []catalog.Unit{
			{ID: "u1", Target: catalog.Target{Text: "¿Dónde está el banco?"}},
			{ID: "u2", Target: catalog.Target{Text: "dónde está el banco"}},
			{ID: "u3", Target: catalog.Target{Text: "quiero un café"}},
			{ID: "u4", Target: catalog.Target{Text: "frase 1"}},
			{ID: "u5", Target: catalog.Target{Text: "frase 2"}},
		},
	}

	pairs := nearDuplicateTargets(course)
	if len(pairs) != 1 {
		t.Fatalf("expected one duplicate pair, got %#v", pairs)
	}
	if pairs[0][0] != "u1" || pairs[0][1] != "u2" {
		t.Fatalf("unexpected pair %v", pairs[0])
	}
}
