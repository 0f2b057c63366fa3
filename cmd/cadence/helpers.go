package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cadence/internal/catalog"
	"cadence/internal/config"
)

// resolveCourse turns a command argument into a loaded course. Anything
// that looks like a file path loads directly; otherwise the argument is
// matched against course ids in the configured courses directory.
func resolveCourse(ctx *commandContext, ref string) (*catalog.Course, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("course id or bundle path is required")
	}

	if strings.ContainsAny(ref, "/\\") || strings.HasSuffix(ref, ".json") {
		path, err := config.ExpandPath(ref)
		if err != nil {
			return nil, err
		}
		return catalog.Load(path)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	paths, err := catalog.List(cfg.Paths.CoursesDir)
	if err != nil {
		return nil, fmt.Errorf("list courses in %s: %w", cfg.Paths.CoursesDir, err)
	}
	for _, path := range paths {
		course, err := catalog.Load(path)
		if err != nil {
			// Broken bundles surface through `course validate`.
			continue
		}
		if course.ID == ref {
			return course, nil
		}
	}
	return nil, fmt.Errorf("course %q not found in %s", ref, cfg.Paths.CoursesDir)
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04:05")
}

func formatTimestampPtr(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatTimestamp(*value)
}

func formatMS(value float64) string {
	if value == 0 {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', 0, 64) + "ms"
}

func formatRatio(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatCount(value int64) string {
	return strconv.FormatInt(value, 10)
}
