package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/catalog"
	"cadence/internal/textutil"
)

func newCourseCommand(ctx *commandContext) *cobra.Command {
	courseCmd := &cobra.Command{
		Use:   "course",
		Short: "Inspect course bundles",
	}

	courseCmd.AddCommand(newCourseListCommand(ctx))
	courseCmd.AddCommand(newCourseValidateCommand(ctx))
	courseCmd.AddCommand(newCourseInfoCommand(ctx))

	return courseCmd
}

func newCourseListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List course bundles in the courses directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths, err := catalog.List(cfg.Paths.CoursesDir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No course bundles in %s\n", cfg.Paths.CoursesDir)
				return nil
			}

			rows := make([][]string, 0, len(paths))
			for _, path := range paths {
				name := filepath.Base(path)
				course, err := catalog.Load(path)
				if err != nil {
					rows = append(rows, []string{"-", name, "-", "-", "-", "invalid: " + err.Error()})
					continue
				}
				rows = append(rows, []string{
					course.ID,
					name,
					course.LanguagePair(),
					strconv.Itoa(len(course.Units)),
					strconv.Itoa(len(course.Threads())),
					"ok",
				})
			}
			table := renderTable([]column{
				{name: "Course"},
				{name: "Bundle"},
				{name: "Languages"},
				{name: "Units", numeric: true},
				{name: "Threads", numeric: true},
				{name: "State"},
			}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newCourseValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <course>",
		Short: "Validate a course bundle and its media files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course, err := resolveCourse(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Course %s: %d units across %d threads\n", course.ID, len(course.Units), len(course.Threads()))

			local, remote, missing := auditCourseMedia(course)
			fmt.Fprintf(out, "Media: %d local files, %d remote sources, %d missing\n", local, remote, len(missing))
			for _, m := range missing {
				fmt.Fprintf(out, "  missing: %s\n", m)
			}
			if dupes := nearDuplicateTargets(course); len(dupes) > 0 {
				fmt.Fprintf(out, "Phrases: %d near-duplicate target pair(s)\n", len(dupes))
				for _, pair := range dupes {
					fmt.Fprintf(out, "  similar: %s ~ %s\n", pair[0], pair[1])
				}
			}
			fmt.Fprintln(out, "Course valid")
			return nil
		},
	}
}

// auditCourseMedia stats every locally sourced audio file. Remote
// sources (anything with a scheme) are only counted; the fetch layer
// owns those at session time.
func auditCourseMedia(course *catalog.Course) (local, remote int, missing []string) {
	check := func(unitID, source string) {
		source = strings.TrimSpace(source)
		if source == "" {
			return
		}
		if strings.Contains(source, "://") {
			remote++
			return
		}
		resolved := source
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(course.MediaDir, resolved)
		}
		local++
		if _, err := os.Stat(resolved); err != nil {
			missing = append(missing, fmt.Sprintf("%s (unit %s)", source, unitID))
		}
	}

	for _, unit := range course.Units {
		check(unit.ID, unit.Known.SourceURL)
		for _, voice := range unit.Target.Voices {
			check(unit.ID, voice.SourceURL)
		}
	}
	return local, remote, missing
}

const duplicatePhraseThreshold = 0.95

// nearDuplicateTargets flags unit pairs whose target texts carry the
// same words, ignoring case, punctuation, and word order.
func nearDuplicateTargets(course *catalog.Course) [][2]string {
	prints := make([]*textutil.Fingerprint, len(course.Units))
	for i, unit := range course.Units {
		prints[i] = textutil.NewFingerprint(unit.Target.Text)
	}
	var pairs [][2]string
	for i := range course.Units {
		for j := i + 1; j < len(course.Units); j++ {
			if prints[i].Similarity(prints[j]) >= duplicatePhraseThreshold {
				pairs = append(pairs, [2]string{course.Units[i].ID, course.Units[j].ID})
			}
		}
	}
	return pairs
}

func newCourseInfoCommand(ctx *commandContext) *cobra.Command {
	var showUnits bool

	cmd := &cobra.Command{
		Use:   "info <course>",
		Short: "Show course details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course, err := resolveCourse(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Course:    %s\n", course.DisplayName())
			fmt.Fprintf(out, "ID:        %s\n", course.ID)
			fmt.Fprintf(out, "Languages: %s\n", course.LanguagePair())
			fmt.Fprintf(out, "Media dir: %s\n", course.MediaDir)
			fmt.Fprintf(out, "Units:     %d across %d threads\n", len(course.Units), len(course.Threads()))

			if !showUnits {
				return nil
			}
			rows := make([][]string, 0, len(course.Units))
			for _, unit := range course.Units {
				voices := unit.Target.Voices[0].Name + ", " + unit.Target.Voices[1].Name
				rows = append(rows, []string{
					unit.ID,
					strconv.Itoa(unit.Thread),
					strconv.Itoa(unit.PhraseLength()),
					truncate(unit.Known.Text, 36),
					truncate(unit.Target.Text, 36),
					voices,
				})
			}
			table := renderTable([]column{
				{name: "Unit"},
				{name: "Thread", numeric: true},
				{name: "Words", numeric: true},
				{name: "Known"},
				{name: "Target"},
				{name: "Voices"},
			}, rows)
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showUnits, "units", false, "Include the per-unit table")
	return cmd
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
