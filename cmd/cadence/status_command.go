package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/audiocache"
	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine and store health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				health, healthErr := st.CheckHealth(cmd.Context())
				stats, statsErr := st.Stats(cmd.Context(), cfg.Learner.ID)

				bundles, _ := catalog.List(cfg.Paths.CoursesDir)
				cacheEntries := -1
				if cache, err := audiocache.Open(cfg.Paths.CacheDir, false, logging.NewNop()); err == nil {
					cacheEntries = cache.Len()
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"config_path":   ctx.configPath,
						"config_exists": ctx.configExists,
						"learner":       cfg.Learner.ID,
						"courses":       len(bundles),
						"cache_entries": cacheEntries,
						"database":      health,
						"stats":         stats,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := make([]string, 0, 16)

				lines = append(lines, renderSectionHeader("Cadence", colorize)...)
				configKind := statusOK
				configMsg := ctx.configPath
				if !ctx.configExists {
					configKind = statusWarn
					configMsg = "defaults in use (no file at " + ctx.configPath + ")"
				}
				lines = append(lines, renderStatusLine("Config", configKind, configMsg, colorize))
				lines = append(lines, renderStatusLine("Learner", statusInfo, cfg.Learner.ID, colorize))
				courseKind := statusOK
				courseMsg := fmt.Sprintf("%d bundle(s) in %s", len(bundles), cfg.Paths.CoursesDir)
				if len(bundles) == 0 {
					courseKind = statusWarn
					courseMsg = "no bundles in " + cfg.Paths.CoursesDir
				}
				lines = append(lines, renderStatusLine("Courses", courseKind, courseMsg, colorize))
				cacheKind := statusOK
				cacheMsg := fmt.Sprintf("%d entries in %s", cacheEntries, cfg.Paths.CacheDir)
				if cacheEntries < 0 {
					cacheKind = statusWarn
					cacheMsg = "unreadable at " + cfg.Paths.CacheDir
				}
				lines = append(lines, renderStatusLine("Audio cache", cacheKind, cacheMsg, colorize))

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Database", colorize)...)
				lines = append(lines, databaseLines(health, healthErr, colorize)...)

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Learner history", colorize)...)
				if statsErr != nil {
					lines = append(lines, renderStatusLine("Stats", statusError, statsErr.Error(), colorize))
				} else {
					lines = append(lines, statsLines(stats, colorize)...)
				}

				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func databaseLines(health store.DatabaseHealth, healthErr error, colorize bool) []string {
	lines := make([]string, 0, 4)
	switch {
	case healthErr != nil:
		lines = append(lines, renderStatusLine("Database", statusError, healthErr.Error(), colorize))
	case !health.DatabaseExists:
		lines = append(lines, renderStatusLine("Database", statusWarn, "not created yet at "+health.DBPath, colorize))
	default:
		lines = append(lines, renderStatusLine("Database", statusOK, health.DBPath, colorize))
		integrity := statusOK
		detail := "passed"
		if !health.IntegrityCheck {
			integrity = statusError
			detail = "failed"
		}
		lines = append(lines, renderStatusLine("Integrity", integrity, detail, colorize))
		if len(health.MissingTables) > 0 {
			lines = append(lines, renderStatusLine("Schema", statusError, "missing tables: "+strings.Join(health.MissingTables, ", "), colorize))
		} else {
			lines = append(lines, renderStatusLine("Schema", statusOK, "all tables present", colorize))
		}
		lines = append(lines, renderStatusLine("Sessions", statusInfo, fmt.Sprintf("%d recorded", health.TotalSessions), colorize))
	}
	return lines
}

func statsLines(stats store.Stats, colorize bool) []string {
	tracked := fmt.Sprintf("%d tracked, %d retired", stats.UnitsTracked, stats.UnitsRetired)
	baselineKind := statusOK
	baselineMsg := fmt.Sprintf("%d active", stats.ActiveBaselines)
	if stats.ActiveBaselines == 0 {
		baselineKind = statusInfo
		baselineMsg = "none yet (first session calibrates)"
	}
	return []string{
		renderStatusLine("Units", statusInfo, tracked, colorize),
		renderStatusLine("Sessions", statusInfo, fmt.Sprintf("%d", stats.Sessions), colorize),
		renderStatusLine("Responses", statusInfo, fmt.Sprintf("%d", stats.ResponseMetrics), colorize),
		renderStatusLine("Spikes", statusInfo, fmt.Sprintf("%d", stats.SpikeEvents), colorize),
		renderStatusLine("Baselines", baselineKind, baselineMsg, colorize),
	}
}
