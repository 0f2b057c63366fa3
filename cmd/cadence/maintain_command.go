package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cadence/internal/maintenance"
	"cadence/internal/store"
)

func newMaintainCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run retention maintenance against the store",
		Long: `Maintain prunes response metrics and spike events past their retention
age, marks stale baselines for recalibration, and reclaims database
space. One-shot by default; --watch keeps sweeping on the configured
interval until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, _, err := ctx.newLogger(watch)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runner, err := maintenance.New(cfg, st, logger)
			if err != nil {
				return err
			}

			if watch {
				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				if err := runner.Start(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sweeping every %d minute(s); interrupt to stop\n", cfg.Maintenance.SweepInterval)
				<-signalCtx.Done()
				runner.Stop()
				return nil
			}

			report, err := runner.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printMaintenanceReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep sweeping on the configured interval")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the sweep report as JSON")
	return cmd
}

func printMaintenanceReport(cmd *cobra.Command, report maintenance.Report) {
	out := cmd.OutOrStdout()
	pruned := report.MetricsPruned + report.SpikesPruned
	if report.MetricsCutoff.IsZero() {
		fmt.Fprintln(out, "Metric retention disabled; nothing pruned")
	} else {
		fmt.Fprintf(out, "Pruned %s response metric(s) and %s spike event(s) older than %s\n",
			formatCount(report.MetricsPruned), formatCount(report.SpikesPruned), formatTimestamp(report.MetricsCutoff))
	}
	if report.BaselineCutoff.IsZero() {
		fmt.Fprintln(out, "Baseline recalibration sweep disabled")
	} else {
		fmt.Fprintf(out, "Expired %s stale baseline(s) older than %s\n",
			formatCount(report.BaselinesExpired), formatTimestamp(report.BaselineCutoff))
	}
	if report.Vacuumed {
		fmt.Fprintln(out, "Vacuumed database")
	} else if pruned == 0 {
		fmt.Fprintln(out, "No rows removed; vacuum skipped")
	}
}
