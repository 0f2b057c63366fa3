package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cadence/internal/session"
	"cadence/internal/simulate"
	"cadence/internal/store"
)

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var (
		courseRef    string
		items        int
		seed         int64
		baseLatency  float64
		jitter       float64
		spikeEvery   int
		spikeFactor  float64
		failureEvery int
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a scripted practice session against a course",
		Long: `Simulate runs a deterministic scripted learner through a full session:
units are scheduled, latencies observed, spikes detected, and every
response persisted exactly as in real practice. Useful for exercising a
course bundle and for watching calibration and spike handling behave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			course, err := resolveCourse(ctx, courseRef)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, logPath, err := ctx.newLogger(false)
			if err != nil {
				return err
			}

			// One practicing process per store. Maintenance watch holds
			// the same lock, so sweeps and sessions never overlap.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire practice lock: %w", err)
			}
			if !locked {
				return errors.New("another cadence process holds the practice lock")
			}
			defer func() { _ = lock.Unlock() }()

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			orch, err := session.New(cmd.Context(), cfg, course, st, logger)
			if err != nil {
				return err
			}

			outcome, err := simulate.Run(cmd.Context(), orch, simulate.Profile{
				Seed:          seed,
				Items:         items,
				BaseLatencyMS: baseLatency,
				JitterMS:      jitter,
				SpikeEvery:    spikeEvery,
				SpikeFactor:   spikeFactor,
				FailureEvery:  failureEvery,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(outcome.Items))
			for _, item := range outcome.Items {
				spike := "-"
				if item.Spiked {
					spike = string(item.Response)
				}
				rows = append(rows, []string{
					strconv.Itoa(item.Index + 1),
					item.UnitID,
					string(item.CycleType),
					formatMS(item.LatencyMS),
					string(item.Outcome),
					string(item.Mode),
					spike,
				})
			}
			table := renderTable([]column{
				{name: "#", numeric: true},
				{name: "Unit"},
				{name: "Cycle"},
				{name: "Latency", numeric: true},
				{name: "Outcome"},
				{name: "Mode"},
				{name: "Spike"},
			}, rows)
			fmt.Fprintln(out, table)

			summary := outcome.Summary
			fmt.Fprintf(out, "Session %s: %d items, %d introduced, %d spikes\n",
				summary.SessionID, summary.ItemsPracticed, summary.UnitsIntroduced, summary.SpikesDetected)
			fmt.Fprintf(out, "Final rolling average: %s\n", formatMS(summary.FinalRollingAvgMS))
			fmt.Fprintf(out, "Log: %s\n", logPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&courseRef, "course", "", "Course id or bundle path (required)")
	cmd.Flags().IntVar(&items, "items", 0, "Item cap for the run (0 uses the session limit)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the scripted learner")
	cmd.Flags().Float64Var(&baseLatency, "base-latency", 0, "Base response latency in ms (0 for the default)")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "Latency jitter in ms")
	cmd.Flags().IntVar(&spikeEvery, "spike-every", 0, "Inject a latency spike every N items (0 disables)")
	cmd.Flags().Float64Var(&spikeFactor, "spike-factor", 0, "Latency multiplier for injected spikes")
	cmd.Flags().IntVar(&failureEvery, "failure-every", 0, "Mark every Nth response incorrect (0 disables)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full transcript as JSON")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
