package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/store"
)

func newBaselinesCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "List calibration baselines for the learner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				baselines, err := st.ListBaselines(cmd.Context(), cfg.Learner.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(baselines) == 0 {
					fmt.Fprintf(out, "No baselines for learner %s; the next session calibrates one\n", cfg.Learner.ID)
					return nil
				}

				rows := make([][]string, 0, len(baselines))
				for _, b := range baselines {
					if activeOnly && b.SupersededAt != nil {
						continue
					}
					state := "active"
					if b.SupersededAt != nil {
						state = "superseded " + formatTimestamp(*b.SupersededAt)
					}
					rows = append(rows, []string{
						b.CourseID,
						strconv.Itoa(b.SampleCount),
						formatMS(b.LatencyMeanMS),
						formatMS(b.LatencyStddevMS),
						yesNo(b.HadTimingData),
						formatTimestamp(b.CreatedAt),
						state,
					})
				}
				table := renderTable([]column{
					{name: "Course"},
					{name: "Samples", numeric: true},
					{name: "Mean", numeric: true},
					{name: "Stddev", numeric: true},
					{name: "Timed"},
					{name: "Created"},
					{name: "State"},
				}, rows)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show only active baselines")
	return cmd
}
