package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/store"
)

func newSpikesCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "spikes",
		Short: "List recent latency spike events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				events, err := st.SpikeEventsByLearner(cmd.Context(), cfg.Learner.ID, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintf(out, "No spike events for learner %s\n", cfg.Learner.ID)
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						event.UnitID,
						strconv.Itoa(event.Thread),
						formatTimestamp(event.RecordedAt),
						formatMS(event.LatencyMS),
						formatMS(event.RollingAvgMS),
						formatRatio(event.Ratio),
						string(event.Response),
					})
				}
				table := renderTable([]column{
					{name: "Unit"},
					{name: "Thread", numeric: true},
					{name: "Recorded"},
					{name: "Latency", numeric: true},
					{name: "Rolling avg", numeric: true},
					{name: "Ratio", numeric: true},
					{name: "Response"},
				}, rows)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events to list (0 for all)")
	return cmd
}
