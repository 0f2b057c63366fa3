package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/store"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var includeRetired bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show per-unit schedule progress for the learner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				units, err := st.ListUnitProgress(cmd.Context(), cfg.Learner.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(units) == 0 {
					fmt.Fprintf(out, "No tracked units for learner %s\n", cfg.Learner.ID)
					return nil
				}

				retired := 0
				rows := make([][]string, 0, len(units))
				for _, unit := range units {
					if unit.Retired {
						retired++
						if !includeRetired {
							continue
						}
					}
					rows = append(rows, []string{
						unit.UnitID,
						strconv.Itoa(unit.Thread),
						strconv.Itoa(unit.Position),
						strconv.Itoa(unit.Skip),
						strconv.Itoa(unit.Repetitions),
						formatTimestamp(unit.LastPracticedAt),
						yesNo(unit.Retired),
					})
				}

				table := renderTable([]column{
					{name: "Unit"},
					{name: "Thread", numeric: true},
					{name: "Position", numeric: true},
					{name: "Skip", numeric: true},
					{name: "Reps", numeric: true},
					{name: "Last practiced"},
					{name: "Retired"},
				}, rows)
				fmt.Fprintln(out, table)
				if retired > 0 && !includeRetired {
					fmt.Fprintf(out, "%d retired unit(s) hidden; pass --retired to include them\n", retired)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeRetired, "retired", false, "Include retired units")
	return cmd
}
