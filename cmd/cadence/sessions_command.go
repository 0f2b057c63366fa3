package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions [sessionID]",
		Short: "List practice sessions, or show one session's responses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if len(args) == 1 {
					return showSessionDetail(cmd, st, args[0])
				}

				sessions, err := st.ListSessions(cmd.Context(), cfg.Learner.ID, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintf(out, "No sessions recorded for learner %s\n", cfg.Learner.ID)
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.ID,
						session.CourseID,
						formatTimestamp(session.StartedAt),
						formatTimestampPtr(session.EndedAt),
						strconv.Itoa(session.ItemsPracticed),
						strconv.Itoa(session.SpikesDetected),
						formatMS(session.FinalRollingAvgMS),
					})
				}
				table := renderTable([]column{
					{name: "Session"},
					{name: "Course"},
					{name: "Started"},
					{name: "Ended"},
					{name: "Items", numeric: true},
					{name: "Spikes", numeric: true},
					{name: "Rolling avg", numeric: true},
				}, rows)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list (0 for all)")
	return cmd
}

func showSessionDetail(cmd *cobra.Command, st *store.Store, sessionID string) error {
	session, err := st.GetSession(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %q not found", sessionID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:  %s\n", session.ID)
	fmt.Fprintf(out, "Learner:  %s\n", session.LearnerID)
	fmt.Fprintf(out, "Course:   %s\n", session.CourseID)
	fmt.Fprintf(out, "Started:  %s\n", formatTimestamp(session.StartedAt))
	fmt.Fprintf(out, "Ended:    %s\n", formatTimestampPtr(session.EndedAt))
	fmt.Fprintf(out, "Items:    %d (%d spikes)\n", session.ItemsPracticed, session.SpikesDetected)

	metrics, err := st.ResponseMetricsBySession(cmd.Context(), session.ID)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		fmt.Fprintln(out, "No responses recorded")
		return nil
	}

	rows := make([][]string, 0, len(metrics))
	for _, metric := range metrics {
		rows = append(rows, []string{
			metric.UnitID,
			strconv.Itoa(metric.Thread),
			formatTimestamp(metric.RecordedAt),
			formatMS(metric.LatencyMS),
			formatMS(metric.NormalizedMS),
			string(metric.Mode),
			yesNo(metric.TriggeredSpike),
		})
	}
	table := renderTable([]column{
		{name: "Unit"},
		{name: "Thread", numeric: true},
		{name: "Recorded"},
		{name: "Latency", numeric: true},
		{name: "Normalized", numeric: true},
		{name: "Mode"},
		{name: "Spike"},
	}, rows)
	fmt.Fprintln(out, table)
	return nil
}
