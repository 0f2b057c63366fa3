package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display engine logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir, logFilePattern)
			if err != nil {
				return err
			}
			if path == "" {
				// Nothing written yet. Follow mode waits on the file the
				// next session or sweep would create.
				path = filepath.Join(cfg.Paths.LogDir, logFileName(time.Now()))
			}

			out := cmd.OutOrStdout()
			shown, offset, err := logs.ReadLast(path, lines)
			if err != nil {
				return err
			}
			for _, line := range shown {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(shown) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(signalCtx, path, offset, func(batch []string) {
				for _, line := range batch {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	return cmd
}
