package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"hopper/internal/daemonrun"
	"hopper/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, daemonrun.LogFileName)
			out := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 && offset == 0 {
					fmt.Fprintf(out, "No log output at %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&filter.Level, "level", "", "Only lines at this level")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only lines containing this text")
	return cmd
}
