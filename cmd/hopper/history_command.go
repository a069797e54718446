package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hopper/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	var showCounts bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent launches",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			entries, counts, err := b.History(limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Entries []history.Entry `json:"entries"`
					Counts  []history.Count `json:"counts"`
				}{entries, counts})
			}

			out := cmd.OutOrStdout()
			if showCounts {
				if len(counts) == 0 {
					fmt.Fprintln(out, "No launches recorded")
					return nil
				}
				rows := make([][]string, 0, len(counts))
				for _, c := range counts {
					rows = append(rows, []string{c.Name, strconv.Itoa(c.Launches), formatLaunchTime(c.Last)})
				}
				fmt.Fprint(out, renderTable(countColumns, rows))
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No launches recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					formatLaunchTime(e.LaunchedAt),
					e.Name,
					strings.Join(e.Exec, " "),
					strconv.Itoa(e.PID),
				})
			}
			fmt.Fprint(out, renderTable(launchColumns, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of launches to show (0 for all)")
	cmd.Flags().BoolVar(&showCounts, "counts", false, "Show launch totals per application")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func formatLaunchTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
