package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hopper/internal/apps"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List applications ranked by frecency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			search := ""
			if len(args) == 1 {
				search = args[0]
			}
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			ranked, err := b.Query(search, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ranked)
			}
			printApps(cmd.OutOrStdout(), ranked)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printApps(out io.Writer, list []apps.App) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No applications found")
		return
	}
	if !shouldColorize(out) {
		for _, app := range list {
			fmt.Fprintf(out, "%s\t%s\t%s\n", app.ID, app.Name, strings.Join(app.Exec, " "))
		}
		return
	}
	rows := make([][]string, 0, len(list))
	for _, app := range list {
		rows = append(rows, []string{
			app.Name,
			strings.Join(app.Exec, " "),
			yesNo(app.Terminal),
			strconv.FormatFloat(app.Score, 'f', 2, 64),
			app.ID,
		})
	}
	fmt.Fprint(out, renderTable(appColumns, rows))
}

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <id|name>",
		Short: "Launch an application and record the use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			target, err := resolveApp(b, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			app, pid, err := b.Launch(target.ID)
			if err != nil {
				return fmt.Errorf("launch %s: %w", target.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Launched %s (pid %d)\n", app.Name, pid)
			return nil
		},
	}
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Rescan application directories and merge the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			count, scanErrs, err := b.Rescan()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registry holds %d applications\n", count)
			if len(scanErrs) > 0 {
				fmt.Fprintf(out, "%d entries could not be read:\n", len(scanErrs))
				for _, msg := range scanErrs {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return nil
		},
	}
}
