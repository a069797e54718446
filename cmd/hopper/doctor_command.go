package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, registry and terminal configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			failed := preflight.Failed(results)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, result := range results {
					fmt.Fprintln(out, preflightStatusLine(result, colorize))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
