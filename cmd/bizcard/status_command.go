package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bizcard/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"doctor"},
		Short:   "Check directories, the OCR engine, the store and the cache",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var results []preflight.Result
			st, storeErr := ctx.openStore(cmd.Context())
			if storeErr != nil {
				results = append(results, preflight.Result{Name: "Card store", Detail: storeErr.Error()})
				results = append(results, preflight.RunAll(cmd.Context(), cfg, nil)...)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg, st)
			}
			failed := preflight.Failed(results)

			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("bizcard status", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("OCR engine", statusInfo, cfg.OCR.Engine, colorize))
				fmt.Fprintln(out, renderStatusLine("Store driver", statusInfo, cfg.Database.Driver, colorize))
				for _, r := range results {
					fmt.Fprintln(out, preflightLine(r, colorize))
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
