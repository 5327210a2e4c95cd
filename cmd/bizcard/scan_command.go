package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bizcard/internal/config"
	"bizcard/internal/ocr"
	"bizcard/internal/scan"
	"bizcard/internal/services"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var explain bool
	var save bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Read a business card image and classify its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			image, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			detector, err := ocr.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer ocr.Close(detector)

			var saver scan.Saver
			if save {
				rec, err := ctx.reconciler(cmd.Context())
				if err != nil {
					return err
				}
				saver = rec
			}

			scanner := scan.New(detector, ctx.classifier(), saver, scan.Options{
				UploadDir:     cfg.Paths.UploadDir,
				MinConfidence: cfg.OCR.MinConfidence,
			}, logger)

			result, err := scanner.Scan(cmd.Context(), scan.Request{
				Image:    image,
				Filename: filepath.Base(path),
				Save:     save,
			})
			if err != nil && !(errors.Is(err, services.ErrConflict) && result.Record.Name != "") {
				return err
			}

			if jsonOut {
				if encErr := writeJSON(cmd, result); encErr != nil {
					return encErr
				}
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderRecord(result.Record))
			if explain {
				fmt.Fprintln(out, renderAssignments(result.Assignments))
				for _, line := range outcomeLines(result.Assignments, colorize) {
					fmt.Fprintln(out, line)
				}
			}
			if result.ArchivePath != "" {
				fmt.Fprintf(out, "Archived image: %s\n", result.ArchivePath)
			}
			if save {
				fmt.Fprintf(out, "Saved: %s\n", yesNo(result.Saved))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Show which rule classified each fragment")
	cmd.Flags().BoolVar(&save, "save", false, "Store the classified card")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the full scan result as JSON")
	return cmd
}
