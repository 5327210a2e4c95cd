package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bizcard/internal/config"
	"bizcard/internal/export"
	"bizcard/internal/fileutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputFlag string
	var qrDir string
	var qrSize int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored cards as xlsx, csv or vcard",
		Example: "  bizcard export --format xlsx --output cards.xlsx\n" +
			"  bizcard export --format vcard --output - --qr-dir ./qr",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			records, err := rec.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			target := strings.TrimSpace(outputFlag)
			if target == "" {
				target = "cards" + format.Extension()
			}
			if target == "-" {
				if format == export.FormatXLSX {
					return fmt.Errorf("xlsx output needs a file path")
				}
				if err := export.Write(out, format, records); err != nil {
					return err
				}
			} else {
				path, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				err = fileutil.StreamFileAtomic(path, 0o644, func(w io.Writer) error {
					return export.Write(w, format, records)
				})
				if err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(out, "Exported %d %s to %s\n", len(records), pluralize(int64(len(records)), "card"), path)
			}

			if strings.TrimSpace(qrDir) != "" {
				dir, err := config.ExpandPath(qrDir)
				if err != nil {
					return err
				}
				if err := fileutil.EnsureWritableDir(dir); err != nil {
					return err
				}
				paths, err := export.WriteQRDir(dir, records, qrSize)
				if err != nil {
					return err
				}
				if target != "-" {
					fmt.Fprintf(out, "Wrote %d QR %s to %s\n", len(paths), pluralize(int64(len(paths)), "code"), dir)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(export.FormatXLSX), "Output format: xlsx, csv or vcard")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination file, or - for stdout (default cards.<ext>)")
	cmd.Flags().StringVar(&qrDir, "qr-dir", "", "Also write a vCard QR code PNG per card into this directory")
	cmd.Flags().IntVar(&qrSize, "qr-size", export.DefaultQRSize, "QR code size in pixels")
	return cmd
}
