package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bizcard/internal/classifier"
	"bizcard/internal/contact"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var explain bool
	var save bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "classify [fragment...]",
		Short: "Classify card text fragments given in reading order",
		Long: "Classify card text fragments given in reading order.\n\n" +
			"Fragments come from the arguments, or one per line from stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				texts = lines
			}

			record, trace, err := ctx.classifier().Explain(contact.Fragments(texts...))
			if err != nil {
				return err
			}

			if save {
				rec, err := ctx.reconciler(cmd.Context())
				if err != nil {
					return err
				}
				if record, err = rec.Save(cmd.Context(), record); err != nil {
					return err
				}
			}

			if jsonOut {
				payload := struct {
					Record      contact.Record          `json:"record"`
					Assignments []classifier.Assignment `json:"assignments,omitempty"`
				}{Record: record}
				if explain {
					payload.Assignments = trace
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRecord(record))
			if explain {
				fmt.Fprintln(out, renderAssignments(trace))
				for _, line := range outcomeLines(trace, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Show which rule classified each fragment")
	cmd.Flags().BoolVar(&save, "save", false, "Store the classified card")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fragments: %w", err)
	}
	return lines, nil
}
