package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bizcard/internal/contact"
	"bizcard/internal/reconcile"
	"bizcard/internal/services"
	"bizcard/internal/share"
)

func newCardsCommand(ctx *commandContext) *cobra.Command {
	cardsCmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage stored business cards",
	}

	cardsCmd.AddCommand(newCardsListCommand(ctx))
	cardsCmd.AddCommand(newCardsShowCommand(ctx))
	cardsCmd.AddCommand(newCardsSaveCommand(ctx))
	cardsCmd.AddCommand(newCardsUpdateCommand(ctx))
	cardsCmd.AddCommand(newCardsDeleteCommand(ctx))
	cardsCmd.AddCommand(newCardsShareCommand(ctx))

	return cardsCmd
}

func newCardsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			records, err := rec.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				if records == nil {
					records = []contact.Record{}
				}
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No cards stored")
				return nil
			}
			fmt.Fprintln(out, renderCards(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newCardsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a stored card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "cards show", fmt.Sprintf("invalid card id %q", args[0]), nil)
			}
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			record, err := rec.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd, jsonOut, record, func() string { return renderRecord(record) })
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newCardsSaveCommand(ctx *commandContext) *cobra.Command {
	values := make(map[contact.Field]*string, len(contact.Fields))
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a card from field flags",
		Example: "  bizcard cards save --name \"Asha Rao\" --phone \"+91 98450 12345\" " +
			"--email asha@example.com --city Bengaluru",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			record := contact.NewRecord()
			for _, f := range contact.Fields {
				if v := strings.TrimSpace(*values[f]); v != "" {
					record.Set(f, v)
				}
			}
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := rec.Save(cmd.Context(), record)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved card %d (%s)\n", saved.ID, saved.Name)
			return nil
		},
	}
	for _, f := range contact.Fields {
		values[f] = cmd.Flags().String(fieldFlag(f), "", f.Label())
	}
	return cmd
}

func newCardsUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update <selector> <value> <field> <new-value>",
		Short: "Change one field of the cards matching a selector",
		Long: "Change one field of the cards matching a selector.\n\n" +
			"Selectors: " + strings.Join(selectorNames(), ", ") + ".\n" +
			"Fields: " + strings.Join(fieldNames(), ", ") + ".",
		Example: "  bizcard cards update email asha@example.com city Mysuru",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			n, err := rec.Update(cmd.Context(), args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d %s\n", n, pluralize(n, "card"))
			return nil
		},
	}
}

func newCardsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <selector> <value>",
		Short:   "Delete the cards matching a selector",
		Long:    "Delete the cards matching a selector (" + strings.Join(selectorNames(), ", ") + ").",
		Example: "  bizcard cards delete id 7",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			n, err := rec.Delete(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s\n", n, pluralize(n, "card"))
			return nil
		},
	}
}

func newCardsShareCommand(ctx *commandContext) *cobra.Command {
	var hours int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print an expiring public link to a card's vCard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "cards share", fmt.Sprintf("invalid card id %q", args[0]), nil)
			}
			signer, err := ctx.shareSigner()
			if err != nil {
				return err
			}
			if signer == nil {
				return services.Wrap(services.ErrConfiguration, "cli", "cards share", "sharing is disabled; set api.share_secret or BIZCARD_SHARE_SECRET", nil)
			}
			rec, err := ctx.reconciler(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := rec.Get(cmd.Context(), id); err != nil {
				return err
			}
			tok, err := signer.Issue(id, time.Duration(hours)*time.Hour)
			if err != nil {
				return err
			}
			base := ctx.configValue().ShareBaseURL()
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"url":    share.URL(base, tok),
					"qr_url": share.QRURL(base, tok),
					"share":  tok,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, share.URL(base, tok))
			fmt.Fprintf(out, "Expires: %s\n", tok.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", int(share.DefaultTTL/time.Hour), "Link lifetime in hours (max 168)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func fieldFlag(f contact.Field) string {
	return strings.ReplaceAll(string(f), "_", "-")
}

func fieldNames() []string {
	names := make([]string, 0, len(contact.Fields))
	for _, f := range contact.Fields {
		names = append(names, string(f))
	}
	return names
}

func selectorNames() []string {
	names := make([]string, 0, len(reconcile.Selectors))
	for _, s := range reconcile.Selectors {
		names = append(names, string(s))
	}
	return names
}

func pluralize(n int64, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
