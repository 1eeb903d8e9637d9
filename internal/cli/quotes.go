package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain"
)

func quotesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Inspect quotes",
	}

	cmd.AddCommand(quotesListCmd(open), quotesShowCmd(open))

	return cmd
}

func quotesListCmd(open opener) *cobra.Command {
	var rep, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var class domain.Classification

			if status != "" {
				c, err := domain.ParseClassification(status)
				if err != nil {
					return err
				}

				class = c
			}

			s, err := open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			quotes, err := s.quotes.ListQuotes(cmd.Context(), rep, class)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(quotes) == 0 {
				faint.Fprintln(out, "no quotes")
				return nil
			}

			tw := table(out)
			fmt.Fprintln(tw, heading.Sprint("NUMBER\tID\tSTATE\tREP\tDATE\tVERSION"))

			for _, q := range quotes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					q.QuoteNumber, q.ID, q.CurrentState, q.SalesRepresentative, q.QuoteDate.Format("2006-01-02"), q.Version)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&rep, "rep", "", "only quotes of this sales representative")
	cmd.Flags().StringVar(&status, "status", "", "active, closed or trashed")

	return cmd
}

func quotesShowCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quote-id>",
		Short: "Show a quote with its totals and workflow history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			view, err := s.quotes.GetQuote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printQuote(out, view)

			history := view.Quote.History
			if auditor, ok := s.store.Store.(persistence.Auditor); ok {
				trail, err := auditor.AuditTrail(cmd.Context(), view.Quote.ID)
				if err != nil {
					return fmt.Errorf("reading audit trail: %w", err)
				}

				history = trail
			}

			printHistory(out, history)

			return nil
		},
	}
}

func printQuote(w io.Writer, v *app.QuoteView) {
	q := v.Quote

	heading.Fprintf(w, "%s  %s\n", q.QuoteNumber, classLabel(v.Classification))

	tw := table(w)
	fmt.Fprintf(tw, "id\t%s\n", q.ID)
	fmt.Fprintf(tw, "outlet\t%s\n", v.Outlet.Name)
	fmt.Fprintf(tw, "type\t%s\n", v.Type.Name)
	fmt.Fprintf(tw, "state\t%s\n", q.CurrentState)
	fmt.Fprintf(tw, "rep\t%s\n", q.SalesRepresentative)
	fmt.Fprintf(tw, "runs\t%s to %s\n", q.StartDate.Format("2006-01-02"), q.EndDate().Format("2006-01-02"))
	fmt.Fprintf(tw, "subtotal\t%s %s\n", q.Currency, v.Totals.SubtotalAfterDiscounts.StringFixed(2))
	fmt.Fprintf(tw, "vat\t%s %s\n", q.Currency, v.Totals.VAT.StringFixed(2))
	fmt.Fprintf(tw, "total\t%s %s\n", q.Currency, v.Totals.GrandTotal.StringFixed(2))
	_ = tw.Flush()

	if len(v.Options) > 0 {
		fmt.Fprint(w, "options:")
		for _, o := range v.Options {
			fmt.Fprintf(w, " %s", o.ID)
		}
		fmt.Fprintln(w)
	}
}

func printHistory(w io.Writer, history []domain.WorkflowStateTransition) {
	heading.Fprintln(w, "history")

	tw := table(w)
	for _, t := range history {
		option := t.OptionID
		if option == "" {
			option = "start"
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.Timestamp.Format("2006-01-02 15:04"), option, t.StateID, t.Actor)
	}

	_ = tw.Flush()
}

func trashCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Manage trashed quotes",
	}

	var rep string

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete a representative's trashed quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rep == "" {
				return errors.New("--rep is required")
			}

			s, err := open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.quotes.PurgeTrash(cmd.Context(), rep)
			if err != nil {
				return err
			}

			done(cmd.OutOrStdout(), "purged %d trashed quotes of %s", n, rep)

			return nil
		},
	}

	purge.Flags().StringVar(&rep, "rep", "", "sales representative whose trash is emptied")
	cmd.AddCommand(purge)

	return cmd
}
