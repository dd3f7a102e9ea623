package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/export"
	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/paging"
	"github.com/tally-dev/tally/internal/venmo"
)

func newBalanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			me, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (@%s): %s\n", me.User.DisplayName, me.User.Username, money(me.Balance.Decimal))
			return nil
		},
	}
}

func newTransactionsCommand(a *app) *cobra.Command {
	var start string
	var end string
	var limit int
	var asCSV bool
	var output string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Show transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := venmo.TransactionFilter{Limit: limit}
			if filter.Limit == 0 {
				filter.Limit = a.cfg.Defaults.TransactionsLimit
			}
			var err error
			if filter.Start, err = parseDate("start", start); err != nil {
				return err
			}
			if filter.End, err = parseDate("end", end); err != nil {
				return err
			}
			if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
				return fmt.Errorf("--end %s is before --start %s", end, start)
			}
			return runTransactions(cmd, a, filter, asCSV || output != "", output)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "latest date, YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum transactions (default from config)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to this file (implies --csv)")

	return cmd
}

func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, want YYYY-MM-DD", name, s)
	}
	return t, nil
}

func runTransactions(cmd *cobra.Command, a *app, filter venmo.TransactionFilter, asCSV bool, output string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	it := a.client.Transactions(filter)

	if asCSV {
		if output == "" {
			return writeTransactionsCSV(cmd, it, cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := closeAfter(f, output, writeTransactionsCSV(cmd, it, f)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
		return nil
	}

	txns, err := it.Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}
	if len(txns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions found.")
		return nil
	}

	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			date(t.DatetimeCreated),
			string(t.Type),
			t.Counterparty(),
			money(t.Amount.Decimal),
			t.Status(),
			truncate(t.Note, 40),
		})
	}
	renderTable(cmd.OutOrStdout(), []string{"Date", "Type", "Counterparty", "Amount", "Status", "Note"}, rows)
	return nil
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show actions taken with tally on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := history.Read(a.configDir)
			if err != nil {
				return err
			}
			entries = history.Tail(entries, limit)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				amount := ""
				if e.Amount.Valid {
					amount = money(e.Amount.Decimal)
				}
				rows = append(rows, []string{
					e.Timestamp.Local().Format("2006-01-02 15:04"),
					e.Action,
					e.Counterparty,
					amount,
					e.Status,
					truncate(e.Note, 40),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"When", "Action", "Who", "Amount", "Status", "Note"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "show the most recent entries; 0 for all")

	return cmd
}

func writeTransactionsCSV(cmd *cobra.Command, it *paging.Iterator[model.Transaction], w io.Writer) error {
	ew := export.NewWriter(w)
	for t, err := range it.All(cmd.Context()) {
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}
		if err := ew.Write(t); err != nil {
			return err
		}
	}
	return ew.Flush()
}

// closeAfter closes f once writing is done, reporting the write error
// first and otherwise the close error.
func closeAfter(f io.Closer, name string, err error) error {
	cerr := f.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return fmt.Errorf("closing %s: %w", name, cerr)
	}
	return nil
}
