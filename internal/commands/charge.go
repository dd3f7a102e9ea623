package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/venmo"
)

type paymentFlags struct {
	usernames string
	amount    string
	note      string
	audience  string
}

func (f *paymentFlags) register(cmd *cobra.Command, verb string) {
	cmd.Flags().StringVar(&f.usernames, "username", "", "username to "+verb+"; comma-separate several")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount in dollars, e.g. 12.50")
	cmd.Flags().StringVar(&f.note, "note", "", "note shown with the payment")
	cmd.Flags().StringVar(&f.audience, "audience", "", "public, friends or private (default from config)")
	cmd.Flags().StringVar(&f.note, "memo", "", "alias for --note")
	_ = cmd.Flags().MarkHidden("memo")
}

func newChargeCommand(a *app) *cobra.Command {
	var f paymentFlags
	cmd := &cobra.Command{
		Use:   "charge",
		Short: "Request money from one or more users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayment(cmd, a, f, true)
		},
	}
	f.register(cmd, "charge")
	return cmd
}

func newPayCommand(a *app) *cobra.Command {
	var f paymentFlags
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Send money to one or more users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayment(cmd, a, f, false)
		},
	}
	f.register(cmd, "pay")
	return cmd
}

// parseAmount accepts an optional leading $ and requires a positive value
// with at most two decimal places.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("must enter positive amount: %s", s)
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("amount %s has more than two decimal places", s)
	}
	return d, nil
}

func runPayment(cmd *cobra.Command, a *app, f paymentFlags, charge bool) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	verb, action := "pay", history.ActionPay
	if charge {
		verb, action = "charge", history.ActionCharge
	}

	var err error
	if f.usernames == "" {
		if f.usernames, err = a.prompt(cmd, "Username to "+verb); err != nil {
			return err
		}
	}
	if f.amount == "" {
		if f.amount, err = a.prompt(cmd, "Amount"); err != nil {
			return err
		}
	}
	amount, err := parseAmount(f.amount)
	if err != nil {
		return err
	}
	if f.note == "" {
		if f.note, err = a.prompt(cmd, "Note"); err != nil {
			return err
		}
	}
	audience := f.audience
	if audience == "" {
		audience = a.cfg.Defaults.Audience
	}

	for _, username := range strings.Split(f.usernames, ",") {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		user, err := a.client.LookupUser(cmd.Context(), username)
		if err != nil {
			return err
		}

		params := venmo.ChargeParams{
			UserID:   user.ID,
			Amount:   amount,
			Note:     f.note,
			Audience: model.Audience(audience),
		}
		var p model.Payment
		if charge {
			p, err = a.client.Charge(cmd.Context(), params)
		} else {
			p, err = a.client.Pay(cmd.Context(), params)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", verb, user.Username, err)
		}

		a.record(history.Entry{
			Action:       action,
			Counterparty: user.Username,
			Amount:       decimal.NewNullDecimal(p.Amount.Decimal),
			PaymentID:    p.ID,
			Status:       string(p.Status),
			Note:         f.note,
		})
		if charge {
			success(cmd.OutOrStdout(), "Charged %s %s successfully! (%s)", user.Username, money(amount), p.Status)
		} else {
			success(cmd.OutOrStdout(), "Paid %s %s successfully! (%s)", user.Username, money(amount), p.Status)
		}
	}
	return nil
}
