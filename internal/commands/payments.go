package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/venmo"
)

func newPaymentsCommand(a *app) *cobra.Command {
	var status string
	var action string
	var actor string
	var limit int

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments and charges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit == 0 {
				limit = a.cfg.Defaults.PaymentsLimit
			}
			return runPayments(cmd, a, status, action, actor, limit)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "pending, held, settled, cancelled, expired or failed")
	cmd.Flags().StringVar(&action, "action", "", "pay or charge")
	cmd.Flags().StringVar(&actor, "actor", "", "only payments started by this username")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum payments to list (default from config)")

	return cmd
}

func runPayments(cmd *cobra.Command, a *app, status, action, actor string, limit int) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	filter := venmo.PaymentFilter{
		Status: model.PaymentStatus(status),
		Action: model.PaymentAction(action),
		Limit:  limit,
	}
	if actor != "" {
		u, err := a.client.LookupUser(cmd.Context(), actor)
		if err != nil {
			return err
		}
		filter.ActorID = u.ID
	}

	payments, err := a.client.Payments(filter).Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}
	if len(payments) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No payments found.")
		return nil
	}

	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			p.ID,
			date(p.DateCreated),
			string(p.Action),
			string(p.Status),
			p.Actor.DisplayName,
			p.Target.DisplayName(),
			money(p.Amount.Decimal),
			truncate(p.Note, 40),
		})
	}
	renderTable(cmd.OutOrStdout(), []string{"ID", "Date", "Action", "Status", "From", "To", "Amount", "Note"}, rows)
	return nil
}

func newNotificationsCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List payment requests waiting on you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit == 0 {
				limit = a.cfg.Defaults.NotificationsLimit
			}
			return runNotifications(cmd, a, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum notifications to list (default from config)")

	return cmd
}

func runNotifications(cmd *cobra.Command, a *app, limit int) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	notes, err := a.client.Notifications(limit).Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing notifications: %w", err)
	}
	if len(notes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending requests.")
		return nil
	}

	rows := make([][]string, 0, len(notes))
	for i, n := range notes {
		p := n.Payment
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			date(n.DateCreated),
			p.Actor.DisplayName,
			money(p.Amount.Decimal),
			string(p.Status),
			truncate(p.Note, 40),
		})
	}
	renderTable(cmd.OutOrStdout(), []string{"#", "Date", "From", "Amount", "Status", "Note"}, rows)
	fmt.Fprintln(cmd.OutOrStdout(), "Settle one with `tally settle <#>`.")
	return nil
}

func newSettleCommand(a *app) *cobra.Command {
	var action string
	var paymentID string

	cmd := &cobra.Command{
		Use:   "settle [notification #]",
		Short: "Approve, deny or cancel a pending request",
		Long: "Settle the request at the given position in `tally notifications`, " +
			"or any pending payment by id with --payment.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := venmo.ParseSettleAction(action)
			if err != nil {
				return err
			}
			switch {
			case paymentID != "" && len(args) == 0:
				return runSettle(cmd, a, 0, paymentID, act)
			case paymentID == "" && len(args) == 1:
				idx, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid notification number %q", args[0])
				}
				return runSettle(cmd, a, idx, "", act)
			default:
				return errors.New("give either a notification number or --payment")
			}
		},
	}

	cmd.Flags().StringVar(&action, "action", string(venmo.SettleApprove), "approve, deny or cancel")
	cmd.Flags().StringVar(&paymentID, "payment", "", "settle this payment id instead of a notification")

	return cmd
}

func runSettle(cmd *cobra.Command, a *app, index int, paymentID string, action venmo.SettleAction) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	var (
		p   model.Payment
		err error
	)
	if paymentID != "" {
		p, err = a.client.SettlePayment(cmd.Context(), paymentID, action)
	} else {
		p, err = a.client.SettleNotification(cmd.Context(), index, action)
	}
	if err != nil {
		return err
	}

	a.record(history.Entry{
		Action:       history.ActionSettle,
		Counterparty: p.Actor.Username,
		Amount:       decimal.NewNullDecimal(p.Amount.Decimal),
		PaymentID:    p.ID,
		Status:       string(p.Status),
		Note:         string(action),
	})
	success(cmd.OutOrStdout(), "Payment %s %s: %s %s (%s)", p.ID, actionPast(action), p.Actor.DisplayName, money(p.Amount.Decimal), p.Status)
	return nil
}

func actionPast(a venmo.SettleAction) string {
	switch a {
	case venmo.SettleApprove:
		return "approved"
	case venmo.SettleDeny:
		return "denied"
	default:
		return "cancelled"
	}
}
