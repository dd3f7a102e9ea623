package venmo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/paging"
)

// ErrInvalidAmount is returned when a charge or payment amount is not
// strictly positive.
var ErrInvalidAmount = errors.New("amount must be positive")

// ChargeParams describes one charge or payment to a single user.
type ChargeParams struct {
	UserID   string
	Amount   decimal.Decimal
	Note     string
	Audience model.Audience
}

type paymentRequest struct {
	UserID   string         `json:"user_id"`
	Amount   model.Amount   `json:"amount"`
	Note     string         `json:"note"`
	Audience model.Audience `json:"audience"`
	Metadata map[string]any `json:"metadata"`
}

// Charge requests p.Amount from p.UserID. The amount is sent negated, which
// the service treats as a request for money.
func (c *Client) Charge(ctx context.Context, p ChargeParams) (model.Payment, error) {
	return c.createPayment(ctx, p, true)
}

// Pay sends p.Amount to p.UserID.
func (c *Client) Pay(ctx context.Context, p ChargeParams) (model.Payment, error) {
	return c.createPayment(ctx, p, false)
}

func (c *Client) createPayment(ctx context.Context, p ChargeParams, charge bool) (model.Payment, error) {
	if !p.Amount.IsPositive() {
		return model.Payment{}, fmt.Errorf("%w: %s", ErrInvalidAmount, p.Amount)
	}
	if p.UserID == "" {
		return model.Payment{}, errors.New("recipient user id is required")
	}
	if p.Audience == "" {
		p.Audience = model.AudiencePrivate
	}

	amount := p.Amount
	if charge {
		amount = amount.Neg()
	}
	body := paymentRequest{
		UserID:   p.UserID,
		Amount:   model.NewAmount(amount),
		Note:     p.Note,
		Audience: p.Audience,
		Metadata: map[string]any{"quasi_cash_disclaimer_viewed": false},
	}

	payment, err := getRecord[model.Payment](ctx, c, request{
		method: http.MethodPost,
		path:   "/payments",
		body:   body,
		authed: true,
	})
	if err != nil {
		return model.Payment{}, fmt.Errorf("creating payment: %w", err)
	}
	c.log.Info("payment created", "payment_id", payment.ID, "action", payment.Action, "status", payment.Status)
	return payment, nil
}

// PaymentFilter narrows a payments listing. Zero fields are not sent.
type PaymentFilter struct {
	Status  model.PaymentStatus
	Action  model.PaymentAction
	ActorID string
	Limit   int
	// Cursor resumes a previous listing.
	Cursor *paging.Cursor
}

func (f PaymentFilter) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Action != "" {
		q.Set("action", string(f.Action))
	}
	if f.ActorID != "" {
		q.Set("actor_id", f.ActorID)
	}
	return q
}

// Payments lists payments and charges matching f, newest first.
func (c *Client) Payments(f PaymentFilter) *paging.Iterator[model.Payment] {
	var opts []paging.Option[model.Payment]
	if f.Cursor != nil {
		opts = append(opts, paging.WithCursor[model.Payment](*f.Cursor))
	}
	return paging.New(pageFetcher[model.Payment](c, "/payments", f.values()), f.Limit, opts...)
}

// SettleAction resolves a pending payment.
type SettleAction string

const (
	SettleApprove SettleAction = "approve"
	SettleDeny    SettleAction = "deny"
	SettleCancel  SettleAction = "cancel"
)

// ParseSettleAction validates a user-supplied action name.
func ParseSettleAction(s string) (SettleAction, error) {
	switch a := SettleAction(s); a {
	case SettleApprove, SettleDeny, SettleCancel:
		return a, nil
	}
	return "", fmt.Errorf("unknown settle action %q (want approve, deny or cancel)", s)
}

// SettlePayment approves, denies or cancels a pending payment.
func (c *Client) SettlePayment(ctx context.Context, paymentID string, action SettleAction) (model.Payment, error) {
	if _, err := ParseSettleAction(string(action)); err != nil {
		return model.Payment{}, err
	}
	if paymentID == "" {
		return model.Payment{}, errors.New("payment id is required")
	}

	path := "/payments/" + url.PathEscape(paymentID)
	payment, err := getRecord[model.Payment](ctx, c, request{
		method: http.MethodPut,
		path:   path,
		body:   map[string]string{"action": string(action)},
		authed: true,
	})
	if err != nil {
		return model.Payment{}, fmt.Errorf("settling payment %s: %w", paymentID, err)
	}
	c.log.Info("payment settled", "payment_id", payment.ID, "action", action, "status", payment.Status)
	return payment, nil
}
