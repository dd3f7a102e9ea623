package model

import (
	"encoding/json"
	"fmt"
)

// PaymentStatus is the lifecycle state of a payment or charge.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentHeld      PaymentStatus = "held"
	PaymentSettled   PaymentStatus = "settled"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentExpired   PaymentStatus = "expired"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentAction distinguishes a payment from a charge (request).
type PaymentAction string

const (
	ActionPay    PaymentAction = "pay"
	ActionCharge PaymentAction = "charge"
)

// Audience controls who can see a payment in the feed.
type Audience string

const (
	AudiencePublic  Audience = "public"
	AudienceFriends Audience = "friends"
	AudiencePrivate Audience = "private"
)

// Payment is a pay or charge record. Amount is signed: charges are
// negative from the actor's point of view.
type Payment struct {
	ID                        string          `json:"id"`
	Status                    PaymentStatus   `json:"status"`
	Action                    PaymentAction   `json:"action"`
	Actor                     User            `json:"actor"`
	Target                    Target          `json:"target"`
	Amount                    Amount          `json:"amount"`
	Note                      string          `json:"note"`
	Audience                  Audience        `json:"audience"`
	DateCreated               Timestamp       `json:"date_created"`
	DateAuthorized            *Timestamp      `json:"date_authorized"`
	DateCompleted             *Timestamp      `json:"date_completed"`
	DateReminded              *Timestamp      `json:"date_reminded"`
	ExternalWalletPaymentInfo json.RawMessage `json:"external_wallet_payment_info"`
}

// Completed reports whether the payment has a completion date.
func (p Payment) Completed() bool {
	return p.DateCompleted != nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payment) UnmarshalJSON(data []byte) error {
	m, err := fields("payment", data)
	if err != nil {
		return err
	}
	if err := requireFields("payment", m, "id", "status", "actor", "target", "amount", "date_created"); err != nil {
		return err
	}
	type plain Payment
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding payment: %w", err)
	}
	v.ExternalWalletPaymentInfo = optionalRaw(v.ExternalWalletPaymentInfo)
	*p = Payment(v)
	return nil
}
