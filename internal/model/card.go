package model

import (
	"encoding/json"
	"fmt"
)

// PointOfSale is where a card was used.
type PointOfSale struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Authorization is a debit-card authorization hold.
type Authorization struct {
	ID            string        `json:"id"`
	Amount        Amount        `json:"amount"`
	Status        string        `json:"status"`
	Descriptor    string        `json:"descriptor"`
	CreatedAt     Timestamp     `json:"created_at"`
	Acknowledged  bool          `json:"acknowledged"`
	Merchant      Merchant      `json:"merchant"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	User          User          `json:"user"`
	PointOfSale   *PointOfSale  `json:"point_of_sale"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Authorization) UnmarshalJSON(data []byte) error {
	m, err := fields("authorization", data)
	if err != nil {
		return err
	}
	if err := requireFields("authorization", m, "id", "amount", "created_at", "merchant", "payment_method", "user"); err != nil {
		return err
	}
	type plain Authorization
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding authorization: %w", err)
	}
	*a = Authorization(v)
	return nil
}

// Capture settles a previous authorization.
type Capture struct {
	ID              string        `json:"id"`
	Amount          Amount        `json:"amount"`
	AuthorizationID string        `json:"authorization_id"`
	DateCaptured    Timestamp     `json:"date_captured"`
	Merchant        Merchant      `json:"merchant"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	User            User          `json:"user"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Capture) UnmarshalJSON(data []byte) error {
	m, err := fields("capture", data)
	if err != nil {
		return err
	}
	if err := requireFields("capture", m, "id", "amount", "date_captured", "merchant", "payment_method", "user"); err != nil {
		return err
	}
	type plain Capture
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding capture: %w", err)
	}
	*c = Capture(v)
	return nil
}
