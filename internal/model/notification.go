package model

import (
	"encoding/json"
	"fmt"
)

// NotificationPayment is the notification type that links a payment.
const NotificationPayment = "payment"

// Notification is an entry in the user's notification feed.
type Notification struct {
	DateCreated Timestamp `json:"date_created"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Payment     *Payment  `json:"payment"`
}

// Actionable reports whether the notification links a payment the user can
// act on. Other notification kinds are informational.
func (n Notification) Actionable() bool {
	return n.Type == NotificationPayment && n.Payment != nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Notification) UnmarshalJSON(data []byte) error {
	m, err := fields("notification", data)
	if err != nil {
		return err
	}
	if err := requireFields("notification", m, "date_created", "type"); err != nil {
		return err
	}
	type plain Notification
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding notification: %w", err)
	}
	*n = Notification(v)
	return nil
}

// Profile is the signed-in user together with the account balance.
type Profile struct {
	User    User   `json:"user"`
	Balance Amount `json:"balance"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Profile) UnmarshalJSON(data []byte) error {
	m, err := fields("profile", data)
	if err != nil {
		return err
	}
	if err := requireFields("profile", m, "user", "balance"); err != nil {
		return err
	}
	type plain Profile
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding profile: %w", err)
	}
	*p = Profile(v)
	return nil
}
