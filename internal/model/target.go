package model

import (
	"encoding/json"
	"fmt"
)

// TargetType discriminates Target.
type TargetType string

const (
	TargetUser     TargetType = "user"
	TargetMerchant TargetType = "merchant"
)

// Target is the counterparty of a payment: a user or a merchant.
type Target struct {
	Type             TargetType
	Phone            *string
	Email            *string
	RedeemableTarget *string
	User             *User
	Merchant         *Merchant
}

// NewUserTarget returns a user target.
func NewUserTarget(u User) Target {
	return Target{Type: TargetUser, User: &u}
}

// NewMerchantTarget returns a merchant target.
func NewMerchantTarget(m Merchant) Target {
	return Target{Type: TargetMerchant, Merchant: &m}
}

// DisplayName returns the counterparty's display name.
func (t Target) DisplayName() string {
	switch {
	case t.User != nil:
		return t.User.DisplayName
	case t.Merchant != nil:
		return t.Merchant.DisplayName
	}
	return ""
}

// Validate checks that the populated slot matches Type.
func (t Target) Validate() error {
	slots := map[string]bool{
		"user":     t.User != nil,
		"merchant": t.Merchant != nil,
	}
	switch t.Type {
	case TargetUser, TargetMerchant:
		return checkSlots("target", string(t.Type), string(t.Type), slots)
	default:
		return unknownType("target", "type", string(t.Type))
	}
}

var targetParsers = map[TargetType]func(m map[string]json.RawMessage, t *Target) error{
	TargetUser: func(m map[string]json.RawMessage, t *Target) error {
		if err := requireFields("target", m, "user"); err != nil {
			return err
		}
		var u User
		if err := json.Unmarshal(m["user"], &u); err != nil {
			return fmt.Errorf("decoding target.user: %w", err)
		}
		t.User = &u
		return nil
	},
	TargetMerchant: func(m map[string]json.RawMessage, t *Target) error {
		if err := requireFields("target", m, "merchant"); err != nil {
			return err
		}
		var mc Merchant
		if err := json.Unmarshal(m["merchant"], &mc); err != nil {
			return fmt.Errorf("decoding target.merchant: %w", err)
		}
		t.Merchant = &mc
		return nil
	},
}

type targetJSON struct {
	Type             TargetType `json:"type"`
	Phone            *string    `json:"phone"`
	Email            *string    `json:"email"`
	RedeemableTarget *string    `json:"redeemable_target"`
	User             *User      `json:"user"`
	Merchant         *Merchant  `json:"merchant"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Target) UnmarshalJSON(data []byte) error {
	m, err := fields("target", data)
	if err != nil {
		return err
	}
	typ, err := discriminator("target", m, "type")
	if err != nil {
		return err
	}
	parse, ok := targetParsers[TargetType(typ)]
	if !ok {
		return unknownType("target", "type", typ)
	}

	var common struct {
		Phone            *string `json:"phone"`
		Email            *string `json:"email"`
		RedeemableTarget *string `json:"redeemable_target"`
	}
	if err := json.Unmarshal(data, &common); err != nil {
		return fmt.Errorf("decoding target: %w", err)
	}

	out := Target{
		Type:             TargetType(typ),
		Phone:            common.Phone,
		Email:            common.Email,
		RedeemableTarget: common.RedeemableTarget,
	}
	if err := parse(m, &out); err != nil {
		return err
	}
	*t = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Target) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(targetJSON{
		Type:             t.Type,
		Phone:            t.Phone,
		Email:            t.Email,
		RedeemableTarget: t.RedeemableTarget,
		User:             t.User,
		Merchant:         t.Merchant,
	})
}
