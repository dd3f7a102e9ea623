package model

import (
	"encoding/json"
	"fmt"
)

// FundingSource is a bank account or card that money moves to or from.
// BankAccount and Card are left raw: their shape depends on Type and is
// not documented.
type FundingSource struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	AssetName          string          `json:"asset_name"`
	LastFour           string          `json:"last_four"`
	AccountStatus      string          `json:"account_status"`
	IsDefault          bool            `json:"is_default"`
	TransferToEstimate *Timestamp      `json:"transfer_to_estimate"`
	BankAccount        json.RawMessage `json:"bank_account"`
	Card               json.RawMessage `json:"card"`
	Assets             map[string]any  `json:"assets"`
	ImageURL           map[string]any  `json:"image_url"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FundingSource) UnmarshalJSON(data []byte) error {
	m, err := fields("funding_source", data)
	if err != nil {
		return err
	}
	if err := requireFields("funding_source", m, "id", "type"); err != nil {
		return err
	}
	type plain FundingSource
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding funding_source: %w", err)
	}
	p.BankAccount = optionalRaw(p.BankAccount)
	p.Card = optionalRaw(p.Card)
	*f = FundingSource(p)
	return nil
}

// PaymentMethod is the instrument behind a card authorization or capture.
type PaymentMethod struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	Name                string          `json:"name"`
	LastFour            *string         `json:"last_four"`
	IsDefault           bool            `json:"is_default"`
	PeerPaymentRole     string          `json:"peer_payment_role"`
	MerchantPaymentRole string          `json:"merchant_payment_role"`
	Assets              map[string]any  `json:"assets"`
	Card                json.RawMessage `json:"card"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (pm *PaymentMethod) UnmarshalJSON(data []byte) error {
	m, err := fields("payment_method", data)
	if err != nil {
		return err
	}
	if err := requireFields("payment_method", m, "id", "type"); err != nil {
		return err
	}
	type plain PaymentMethod
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding payment_method: %w", err)
	}
	p.Card = optionalRaw(p.Card)
	*pm = PaymentMethod(p)
	return nil
}
