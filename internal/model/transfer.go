package model

import (
	"encoding/json"
	"fmt"
)

// TransferType discriminates Transfer. Adding funds pulls from Source;
// every other kind pushes to Destination.
type TransferType string

const (
	TransferAddFunds    TransferType = "add_funds"
	TransferDestination TransferType = "destination"
	TransferStandard    TransferType = "standard"
	TransferInstant     TransferType = "instant"
)

// transferSlots maps each transfer type to the funding slot it populates.
var transferSlots = map[TransferType]string{
	TransferAddFunds:    "source",
	TransferDestination: "destination",
	TransferStandard:    "destination",
	TransferInstant:     "destination",
}

// Transfer is a movement of balance to or from a bank. DateCompleted and
// PayoutID are set only once the transfer settles.
type Transfer struct {
	ID                   string
	Type                 TransferType
	Status               string
	Amount               Amount
	AmountCents          int64
	AmountFeeCents       int64
	AmountRequestedCents int64
	DateRequested        Timestamp
	DateCompleted        *Timestamp
	PayoutID             *string
	Source               *FundingSource
	Destination          *FundingSource
}

// Validate checks that the populated funding slot matches Type.
func (t Transfer) Validate() error {
	want, ok := transferSlots[t.Type]
	if !ok {
		return unknownType("transfer", "type", string(t.Type))
	}
	return checkSlots("transfer", string(t.Type), want, map[string]bool{
		"source":      t.Source != nil,
		"destination": t.Destination != nil,
	})
}

type transferJSON struct {
	ID                   string         `json:"id"`
	Type                 TransferType   `json:"type"`
	Status               string         `json:"status"`
	Amount               Amount         `json:"amount"`
	AmountCents          int64          `json:"amount_cents"`
	AmountFeeCents       int64          `json:"amount_fee_cents"`
	AmountRequestedCents int64          `json:"amount_requested_cents"`
	DateRequested        Timestamp      `json:"date_requested"`
	DateCompleted        *Timestamp     `json:"date_completed"`
	PayoutID             *string        `json:"payout_id"`
	Source               *FundingSource `json:"source"`
	Destination          *FundingSource `json:"destination"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transfer) UnmarshalJSON(data []byte) error {
	m, err := fields("transfer", data)
	if err != nil {
		return err
	}
	typ, err := discriminator("transfer", m, "type")
	if err != nil {
		return err
	}
	slot, ok := transferSlots[TransferType(typ)]
	if !ok {
		return unknownType("transfer", "type", typ)
	}
	if err := requireFields("transfer", m, "id", "status", "amount", "date_requested", slot); err != nil {
		return err
	}

	var v transferJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding transfer: %w", err)
	}
	out := Transfer{
		ID:                   v.ID,
		Type:                 v.Type,
		Status:               v.Status,
		Amount:               v.Amount,
		AmountCents:          v.AmountCents,
		AmountFeeCents:       v.AmountFeeCents,
		AmountRequestedCents: v.AmountRequestedCents,
		DateRequested:        v.DateRequested,
		DateCompleted:        v.DateCompleted,
		PayoutID:             v.PayoutID,
	}
	// Only the slot named by the discriminator is kept.
	if slot == "source" {
		out.Source = v.Source
	} else {
		out.Destination = v.Destination
	}
	*t = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Transfer) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(transferJSON{
		ID:                   t.ID,
		Type:                 t.Type,
		Status:               t.Status,
		Amount:               t.Amount,
		AmountCents:          t.AmountCents,
		AmountFeeCents:       t.AmountFeeCents,
		AmountRequestedCents: t.AmountRequestedCents,
		DateRequested:        t.DateRequested,
		DateCompleted:        t.DateCompleted,
		PayoutID:             t.PayoutID,
		Source:               t.Source,
		Destination:          t.Destination,
	})
}
