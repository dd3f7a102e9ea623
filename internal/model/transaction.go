package model

import (
	"encoding/json"
	"fmt"
)

// TransactionType discriminates Transaction.
type TransactionType string

const (
	TransactionAuthorization TransactionType = "authorization"
	TransactionCapture       TransactionType = "capture"
	TransactionPayment       TransactionType = "payment"
	TransactionTransfer      TransactionType = "transfer"
)

// Transaction is one entry of the account's transaction history. Exactly
// one payload slot is populated, the one named by Type.
//
// Two transactions are the same transaction when their IDs match; use
// Equal rather than ==.
type Transaction struct {
	ID              string
	Type            TransactionType
	DatetimeCreated Timestamp
	Note            string
	Amount          Amount
	FundingSource   *FundingSource

	Authorization *Authorization
	Capture       *Capture
	Payment       *Payment
	Transfer      *Transfer
}

// Equal reports whether t and o identify the same transaction.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID
}

// Validate checks that the populated payload slot matches Type.
func (t Transaction) Validate() error {
	slots := map[string]bool{
		string(TransactionAuthorization): t.Authorization != nil,
		string(TransactionCapture):       t.Capture != nil,
		string(TransactionPayment):       t.Payment != nil,
		string(TransactionTransfer):      t.Transfer != nil,
	}
	if _, ok := transactionParsers[t.Type]; !ok {
		return unknownType("transaction", "type", string(t.Type))
	}
	return checkSlots("transaction", string(t.Type), string(t.Type), slots)
}

// Counterparty names the other side of the transaction for display.
func (t Transaction) Counterparty() string {
	switch {
	case t.Payment != nil:
		return t.Payment.Target.DisplayName()
	case t.Transfer != nil:
		if t.Transfer.Source != nil {
			return t.Transfer.Source.Name
		}
		if t.Transfer.Destination != nil {
			return t.Transfer.Destination.Name
		}
	case t.Authorization != nil:
		return t.Authorization.Merchant.DisplayName
	case t.Capture != nil:
		return t.Capture.Merchant.DisplayName
	}
	return ""
}

// Status returns the payload's status, if it has one.
func (t Transaction) Status() string {
	switch {
	case t.Payment != nil:
		return string(t.Payment.Status)
	case t.Transfer != nil:
		return t.Transfer.Status
	case t.Authorization != nil:
		return t.Authorization.Status
	case t.Capture != nil:
		return "captured"
	}
	return ""
}

func decodeSlot[T any](raw json.RawMessage, name string) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding transaction.%s: %w", name, err)
	}
	return &v, nil
}

var transactionParsers = map[TransactionType]func(raw json.RawMessage, t *Transaction) error{
	TransactionAuthorization: func(raw json.RawMessage, t *Transaction) (err error) {
		t.Authorization, err = decodeSlot[Authorization](raw, "authorization")
		return err
	},
	TransactionCapture: func(raw json.RawMessage, t *Transaction) (err error) {
		t.Capture, err = decodeSlot[Capture](raw, "capture")
		return err
	},
	TransactionPayment: func(raw json.RawMessage, t *Transaction) (err error) {
		t.Payment, err = decodeSlot[Payment](raw, "payment")
		return err
	},
	TransactionTransfer: func(raw json.RawMessage, t *Transaction) (err error) {
		t.Transfer, err = decodeSlot[Transfer](raw, "transfer")
		return err
	},
}

type transactionJSON struct {
	ID              string          `json:"id"`
	Type            TransactionType `json:"type"`
	DatetimeCreated Timestamp       `json:"datetime_created"`
	Note            string          `json:"note"`
	Amount          Amount          `json:"amount"`
	FundingSource   *FundingSource  `json:"funding_source"`
	Authorization   *Authorization  `json:"authorization"`
	Capture         *Capture        `json:"capture"`
	Payment         *Payment        `json:"payment"`
	Transfer        *Transfer       `json:"transfer"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	m, err := fields("transaction", data)
	if err != nil {
		return err
	}
	typ, err := discriminator("transaction", m, "type")
	if err != nil {
		return err
	}
	parse, ok := transactionParsers[TransactionType(typ)]
	if !ok {
		return unknownType("transaction", "type", typ)
	}
	if err := requireFields("transaction", m, "id", "datetime_created", typ); err != nil {
		return err
	}

	var head struct {
		ID              string         `json:"id"`
		DatetimeCreated Timestamp      `json:"datetime_created"`
		Note            string         `json:"note"`
		Amount          Amount         `json:"amount"`
		FundingSource   *FundingSource `json:"funding_source"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decoding transaction: %w", err)
	}

	out := Transaction{
		ID:              head.ID,
		Type:            TransactionType(typ),
		DatetimeCreated: head.DatetimeCreated,
		Note:            head.Note,
		Amount:          head.Amount,
		FundingSource:   head.FundingSource,
	}
	if err := parse(m[typ], &out); err != nil {
		return err
	}
	*t = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Transaction) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(transactionJSON{
		ID:              t.ID,
		Type:            t.Type,
		DatetimeCreated: t.DatetimeCreated,
		Note:            t.Note,
		Amount:          t.Amount,
		FundingSource:   t.FundingSource,
		Authorization:   t.Authorization,
		Capture:         t.Capture,
		Payment:         t.Payment,
		Transfer:        t.Transfer,
	})
}
