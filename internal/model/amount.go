package model

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a signed money amount. It is sent and received as a bare JSON
// number (or a numeric string) and keeps the scale it was parsed with, so
// "12.50" serializes back as 12.50.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// ParseAmount parses a decimal string such as "-12.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Amount{Decimal: d}, nil
}

// String returns the amount at its parsed scale.
func (a Amount) String() string {
	if exp := a.Exponent(); exp < 0 {
		return a.StringFixed(-exp)
	}
	return a.Decimal.String()
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}
	a.Decimal = d
	return nil
}
