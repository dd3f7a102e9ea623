package model

import (
	"encoding/json"
	"fmt"
)

// User is a public profile snapshot.
type User struct {
	ID                string          `json:"id"`
	Username          string          `json:"username"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	DisplayName       string          `json:"display_name"`
	Email             *string         `json:"email"`
	Phone             *string         `json:"phone"`
	About             string          `json:"about"`
	ProfilePictureURL string          `json:"profile_picture_url"`
	IsActive          bool            `json:"is_active"`
	IsBlocked         bool            `json:"is_blocked"`
	IsGroup           bool            `json:"is_group"`
	IsPayable         bool            `json:"is_payable"`
	IsVenmoTeam       bool            `json:"is_venmo_team"`
	FriendStatus      *string         `json:"friend_status"`
	FriendsCount      *int            `json:"friends_count"`
	TrustRequest      *bool           `json:"trust_request"`
	IdentityType      string          `json:"identity_type"`
	Identity          json.RawMessage `json:"identity"`
	DateJoined        Timestamp       `json:"date_joined"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *User) UnmarshalJSON(data []byte) error {
	m, err := fields("user", data)
	if err != nil {
		return err
	}
	if err := requireFields("user", m, "id", "username", "date_joined"); err != nil {
		return err
	}
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding user: %w", err)
	}
	p.Identity = optionalRaw(p.Identity)
	*u = User(p)
	return nil
}

// Merchant is a non-person payment counterparty.
type Merchant struct {
	ID                  string     `json:"id"`
	DisplayName         string     `json:"display_name"`
	BraintreeMerchantID string     `json:"braintree_merchant_id"`
	PaypalMerchantID    string     `json:"paypal_merchant_id"`
	ImageURL            string     `json:"image_url"`
	DatetimeCreated     Timestamp  `json:"datetime_created"`
	DatetimeUpdated     *Timestamp `json:"datetime_updated"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (mc *Merchant) UnmarshalJSON(data []byte) error {
	m, err := fields("merchant", data)
	if err != nil {
		return err
	}
	if err := requireFields("merchant", m, "id", "datetime_created"); err != nil {
		return err
	}
	type plain Merchant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding merchant: %w", err)
	}
	*mc = Merchant(p)
	return nil
}
