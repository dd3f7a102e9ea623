package model

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture loads a compacted testdata file.
func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, data))
	return buf.Bytes()
}

// sameFields compares two JSON documents field by field, treating a null
// member the same as an absent one.
func sameFields(t *testing.T, want, got []byte, msgAndArgs ...any) {
	t.Helper()
	var w, g any
	require.NoError(t, json.Unmarshal(want, &w))
	require.NoError(t, json.Unmarshal(got, &g))
	assert.Equal(t, dropNulls(w), dropNulls(g), msgAndArgs...)
}

func dropNulls(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			if e != nil {
				out[k] = dropNulls(e)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = dropNulls(e)
		}
		return out
	}
	return v
}

// withoutKeys returns a testdata file with the given members removed.
// Paths are dotted, e.g. "target.user.identity".
func withoutKeys(t *testing.T, name string, paths ...string) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(fixture(t, name), &doc))
	for _, path := range paths {
		parts := strings.Split(path, ".")
		m := doc
		for _, part := range parts[:len(parts)-1] {
			next, ok := m[part].(map[string]any)
			require.True(t, ok, "%s: no object at %q", name, part)
			m = next
		}
		_, ok := m[parts[len(parts)-1]]
		require.True(t, ok, "%s: no member %q", name, path)
		delete(m, parts[len(parts)-1])
	}
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func roundTripData[T any](t *testing.T, data []byte) T {
	t.Helper()
	v, err := Parse[T](data)
	require.NoError(t, err, "parsing %s", data)

	out, err := Serialize(v)
	require.NoError(t, err)
	sameFields(t, data, out, "serialize(parse(p)) != p")

	again, err := Parse[T](out)
	require.NoError(t, err)
	assert.Equal(t, v, again, "parse(serialize(x)) != x")
	return v
}

func roundTrip[T any](t *testing.T, name string) T {
	t.Helper()
	return roundTripData[T](t, fixture(t, name))
}

func TestRoundTrip(t *testing.T) {
	t.Run("user", func(t *testing.T) { roundTrip[User](t, "user.json") })
	t.Run("merchant", func(t *testing.T) { roundTrip[Merchant](t, "merchant.json") })
	t.Run("funding_source", func(t *testing.T) { roundTrip[FundingSource](t, "funding_source.json") })
	t.Run("payment_method", func(t *testing.T) { roundTrip[PaymentMethod](t, "payment_method.json") })
	t.Run("payment", func(t *testing.T) { roundTrip[Payment](t, "payment.json") })
	t.Run("payment_settled", func(t *testing.T) { roundTrip[Payment](t, "payment_settled.json") })
	t.Run("payment_merchant", func(t *testing.T) { roundTrip[Payment](t, "payment_merchant.json") })
	t.Run("transfer_add_funds", func(t *testing.T) { roundTrip[Transfer](t, "transfer_add_funds.json") })
	t.Run("transfer_standard", func(t *testing.T) { roundTrip[Transfer](t, "transfer_standard.json") })
	t.Run("authorization", func(t *testing.T) { roundTrip[Authorization](t, "authorization.json") })
	t.Run("capture", func(t *testing.T) { roundTrip[Capture](t, "capture.json") })
	t.Run("transaction_payment", func(t *testing.T) { roundTrip[Transaction](t, "transaction_payment.json") })
	t.Run("transaction_transfer", func(t *testing.T) { roundTrip[Transaction](t, "transaction_transfer.json") })
	t.Run("transaction_authorization", func(t *testing.T) { roundTrip[Transaction](t, "transaction_authorization.json") })
	t.Run("transaction_capture", func(t *testing.T) { roundTrip[Transaction](t, "transaction_capture.json") })
	t.Run("notification_payment", func(t *testing.T) { roundTrip[Notification](t, "notification_payment.json") })
	t.Run("notification_friend", func(t *testing.T) { roundTrip[Notification](t, "notification_friend.json") })
}

// Payloads carrying every required member and none of the optional ones.
const (
	sparseUser = `{"id":"1","username":"bob","first_name":"Bob","last_name":"Kim","display_name":"Bob Kim",` +
		`"about":"","profile_picture_url":"","is_active":true,"is_blocked":false,"is_group":false,` +
		`"is_payable":true,"is_venmo_team":false,"identity_type":"personal","date_joined":"2020-02-11T09:00:00Z"}`
	sparseMerchant = `{"id":"m-1","display_name":"Corner Coffee","braintree_merchant_id":"bt-1",` +
		`"paypal_merchant_id":"pp-1","image_url":"","datetime_created":"2024-05-01T00:00:00Z"}`
	sparseFundingSource = `{"id":"fs-1","name":"Checking","type":"bank","asset_name":"Example Bank",` +
		`"last_four":"6789","account_status":"verified","is_default":true}`
)

func TestRoundTrip_OptionalFieldsAbsent(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		u := roundTripData[User](t, []byte(sparseUser))
		assert.Nil(t, u.Identity)
		assert.Nil(t, u.Email)
		assert.Nil(t, u.FriendsCount)
	})
	t.Run("user_fixture", func(t *testing.T) {
		roundTripData[User](t, withoutKeys(t, "user.json",
			"email", "phone", "friend_status", "friends_count", "trust_request", "identity"))
	})
	t.Run("payment", func(t *testing.T) {
		p := roundTripData[Payment](t, withoutKeys(t, "payment.json",
			"date_authorized", "date_completed", "date_reminded", "external_wallet_payment_info",
			"actor.identity", "actor.email", "target.phone", "target.email",
			"target.redeemable_target", "target.user.identity"))
		assert.Nil(t, p.ExternalWalletPaymentInfo)
		assert.Nil(t, p.Target.Phone)
	})
	t.Run("target", func(t *testing.T) {
		target := roundTripData[Target](t, []byte(`{"type":"user","user":`+sparseUser+`}`))
		assert.Nil(t, target.Merchant)
		assert.Nil(t, target.RedeemableTarget)
	})
	t.Run("transfer", func(t *testing.T) {
		tr := roundTripData[Transfer](t, withoutKeys(t, "transfer_add_funds.json",
			"date_completed", "payout_id", "source.card", "source.transfer_to_estimate",
			"source.assets", "source.image_url"))
		require.NotNil(t, tr.Source)
		assert.Nil(t, tr.Source.Card)
		assert.Nil(t, tr.Source.Assets)
	})
	t.Run("transaction", func(t *testing.T) {
		txn := roundTripData[Transaction](t, withoutKeys(t, "transaction_transfer.json",
			"funding_source", "transfer.payout_id", "transfer.destination.card",
			"transfer.destination.bank_account"))
		assert.Nil(t, txn.FundingSource)
		require.NotNil(t, txn.Transfer)
		assert.Nil(t, txn.Transfer.Destination.BankAccount)
	})
}

func TestRoundTrip_NullSiblingSlots(t *testing.T) {
	user := sparseUser
	tests := []struct {
		name  string
		parse func([]byte) (any, error)
		data  string
	}{
		{
			name:  "user target with null merchant",
			parse: func(b []byte) (any, error) { return Parse[Target](b) },
			data:  `{"type":"user","phone":null,"email":null,"redeemable_target":null,"user":` + user + `,"merchant":null}`,
		},
		{
			name:  "merchant target with null user",
			parse: func(b []byte) (any, error) { return Parse[Target](b) },
			data: `{"type":"merchant","phone":null,"email":null,"redeemable_target":null,"user":null,` +
				`"merchant":` + sparseMerchant + `}`,
		},
		{
			name:  "add funds transfer with null destination",
			parse: func(b []byte) (any, error) { return Parse[Transfer](b) },
			data: `{"id":"tr-1","type":"add_funds","status":"pending","amount":100,"amount_cents":10000,` +
				`"amount_fee_cents":0,"amount_requested_cents":10000,"date_requested":"2025-01-14T12:00:00Z",` +
				`"source":` + sparseFundingSource + `,"destination":null}`,
		},
		{
			name:  "payment transaction with null siblings",
			parse: func(b []byte) (any, error) { return Parse[Transaction](b) },
			data: `{"id":"story-9","type":"payment","datetime_created":"2025-01-15T10:30:00Z","note":"rent",` +
				`"amount":-1,"authorization":null,"capture":null,"transfer":null,"payment":{"id":"p-9",` +
				`"status":"pending","action":"pay","actor":` + user + `,"target":{"type":"user","user":` + user +
				`,"merchant":null},"amount":-1,"note":"rent","audience":"private",` +
				`"date_created":"2025-01-15T10:30:00Z"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.parse([]byte(tt.data))
			require.NoError(t, err)
			out, err := Serialize(v)
			require.NoError(t, err)
			sameFields(t, []byte(tt.data), out)

			again, err := tt.parse(out)
			require.NoError(t, err)
			assert.Equal(t, v, again)
		})
	}
}

func TestTarget_NullSiblingSerializedExplicitly(t *testing.T) {
	data := `{"type":"user","phone":null,"email":null,"redeemable_target":null,` +
		`"user":{"id":"1","username":"bob","date_joined":"2020-02-11T09:00:00Z"},"merchant":null}`
	target, err := Parse[Target]([]byte(data))
	require.NoError(t, err)

	out, err := Serialize(target)
	require.NoError(t, err)
	var members map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &members))
	assert.Len(t, members, 6)
	assert.JSONEq(t, "null", string(members["merchant"]))
}

func TestOptionalRaw_NullAndAbsentAgree(t *testing.T) {
	absent, err := Parse[User]([]byte(`{"id":"1","username":"bob","date_joined":"2020-02-11T09:00:00Z"}`))
	require.NoError(t, err)
	null, err := Parse[User]([]byte(`{"id":"1","username":"bob","date_joined":"2020-02-11T09:00:00Z","identity":null}`))
	require.NoError(t, err)
	assert.Equal(t, absent, null)

	fs, err := Parse[FundingSource]([]byte(`{"id":"fs-1","type":"card","bank_account":null,"card":null}`))
	require.NoError(t, err)
	assert.Nil(t, fs.BankAccount)
	assert.Nil(t, fs.Card)

	pm, err := Parse[PaymentMethod]([]byte(`{"id":"pm-1","type":"card","card":null}`))
	require.NoError(t, err)
	assert.Nil(t, pm.Card)
}

func TestPayment_Fields(t *testing.T) {
	p, err := Parse[Payment](fixture(t, "payment.json"))
	require.NoError(t, err)

	assert.Equal(t, "3231200345001", p.ID)
	assert.Equal(t, PaymentPending, p.Status)
	assert.Equal(t, ActionCharge, p.Action)
	assert.Equal(t, AudiencePrivate, p.Audience)
	assert.Equal(t, "alice-w", p.Actor.Username)
	assert.Equal(t, TargetUser, p.Target.Type)
	require.NotNil(t, p.Target.User)
	assert.Nil(t, p.Target.Merchant)
	assert.Equal(t, "Bob Kim", p.Target.DisplayName())
	assert.Equal(t, "-12.5", p.Amount.String())
	assert.True(t, p.Amount.IsNegative())
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), p.DateCreated.Time)
}

func TestPayment_OptionalDates(t *testing.T) {
	pending, err := Parse[Payment](fixture(t, "payment.json"))
	require.NoError(t, err)
	assert.Nil(t, pending.DateAuthorized)
	assert.Nil(t, pending.DateCompleted)
	assert.Nil(t, pending.DateReminded)
	assert.False(t, pending.Completed())

	settled, err := Parse[Payment](fixture(t, "payment_settled.json"))
	require.NoError(t, err)
	require.NotNil(t, settled.DateCompleted)
	assert.True(t, settled.Completed())
	assert.Equal(t, 250*time.Millisecond, time.Duration(settled.DateCompleted.Nanosecond()))
}

func TestPayment_MerchantTarget(t *testing.T) {
	p, err := Parse[Payment](fixture(t, "payment_merchant.json"))
	require.NoError(t, err)
	assert.Equal(t, TargetMerchant, p.Target.Type)
	assert.Nil(t, p.Target.User)
	require.NotNil(t, p.Target.Merchant)
	assert.Equal(t, "Corner Coffee", p.Target.DisplayName())
	assert.Nil(t, p.Target.Merchant.DatetimeUpdated)
}

func TestPayment_MissingRequiredField(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(fixture(t, "payment.json"), &raw))
	delete(raw, "actor")
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Parse[Payment](data)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "payment", serr.Record)
	assert.Equal(t, "actor", serr.Field)
	assert.Empty(t, serr.Value)
}

func TestPayment_NullRequiredField(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(fixture(t, "payment.json"), &raw))
	raw["date_created"] = nil
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Parse[Payment](data)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "date_created", serr.Field)
}

func TestTarget_UnknownType(t *testing.T) {
	tests := []string{"email", "phone", "", "USER"}
	for _, typ := range tests {
		data := []byte(`{"type":"` + typ + `","phone":null,"email":null,"redeemable_target":null}`)
		_, err := Parse[Target](data)

		var serr *SchemaError
		require.ErrorAs(t, err, &serr, "type %q", typ)
		if typ == "" {
			// An empty discriminator is still a value outside the known set.
			assert.Equal(t, "type", serr.Field)
			continue
		}
		assert.Equal(t, "target", serr.Record)
		assert.Equal(t, "type", serr.Field)
		assert.Equal(t, typ, serr.Value)
	}
}

func TestTarget_MissingSlot(t *testing.T) {
	_, err := Parse[Target]([]byte(`{"type":"merchant","phone":null,"email":null,"redeemable_target":null}`))
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "merchant", serr.Field)
}

func TestTarget_NestedUnknownTypeFailsPayment(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(fixture(t, "payment.json"), &raw))
	raw["target"].(map[string]any)["type"] = "charity"
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	p, err := Parse[Payment](data)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "charity", serr.Value)
	assert.Empty(t, p.ID, "no partially-populated payment")
}

func TestTarget_Validate(t *testing.T) {
	u, err := Parse[User](fixture(t, "user.json"))
	require.NoError(t, err)
	m, err := Parse[Merchant](fixture(t, "merchant.json"))
	require.NoError(t, err)

	assert.NoError(t, NewUserTarget(u).Validate())
	assert.NoError(t, NewMerchantTarget(m).Validate())

	mismatched := Target{Type: TargetUser, Merchant: &m}
	assert.ErrorIs(t, mismatched.Validate(), ErrVariantMismatch)

	both := Target{Type: TargetUser, User: &u, Merchant: &m}
	assert.ErrorIs(t, both.Validate(), ErrVariantMismatch)

	_, err = Serialize(mismatched)
	assert.ErrorIs(t, err, ErrVariantMismatch)
}

func TestTransaction_Dispatch(t *testing.T) {
	tests := []struct {
		file  string
		typ   TransactionType
		check func(t *testing.T, txn Transaction)
	}{
		{"transaction_payment.json", TransactionPayment, func(t *testing.T, txn Transaction) {
			require.NotNil(t, txn.Payment)
			assert.Nil(t, txn.Transfer)
			assert.Equal(t, "Bob Kim", txn.Counterparty())
			assert.Equal(t, "pending", txn.Status())
		}},
		{"transaction_transfer.json", TransactionTransfer, func(t *testing.T, txn Transaction) {
			require.NotNil(t, txn.Transfer)
			require.NotNil(t, txn.FundingSource)
			assert.Equal(t, "Checking", txn.Counterparty())
		}},
		{"transaction_authorization.json", TransactionAuthorization, func(t *testing.T, txn Transaction) {
			require.NotNil(t, txn.Authorization)
			assert.Nil(t, txn.FundingSource)
			assert.Equal(t, "Corner Coffee", txn.Counterparty())
			assert.Equal(t, "approved", txn.Status())
		}},
		{"transaction_capture.json", TransactionCapture, func(t *testing.T, txn Transaction) {
			require.NotNil(t, txn.Capture)
			assert.Equal(t, "auth-9", txn.Capture.AuthorizationID)
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			txn, err := Parse[Transaction](fixture(t, tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.typ, txn.Type)
			assert.NoError(t, txn.Validate())
			tt.check(t, txn)
		})
	}
}

func TestTransaction_UnknownType(t *testing.T) {
	txn, err := Parse[Transaction](fixture(t, "transaction_unknown.json"))
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "transaction", serr.Record)
	assert.Equal(t, "type", serr.Field)
	assert.Equal(t, "refund", serr.Value)
	assert.Equal(t, Transaction{}, txn)
}

func TestTransaction_MissingPayload(t *testing.T) {
	data := []byte(`{"id":"s1","type":"transfer","datetime_created":"2025-01-15T10:30:00Z","note":"","amount":1}`)
	_, err := Parse[Transaction](data)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "transfer", serr.Field)
}

func TestTransaction_EqualByID(t *testing.T) {
	a, err := Parse[Transaction](fixture(t, "transaction_payment.json"))
	require.NoError(t, err)
	b, err := Parse[Transaction](fixture(t, "transaction_transfer.json"))
	require.NoError(t, err)

	sameID := b
	sameID.ID = a.ID
	assert.True(t, a.Equal(sameID), "same id, different payload")
	assert.True(t, sameID.Equal(a))

	differentID := a
	differentID.ID = "story-other"
	assert.False(t, a.Equal(differentID), "different id, identical payload")
}

func TestTransaction_Validate(t *testing.T) {
	txn, err := Parse[Transaction](fixture(t, "transaction_transfer.json"))
	require.NoError(t, err)

	wrongSlot := txn
	wrongSlot.Type = TransactionPayment
	assert.ErrorIs(t, wrongSlot.Validate(), ErrVariantMismatch)
	_, err = Serialize(wrongSlot)
	assert.ErrorIs(t, err, ErrVariantMismatch)

	unknown := txn
	unknown.Type = "top_up"
	var serr *SchemaError
	assert.ErrorAs(t, unknown.Validate(), &serr)

	empty := Transaction{ID: "x", Type: TransactionCapture}
	assert.ErrorIs(t, empty.Validate(), ErrVariantMismatch)
}

func TestTransfer_Slots(t *testing.T) {
	in, err := Parse[Transfer](fixture(t, "transfer_add_funds.json"))
	require.NoError(t, err)
	assert.NotNil(t, in.Source)
	assert.Nil(t, in.Destination)
	assert.Nil(t, in.DateCompleted)
	assert.Nil(t, in.PayoutID)

	out, err := Parse[Transfer](fixture(t, "transfer_standard.json"))
	require.NoError(t, err)
	assert.Nil(t, out.Source)
	require.NotNil(t, out.Destination)
	require.NotNil(t, out.PayoutID)
	assert.Equal(t, "po-777", *out.PayoutID)
	assert.NotNil(t, out.DateCompleted)

	swapped := in
	swapped.Source, swapped.Destination = nil, in.Source
	assert.ErrorIs(t, swapped.Validate(), ErrVariantMismatch)
}

func TestTransfer_UnknownType(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(fixture(t, "transfer_add_funds.json"), &raw))
	raw["type"] = "wire"
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Parse[Transfer](data)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "wire", serr.Value)
}

func TestNotification_Actionable(t *testing.T) {
	pay, err := Parse[Notification](fixture(t, "notification_payment.json"))
	require.NoError(t, err)
	assert.True(t, pay.Actionable())

	friend, err := Parse[Notification](fixture(t, "notification_friend.json"))
	require.NoError(t, err)
	assert.False(t, friend.Actionable())
	assert.Nil(t, friend.Payment)
}

func TestProfile_StringBalance(t *testing.T) {
	p, err := Parse[Profile](fixture(t, "profile.json"))
	require.NoError(t, err)
	assert.Equal(t, "231.07", p.Balance.String())
	assert.Equal(t, "alice-w", p.User.Username)
}

func TestParseList(t *testing.T) {
	good := fixture(t, "notification_friend.json")
	list := []byte("[" + string(good) + "," + string(good) + "]")
	ns, err := ParseList[Notification](list)
	require.NoError(t, err)
	assert.Len(t, ns, 2)

	bad := []byte("[" + string(good) + `,{"type":"payment"}]`)
	_, err = ParseList[Notification](bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	var serr *SchemaError
	assert.ErrorAs(t, err, &serr)
}
