package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes a raw JSON record into T, applying T's schema checks.
func Parse[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// ParseList decodes a JSON array of records.
func ParseList[T any](data []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding record list: %w", err)
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		v, err := Parse[T](r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Serialize encodes a record back to its raw JSON form.
func Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

// fields splits a JSON object into its members.
func fields(record string, data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", record, err)
	}
	if m == nil {
		return nil, fmt.Errorf("decoding %s: expected object, got null", record)
	}
	return m, nil
}

// requireFields checks that each named field is present and not null.
func requireFields(record string, m map[string]json.RawMessage, names ...string) error {
	for _, name := range names {
		if isNull(m[name]) {
			return missingField(record, name)
		}
	}
	return nil
}

// discriminator reads the required string field name.
func discriminator(record string, m map[string]json.RawMessage, name string) (string, error) {
	if isNull(m[name]) {
		return "", missingField(record, name)
	}
	var s string
	if err := json.Unmarshal(m[name], &s); err != nil {
		return "", fmt.Errorf("decoding %s.%s: %w", record, name, err)
	}
	return s, nil
}

// optionalRaw collapses a JSON null to nil, so an absent field and a null
// one decode to the same value.
func optionalRaw(raw json.RawMessage) json.RawMessage {
	if isNull(raw) {
		return nil
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
