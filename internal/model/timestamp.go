package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an ISO-8601 date-time as sent by the API. Values without a
// zone offset are taken to be UTC. Optional timestamps are *Timestamp, with
// nil meaning the field was absent or null.
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order when parsing.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// NewTimestamp returns t normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses an ISO-8601 string.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("parsing timestamp %q: not ISO-8601", s)
}

// String formats the timestamp canonically (RFC3339, UTC).
func (t Timestamp) String() string {
	return t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves t unchanged.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
