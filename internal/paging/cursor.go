package paging

import (
	"fmt"
	"net/url"
)

// Cursor is the continuation point of a listing: the query parameters of
// the envelope's pagination.next URL.
type Cursor struct {
	params url.Values
}

// ParseCursor extracts the cursor from a next-page URL. It reports false
// when next is empty, meaning the listing is exhausted.
func ParseCursor(next string) (Cursor, bool, error) {
	if next == "" {
		return Cursor{}, false, nil
	}
	u, err := url.Parse(next)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("parsing next-page url: %w", err)
	}
	params := u.Query()
	if len(params) == 0 {
		return Cursor{}, false, nil
	}
	return Cursor{params: params}, true, nil
}

// NewCursor builds a cursor from explicit parameters.
func NewCursor(params url.Values) Cursor {
	return Cursor{params: cloneValues(params)}
}

// Apply copies the cursor's parameters onto q, replacing any existing
// values, except limit which the caller controls.
func (c Cursor) Apply(q url.Values) {
	for k, v := range c.params {
		if k == "limit" {
			continue
		}
		q[k] = append([]string(nil), v...)
	}
}

// Get returns the first value of a cursor parameter.
func (c Cursor) Get(key string) string {
	return c.params.Get(key)
}

// IsZero reports whether the cursor carries no parameters.
func (c Cursor) IsZero() bool {
	return len(c.params) == 0
}

// Encode renders the cursor as a query string.
func (c Cursor) Encode() string {
	return c.params.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
