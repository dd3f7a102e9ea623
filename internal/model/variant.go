package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrVariantMismatch is returned when a discriminated record's populated
// payload slot does not match its discriminator.
var ErrVariantMismatch = errors.New("payload does not match discriminator")

// checkSlots verifies that exactly the slot named want is populated.
// slots maps each payload slot name to whether it is set.
func checkSlots(record, discriminator, want string, slots map[string]bool) error {
	var extra []string
	for name, set := range slots {
		if set && name != want {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	switch {
	case !slots[want]:
		return fmt.Errorf("%w: %s %q requires %s", ErrVariantMismatch, record, discriminator, want)
	case len(extra) > 0:
		return fmt.Errorf("%w: %s %q also populates %s", ErrVariantMismatch, record, discriminator, strings.Join(extra, ", "))
	}
	return nil
}
