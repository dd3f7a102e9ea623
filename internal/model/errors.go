package model

import "fmt"

// SchemaError reports a payload that does not fit the known schema: an
// unrecognized discriminator value or a missing required field.
type SchemaError struct {
	Record string // record kind, e.g. "transaction"
	Field  string // offending field name
	Value  string // discriminator value; empty for missing fields
}

func (e *SchemaError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("schema error: %s: unknown %s %q", e.Record, e.Field, e.Value)
	}
	return fmt.Sprintf("schema error: %s: missing required field %q", e.Record, e.Field)
}

func unknownType(record, field, value string) error {
	return &SchemaError{Record: record, Field: field, Value: value}
}

func missingField(record, field string) error {
	return &SchemaError{Record: record, Field: field}
}
