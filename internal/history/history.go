// Package history keeps a local CSV record of the money-moving and session
// actions taken through tally.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action names recorded in the history file.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionCharge = "charge"
	ActionPay    = "pay"
	ActionSettle = "settle"
)

// Entry is one row in the history file.
type Entry struct {
	Timestamp    time.Time
	Action       string
	Counterparty string
	Amount       decimal.NullDecimal
	PaymentID    string
	Status       string
	Note         string
}

// Header is the CSV header for history.csv.
const Header = "timestamp,action,counterparty,amount,payment_id,status,note"

// FileName is the history file inside the config directory.
const FileName = "history.csv"

const (
	numFields       = 7
	colTimestamp    = 0
	colAction       = 1
	colCounterparty = 2
	colAmount       = 3
	colPaymentID    = 4
	colStatus       = 5
	colNote         = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = e.Action
	row[colCounterparty] = e.Counterparty
	if e.Amount.Valid {
		row[colAmount] = e.Amount.Decimal.StringFixed(2)
	}
	row[colPaymentID] = e.PaymentID
	row[colStatus] = e.Status
	row[colNote] = e.Note
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var amount decimal.NullDecimal
	if s := record[colAmount]; s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing amount %q: %w", s, err)
		}
		amount = decimal.NewNullDecimal(d)
	}

	return Entry{
		Timestamp:    ts,
		Action:       record[colAction],
		Counterparty: record[colCounterparty],
		Amount:       amount,
		PaymentID:    record[colPaymentID],
		Status:       record[colStatus],
		Note:         record[colNote],
	}, nil
}

// Append writes entries to <dir>/history.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/history.csv, oldest first.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Tail returns the last n entries, or all of them when n <= 0.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading history CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
