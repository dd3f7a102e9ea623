// Package export writes transaction history as CSV for spreadsheets and
// bookkeeping imports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Header is the CSV header of an export.
const Header = "id,date,type,counterparty,note,inflow,outflow,status,funding_source"

const (
	numFields    = 9
	dateFormat   = time.RFC3339
	colID        = 0
	colDate      = 1
	colType      = 2
	colCparty    = 3
	colNote      = 4
	colInflow    = 5
	colOutflow   = 6
	colStatus    = 7
	colFundingSr = 8
)

// Row is the flat, spreadsheet-friendly view of a transaction. Exactly one
// of Inflow and Outflow is non-zero for a non-zero amount; both are
// non-negative.
type Row struct {
	ID            string
	Date          time.Time
	Type          string
	Counterparty  string
	Note          string
	Inflow        decimal.Decimal
	Outflow       decimal.Decimal
	Status        string
	FundingSource string
}

// RowFromTransaction flattens t.
func RowFromTransaction(t model.Transaction) Row {
	r := Row{
		ID:           t.ID,
		Date:         t.DatetimeCreated.Time,
		Type:         string(t.Type),
		Counterparty: t.Counterparty(),
		Note:         t.Note,
		Status:       t.Status(),
	}
	if t.Amount.IsNegative() {
		r.Outflow = t.Amount.Neg()
	} else {
		r.Inflow = t.Amount.Decimal
	}
	if t.FundingSource != nil {
		r.FundingSource = t.FundingSource.Name
	}
	return r
}

// MarshalRow converts a Row to a CSV row ([]string).
func MarshalRow(r Row) []string {
	row := make([]string, numFields)
	row[colID] = r.ID
	row[colDate] = r.Date.UTC().Format(dateFormat)
	row[colType] = r.Type
	row[colCparty] = r.Counterparty
	row[colNote] = r.Note
	if !r.Inflow.IsZero() {
		row[colInflow] = r.Inflow.StringFixed(2)
	}
	if !r.Outflow.IsZero() {
		row[colOutflow] = r.Outflow.StringFixed(2)
	}
	row[colStatus] = r.Status
	row[colFundingSr] = r.FundingSource
	return row
}

// UnmarshalRow converts a CSV row to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	inflow, err := parseOptionalDecimal(record[colInflow])
	if err != nil {
		return Row{}, fmt.Errorf("parsing inflow: %w", err)
	}
	outflow, err := parseOptionalDecimal(record[colOutflow])
	if err != nil {
		return Row{}, fmt.Errorf("parsing outflow: %w", err)
	}

	return Row{
		ID:            record[colID],
		Date:          date,
		Type:          record[colType],
		Counterparty:  record[colCparty],
		Note:          record[colNote],
		Inflow:        inflow,
		Outflow:       outflow,
		Status:        record[colStatus],
		FundingSource: record[colFundingSr],
	}, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Writer streams transactions as CSV rows. The header is written before
// the first row, or by Flush if no rows were written.
type Writer struct {
	cw      *csv.Writer
	started bool
	rows    int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

func (w *Writer) header() error {
	if w.started {
		return nil
	}
	w.started = true
	if err := w.cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Write appends one transaction.
func (w *Writer) Write(t model.Transaction) error {
	if err := w.header(); err != nil {
		return err
	}
	w.rows++
	if err := w.cw.Write(MarshalRow(RowFromTransaction(t))); err != nil {
		return fmt.Errorf("writing row %d: %w", w.rows+1, err)
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.header(); err != nil {
		return err
	}
	w.cw.Flush()
	return w.cw.Error()
}

// WriteTransactions writes a complete export, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	ew := NewWriter(w)
	for _, t := range txns {
		if err := ew.Write(t); err != nil {
			return err
		}
	}
	return ew.Flush()
}

// ReadRows reads an export back.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
