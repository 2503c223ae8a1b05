package chart

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/homeledger/internal/ledger"
)

const (
	numFields = 3
	colPath   = 0
	colType   = 1
	colDesc   = 2
)

// ReadChart reads a chart-of-accounts CSV.
func ReadChart(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chart CSV: %w", err)
	}

	if len(records) == 0 {
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

// WriteChart writes a chart-of-accounts CSV.
func WriteChart(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"path", "type", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colPath] = e.Path
	row[colType] = e.Type.String()
	row[colDesc] = e.Description
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colPath] == "" {
		return Entry{}, fmt.Errorf("empty path")
	}

	t, err := ledger.ParseAccountType(record[colType])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing type: %w", err)
	}
	if t == ledger.TypeRoot {
		return Entry{}, fmt.Errorf("path %q: root accounts cannot be listed", record[colPath])
	}

	return Entry{
		Path:        record[colPath],
		Type:        t,
		Description: record[colDesc],
	}, nil
}
