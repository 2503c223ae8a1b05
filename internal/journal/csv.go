package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// Header is the CSV header for journal.csv.
const Header = "entry_id,date,account,description,debit,credit,currency,reference,reconciled,tags"

const (
	numFields     = 10
	colEntryID    = 0
	colDate       = 1
	colAccount    = 2
	colDesc       = 3
	colDebit      = 4
	colCredit     = 5
	colCurrency   = 6
	colRef        = 7
	colReconciled = 8
	colTags       = 9
)

// ReadLegs reads all legs from a journal.csv reader.
func ReadLegs(r io.Reader) ([]Leg, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var legs []Leg
	for i, rec := range records[1:] {
		leg, err := UnmarshalLeg(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// WriteLegs writes legs to a journal.csv writer (including header).
func WriteLegs(w io.Writer, legs []Leg) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, leg := range legs {
		if err := cw.Write(MarshalLeg(leg)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLeg converts a Leg to a CSV row ([]string).
func MarshalLeg(leg Leg) []string {
	row := make([]string, numFields)
	row[colEntryID] = leg.EntryID
	row[colDate] = leg.Date.String()
	row[colAccount] = leg.Account
	row[colDesc] = leg.Description

	if !leg.Debit.IsZero() {
		row[colDebit] = leg.Debit.String()
	}
	if !leg.Credit.IsZero() {
		row[colCredit] = leg.Credit.String()
	}

	row[colCurrency] = leg.Currency
	row[colRef] = leg.Reference
	row[colReconciled] = leg.Reconciled.String()
	row[colTags] = leg.Tags

	return row
}

// UnmarshalLeg converts a CSV row to a Leg.
func UnmarshalLeg(record []string) (Leg, error) {
	if len(record) != numFields {
		return Leg{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := day.Parse(record[colDate])
	if err != nil {
		return Leg{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	var debit, credit decimal.Decimal

	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return Leg{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}

	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return Leg{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	rs, err := ledger.ParseReconciledState(record[colReconciled])
	if err != nil {
		return Leg{}, err
	}

	return Leg{
		EntryID:     record[colEntryID],
		Date:        date,
		Account:     record[colAccount],
		Description: record[colDesc],
		Debit:       debit,
		Credit:      credit,
		Currency:    record[colCurrency],
		Reference:   record[colRef],
		Reconciled:  rs,
		Tags:        record[colTags],
	}, nil
}
