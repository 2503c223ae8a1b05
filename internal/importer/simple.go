package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
)

// SimpleParser reads a minimal "date,description,amount" CSV with ISO dates.
type SimpleParser struct{}

const simpleNumFields = 3

func (p *SimpleParser) Format() string { return "simple" }

func (p *SimpleParser) Parse(r io.Reader) ([]BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = simpleNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []BankTransaction
	for i, rec := range records[1:] {
		d, err := day.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[0], err)
		}
		amount, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[2], err)
		}
		txns = append(txns, BankTransaction{
			Date:        d,
			Description: rec[1],
			Amount:      amount,
			Reference:   makeRef("simple", d, rec[1], amount),
		})
	}
	return txns, nil
}
