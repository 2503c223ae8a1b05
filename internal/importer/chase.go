package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
)

// ChaseParser reads the CSV downloads of Chase deposit and card accounts.
// Columns are found by header name, so both layouts parse:
//
//	checking: Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
//	card:     Transaction Date,Post Date,Description,Category,Type,Amount,Memo
//
// Card rows are dated by the transaction date rather than the post date.
type ChaseParser struct{}

const chaseDateLayout = "01/02/2006"

// chaseColumns holds column indexes; -1 marks an absent optional column.
type chaseColumns struct {
	date, desc, amount, kind, check int
}

func (p *ChaseParser) Format() string { return "chase" }

func (p *ChaseParser) Parse(r io.Reader) ([]BankTransaction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	cols, err := chaseColumnsOf(header)
	if err != nil {
		return nil, err
	}

	var txns []BankTransaction
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return txns, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading chase CSV: %w", err)
		}
		bt, err := cols.parse(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		txns = append(txns, bt)
	}
}

func chaseColumnsOf(header []string) (chaseColumns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	find := func(names ...string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := chaseColumns{
		date:   find("transaction date", "posting date", "post date"),
		desc:   find("description"),
		amount: find("amount"),
		kind:   find("type"),
		check:  find("check or slip #"),
	}
	if cols.date < 0 || cols.desc < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("chase CSV header %q: need a date, description and amount column", strings.Join(header, ","))
	}
	return cols, nil
}

func (c chaseColumns) parse(rec []string) (BankTransaction, error) {
	t, err := time.Parse(chaseDateLayout, rec[c.date])
	if err != nil {
		return BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[c.date], err)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(rec[c.amount], ",", ""))
	if err != nil {
		return BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[c.amount], err)
	}

	d := day.Of(t)
	desc := strings.TrimSpace(rec[c.desc])
	return BankTransaction{
		Date:        d,
		Description: desc,
		Amount:      amount,
		Reference:   makeRef("chase", d, desc, amount),
		Type:        optional(rec, c.kind),
		Number:      optional(rec, c.check),
	}, nil
}

func optional(rec []string, i int) string {
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
