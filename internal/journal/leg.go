// Package journal exports the ledger as monthly double-entry CSV journals,
// one row per side of every entry.
package journal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// Leg is a single row in journal.csv (one side of a double-entry).
type Leg struct {
	EntryID     string // "YYYY-MM-NNNx" where x = a,b,c...
	Date        day.Date
	Account     string // account path
	Description string
	Debit       decimal.Decimal // zero if credit side
	Credit      decimal.Decimal // zero if debit side
	Currency    string
	Reference   string
	Reconciled  ledger.ReconciledState
	Tags        string // semicolon-separated
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l Leg) EntryGroup() string {
	i := len(l.EntryID)
	for i > 0 && l.EntryID[i-1] >= 'a' && l.EntryID[i-1] <= 'z' {
		i--
	}
	return l.EntryID[:i]
}

// FormatEntryID returns "YYYY-MM-NNN".
func FormatEntryID(year int, month int, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLegID appends the leg suffix for index i: a..z, then aa, ab...
func FormatLegID(entryID string, i int) string {
	return entryID + legSuffix(i)
}

func legSuffix(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return legSuffix(i/26-1) + legSuffix(i%26)
}

// ParseEntryID splits an entry or leg ID into year, month and sequence.
func ParseEntryID(s string) (year, month, seq int, err error) {
	base := Leg{EntryID: s}.EntryGroup()
	parts := strings.Split(base, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("entry ID %q: want YYYY-MM-NNN", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("entry ID %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 {
		return 0, 0, 0, fmt.Errorf("entry ID %q: out of range", s)
	}
	return nums[0], nums[1], nums[2], nil
}

// Legs splits t into journal rows under entryID. Each two-account entry
// yields a credit and a debit leg; a single-entry adjustment yields one.
func Legs(t *ledger.Transaction, entryID, sep string) []Leg {
	ref := t.FitID
	if ref == "" {
		ref = t.Number
	}
	base := Leg{
		Date:        t.Date,
		Description: t.Memo(),
		Reference:   ref,
	}

	var legs []Leg
	var e *ledger.Entry
	add := func(a *ledger.Account, amount decimal.Decimal, rs ledger.ReconciledState) {
		l := base
		if e.Memo != "" {
			l.Description = e.Memo
		}
		l.EntryID = FormatLegID(entryID, len(legs))
		l.Account = a.PathName(sep)
		l.Currency = a.Currency().Symbol
		l.Reconciled = rs
		l.Tags = tagNames(e.Tags)
		if amount.IsNegative() {
			l.Debit = amount.Abs()
		} else {
			l.Credit = amount
		}
		legs = append(legs, l)
	}

	for _, e = range t.Entries() {
		add(e.CreditAccount, e.CreditAmount, e.CreditReconciled)
		if !e.IsSingleEntry() {
			add(e.DebitAccount, e.DebitAmount, e.DebitReconciled)
		}
	}
	return legs
}

func tagNames(tags []*ledger.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ";")
}
