package ledger

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// ConcatenateMemos is the memo value meaning "join the entry memos".
const ConcatenateMemos = "<~concatenate~>"

// ErrEntryMismatch is returned when an investment leg disagrees with the
// security or kind already on the transaction.
var ErrEntryMismatch = errors.New("investment entry does not match transaction")

var lastTimestamp atomic.Int64

// nextTimestamp returns the wall clock in nanoseconds, bumped so that no two
// calls return the same value.
func nextTimestamp() int64 {
	now := time.Now().UnixNano()
	for {
		last := lastTimestamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastTimestamp.CompareAndSwap(last, now) {
			return now
		}
	}
}

// Transaction groups entries booked on one date. Once added to an engine a
// transaction is never edited in place; changes are a remove and re-add.
type Transaction struct {
	stored.Marker

	ID         id.ID
	Date       day.Date
	Timestamp  int64
	Number     string
	Payee      string
	FitID      string
	Attachment string

	memo       string
	investment bool
	entries    []*Entry
}

// NewTransaction returns an empty plain transaction dated date.
func NewTransaction(date day.Date) *Transaction {
	return &Transaction{ID: id.New(), Date: date, Timestamp: nextTimestamp()}
}

// NewInvestmentTransaction returns an empty investment transaction dated date.
func NewInvestmentTransaction(date day.Date) *Transaction {
	t := NewTransaction(date)
	t.investment = true
	return t
}

// StoredID implements stored.Object.
func (t *Transaction) StoredID() id.ID { return t.ID }

// IsInvestment reports whether t was built as an investment transaction.
func (t *Transaction) IsInvestment() bool { return t.investment }

// SetMemo sets the memo; ConcatenateMemos makes Memo join the entry memos.
func (t *Transaction) SetMemo(memo string) { t.memo = memo }

// RawMemo returns the memo as set, without sentinel expansion.
func (t *Transaction) RawMemo() string { return t.memo }

// Memo returns the transaction memo, expanding ConcatenateMemos.
func (t *Transaction) Memo() string {
	if t.memo != ConcatenateMemos {
		return t.memo
	}
	var parts []string
	for _, e := range t.entries {
		if e.Memo != "" {
			parts = append(parts, e.Memo)
		}
	}
	return strings.Join(parts, ", ")
}

// AddEntry appends e. Investment legs must agree on kind and security.
func (t *Transaction) AddEntry(e *Entry) error {
	if e.Investment != nil {
		if !t.investment {
			return ErrEntryMismatch
		}
		if cur := t.detail(); cur != nil {
			if cur.Type != e.Investment.Type || cur.Security != e.Investment.Security {
				return ErrEntryMismatch
			}
		}
	}
	t.entries = append(t.entries, e)
	return nil
}

// RemoveEntry removes e.
func (t *Transaction) RemoveEntry(e *Entry) bool {
	i := slices.Index(t.entries, e)
	if i < 0 {
		return false
	}
	t.entries = slices.Delete(t.entries, i, i+1)
	return true
}

// Entries returns a copy of the entry list.
func (t *Transaction) Entries() []*Entry { return slices.Clone(t.entries) }

// Size returns the number of entries.
func (t *Transaction) Size() int { return len(t.entries) }

// EntryType returns the structural shape: single, double or split entry.
func (t *Transaction) EntryType() TransactionType {
	switch {
	case len(t.entries) == 1 && t.entries[0].IsSingleEntry():
		return SingleEntry
	case len(t.entries) == 1:
		return DoubleEntry
	case len(t.entries) > 1:
		return SplitEntry
	}
	return Invalid
}

// Type returns the investment kind for investment transactions and the
// structural shape otherwise.
func (t *Transaction) Type() TransactionType {
	if !t.investment {
		return t.EntryType()
	}
	if d := t.detail(); d != nil {
		return d.Type
	}
	return Invalid
}

// Accounts returns the distinct accounts referenced, ordered by name.
func (t *Transaction) Accounts() []*Account {
	var out []*Account
	for _, e := range t.entries {
		for _, a := range [...]*Account{e.CreditAccount, e.DebitAccount} {
			if a != nil && !slices.Contains(out, a) {
				out = append(out, a)
			}
		}
	}
	slices.SortFunc(out, CompareAccounts)
	return out
}

// CommonAccount returns the account every entry references. For a lone
// entry it is the credit account. Nil when there is none.
func (t *Transaction) CommonAccount() *Account {
	switch len(t.entries) {
	case 0:
		return nil
	case 1:
		return t.entries[0].CreditAccount
	}
	for _, a := range t.Accounts() {
		shared := true
		for _, e := range t.entries {
			if !e.References(a) {
				shared = false
				break
			}
		}
		if shared {
			return a
		}
	}
	return nil
}

// Amount sums the amounts every entry contributes to a.
func (t *Transaction) Amount(a *Account) decimal.Decimal {
	sum := money.Zero
	for _, e := range t.entries {
		sum = sum.Add(e.Amount(a))
	}
	return sum
}

// Reconciled returns the state of the first side referencing a.
func (t *Transaction) Reconciled(a *Account) ReconciledState {
	for _, e := range t.entries {
		if e.References(a) {
			return e.Reconciled(a)
		}
	}
	return NotReconciled
}

// SetReconciled sets the state of every side referencing a.
func (t *Transaction) SetReconciled(a *Account, s ReconciledState) {
	for _, e := range t.entries {
		e.SetReconciled(a, s)
	}
}

// AreAccountsLocked reports whether any referenced account is locked.
func (t *Transaction) AreAccountsLocked() bool {
	return slices.ContainsFunc(t.Accounts(), (*Account).Locked)
}

// AreAccountsHidden reports whether any referenced account is hidden.
func (t *Transaction) AreAccountsHidden() bool {
	return slices.ContainsFunc(t.Accounts(), func(a *Account) bool { return !a.Visible() })
}

// EntriesByTag returns the entries tagged tag.
func (t *Transaction) EntriesByTag(tag TransactionTag) []*Entry {
	var out []*Entry
	for _, e := range t.entries {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}

// Clone deep-copies t. The copy and its entries get fresh ids and the copy a
// new creation timestamp; the date is kept.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{
		ID:         id.New(),
		Date:       t.Date,
		Timestamp:  nextTimestamp(),
		Number:     t.Number,
		Payee:      t.Payee,
		FitID:      t.FitID,
		Attachment: t.Attachment,
		memo:       t.memo,
		investment: t.investment,
		entries:    make([]*Entry, 0, len(t.entries)),
	}
	for _, e := range t.entries {
		c.entries = append(c.entries, e.clone())
	}
	return c
}

// Compare orders transactions by date; then by kind, memo and security
// symbol when both are investment transactions, or by number otherwise;
// then by creation timestamp compared as unsigned; then by id.
func Compare(a, b *Transaction) int {
	if a == b {
		return 0
	}
	if r := a.Date.Compare(b.Date); r != 0 {
		return r
	}
	if a.investment && b.investment {
		if r := cmp.Compare(a.Type().String(), b.Type().String()); r != 0 {
			return r
		}
		if r := cmp.Compare(a.Memo(), b.Memo()); r != 0 {
			return r
		}
		if r := cmp.Compare(securitySymbol(a), securitySymbol(b)); r != 0 {
			return r
		}
	} else if r := cmp.Compare(a.Number, b.Number); r != 0 {
		return r
	}
	if r := cmp.Compare(uint64(a.Timestamp), uint64(b.Timestamp)); r != 0 {
		return r
	}
	return id.Compare(a.ID, b.ID)
}

func securitySymbol(t *Transaction) string {
	if s := t.Security(); s != nil {
		return s.Symbol
	}
	return ""
}

// EqualsIgnoreDate reports whether a and b carry the same content apart from
// date, identity and timestamp.
func EqualsIgnoreDate(a, b *Transaction) bool {
	if a.Number != b.Number || a.Payee != b.Payee || a.memo != b.memo || len(a.entries) != len(b.entries) {
		return false
	}
	for i, x := range a.entries {
		y := b.entries[i]
		if x.Tag != y.Tag || x.CreditAccount != y.CreditAccount || x.DebitAccount != y.DebitAccount ||
			!x.CreditAmount.Equal(y.CreditAmount) || !x.DebitAmount.Equal(y.DebitAmount) || x.Memo != y.Memo {
			return false
		}
		if (x.Investment == nil) != (y.Investment == nil) {
			return false
		}
		if x.Investment != nil && (x.Investment.Type != y.Investment.Type || x.Investment.Security != y.Investment.Security ||
			!x.Investment.Price.Equal(y.Investment.Price) || !x.Investment.Quantity.Equal(y.Investment.Quantity)) {
			return false
		}
	}
	return true
}
