package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
)

// Entry is one credit/debit leg pair of a Transaction. By convention the
// credit amount is >= 0 and the debit amount <= 0; they differ in magnitude
// only when the two accounts use different currencies. A single-entry leg
// names the same account on both sides with equal amounts.
type Entry struct {
	ID               id.ID
	Tag              TransactionTag
	CreditAccount    *Account
	DebitAccount     *Account
	CreditAmount     decimal.Decimal
	DebitAmount      decimal.Decimal
	CreditReconciled ReconciledState
	DebitReconciled  ReconciledState
	Memo             string
	Tags             []*Tag

	// Investment is set on the leg that moves shares.
	Investment *InvestmentDetail
}

// InvestmentDetail carries the share movement of an investment leg.
type InvestmentDetail struct {
	Type     TransactionType
	Security *commodity.Security
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// SignedQuantity is the quantity with the sign of the holding change.
func (d *InvestmentDetail) SignedQuantity() decimal.Decimal {
	p := investmentPolicies[d.Type]
	return d.Quantity.Mul(decimal.NewFromInt(p.sign))
}

// Total is price times quantity. It feeds fee and gain bookkeeping, not balances.
func (d *InvestmentDetail) Total() decimal.Decimal {
	return d.Price.Mul(d.Quantity)
}

// NewEntry moves amount from debit to credit.
func NewEntry(credit, debit *Account, amount decimal.Decimal) *Entry {
	return NewExchangeEntry(credit, debit, amount.Abs(), amount.Abs().Neg())
}

// NewExchangeEntry is a leg between accounts of different currencies.
func NewExchangeEntry(credit, debit *Account, creditAmount, debitAmount decimal.Decimal) *Entry {
	return &Entry{
		ID:            id.New(),
		Tag:           TagBank,
		CreditAccount: credit,
		DebitAccount:  debit,
		CreditAmount:  creditAmount,
		DebitAmount:   debitAmount,
	}
}

// NewSingleEntry books amount against one account.
func NewSingleEntry(account *Account, amount decimal.Decimal) *Entry {
	return &Entry{
		ID:            id.New(),
		Tag:           TagBank,
		CreditAccount: account,
		DebitAccount:  account,
		CreditAmount:  amount,
		DebitAmount:   amount,
	}
}

// IsSingleEntry reports whether the leg references one account with equal amounts.
func (e *Entry) IsSingleEntry() bool {
	return e.CreditAccount == e.DebitAccount && e.CreditAmount.Equal(e.DebitAmount)
}

// IsMultiCurrency reports whether the two accounts use different currencies.
func (e *Entry) IsMultiCurrency() bool {
	if e.CreditAccount == nil || e.DebitAccount == nil {
		return false
	}
	return e.CreditAccount.Currency().Symbol != e.DebitAccount.Currency().Symbol
}

// Amount returns the amount this leg contributes to a.
func (e *Entry) Amount(a *Account) decimal.Decimal {
	switch a {
	case e.CreditAccount:
		return e.CreditAmount
	case e.DebitAccount:
		return e.DebitAmount
	}
	return money.Zero
}

// Reconciled returns the reconciled state of the side a is on.
func (e *Entry) Reconciled(a *Account) ReconciledState {
	switch a {
	case e.CreditAccount:
		return e.CreditReconciled
	case e.DebitAccount:
		return e.DebitReconciled
	}
	return NotReconciled
}

// SetReconciled sets the state on every side a is on.
func (e *Entry) SetReconciled(a *Account, s ReconciledState) {
	if e.CreditAccount == a {
		e.CreditReconciled = s
	}
	if e.DebitAccount == a {
		e.DebitReconciled = s
	}
}

// References reports whether a is on either side.
func (e *Entry) References(a *Account) bool {
	return e.CreditAccount == a || e.DebitAccount == a
}

// HasTag reports whether the user tag t is attached.
func (e *Entry) HasTag(t *Tag) bool {
	return slices.Contains(e.Tags, t)
}

// SignedQuantity is the holding change of an investment leg, zero otherwise.
func (e *Entry) SignedQuantity() decimal.Decimal {
	if e.Investment == nil {
		return money.Zero
	}
	return e.Investment.SignedQuantity()
}

// clone copies the leg with a fresh identity.
func (e *Entry) clone() *Entry {
	c := *e
	c.ID = id.New()
	c.Tags = slices.Clone(e.Tags)
	if e.Investment != nil {
		d := *e.Investment
		c.Investment = &d
	}
	return &c
}
