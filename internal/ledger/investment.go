package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
)

func (t *Transaction) investmentEntry() *Entry {
	for _, e := range t.entries {
		if e.Investment != nil {
			return e
		}
	}
	return nil
}

func (t *Transaction) detail() *InvestmentDetail {
	if e := t.investmentEntry(); e != nil {
		return e.Investment
	}
	return nil
}

// Security returns the traded security, or nil for plain transactions.
func (t *Transaction) Security() *commodity.Security {
	if d := t.detail(); d != nil {
		return d.Security
	}
	return nil
}

// Price returns the per-share price, zero for plain transactions.
func (t *Transaction) Price() decimal.Decimal {
	if d := t.detail(); d != nil {
		return d.Price
	}
	return money.Zero
}

// Quantity returns the share count, zero for plain transactions.
func (t *Transaction) Quantity() decimal.Decimal {
	if d := t.detail(); d != nil {
		return d.Quantity
	}
	return money.Zero
}

// SignedQuantity returns the change to the holding.
func (t *Transaction) SignedQuantity() decimal.Decimal {
	if d := t.detail(); d != nil {
		return d.SignedQuantity()
	}
	return money.Zero
}

// InvestmentAccount returns the account holding the security.
func (t *Transaction) InvestmentAccount() *Account {
	e := t.investmentEntry()
	if e == nil {
		return nil
	}
	switch {
	case e.CreditAccount != nil && e.CreditAccount.Group() == GroupInvest:
		return e.CreditAccount
	case e.DebitAccount != nil && e.DebitAccount.Group() == GroupInvest:
		return e.DebitAccount
	}
	return nil
}

// FeeEntries returns the legs tagged as investment fees.
func (t *Transaction) FeeEntries() []*Entry { return t.EntriesByTag(TagInvestmentFee) }

// GainLossEntries returns the legs tagged as realised gains or losses.
func (t *Transaction) GainLossEntries() []*Entry { return t.EntriesByTag(TagGainLoss) }

// Fees returns the positive total of fees charged to the investment account.
func (t *Transaction) Fees() decimal.Decimal {
	a := t.InvestmentAccount()
	sum := money.Zero
	for _, e := range t.FeeEntries() {
		sum = sum.Add(e.Amount(a))
	}
	return sum.Neg()
}

// MarketValue values the signed holding change at price.
func (t *Transaction) MarketValue(price decimal.Decimal) decimal.Decimal {
	return t.SignedQuantity().Mul(price)
}

// NetCashValue is the cash effect of the trade including fees.
func (t *Transaction) NetCashValue() decimal.Decimal {
	v := t.Quantity().Mul(t.Price())
	switch t.Type() {
	case Dividend, ReturnOfCapital:
		return t.Amount(t.InvestmentAccount())
	case ReinvestDividend, SellShare:
		return v.Sub(t.Fees())
	case BuyShare:
		return v.Add(t.Fees())
	}
	return v
}

// Total returns the amount of t for a, or the net cash value when t is an
// investment transaction and a holds the security.
func (t *Transaction) Total(a *Account) decimal.Decimal {
	if t.investment && a == t.InvestmentAccount() {
		return t.NetCashValue()
	}
	return t.Amount(a)
}

// Trade describes an investment transaction to build.
type Trade struct {
	Type     TransactionType
	Date     day.Date
	Security *commodity.Security
	Invest   *Account
	// Cash is the account paying or receiving money; nil means Invest.
	Cash *Account
	// Income is the account a dividend or return of capital is booked against.
	Income   *Account
	Quantity decimal.Decimal
	Price    decimal.Decimal
	// Amount is the dividend or return of capital, in the investment currency.
	Amount decimal.Decimal
	// Rate converts investment currency into the cash account currency; zero means 1.
	Rate   decimal.Decimal
	Fees   decimal.Decimal
	Memo   string
	Number string
}

// NewTrade builds the entries for tr and returns the transaction.
func NewTrade(tr Trade) (*Transaction, error) {
	if _, ok := investmentPolicies[tr.Type]; !ok {
		return nil, fmt.Errorf("%s is not an investment kind", tr.Type)
	}
	if tr.Invest == nil || tr.Invest.Group() != GroupInvest {
		return nil, fmt.Errorf("%s needs an investment account", tr.Type)
	}
	if tr.Security == nil {
		return nil, fmt.Errorf("%s needs a security", tr.Type)
	}
	cash := tr.Cash
	if cash == nil {
		cash = tr.Invest
	}
	rate := tr.Rate
	if rate.IsZero() {
		rate = money.One
	}

	t := NewInvestmentTransaction(tr.Date)
	t.Number = tr.Number
	t.memo = tr.Memo
	detail := &InvestmentDetail{Type: tr.Type, Security: tr.Security, Price: tr.Price, Quantity: tr.Quantity}
	leg := func(credit, debit *Account, ca, da decimal.Decimal) *Entry {
		return &Entry{
			ID:            id.New(),
			Tag:           TagInvestment,
			CreditAccount: credit,
			DebitAccount:  debit,
			CreditAmount:  ca,
			DebitAmount:   da,
			Memo:          tr.Memo,
			Investment:    detail,
		}
	}

	var main *Entry
	switch tr.Type {
	case AddShare, RemoveShare, SplitShare, MergeShare, ReinvestDividend:
		main = leg(tr.Invest, tr.Invest, money.Zero, money.Zero)
	case BuyShare:
		cost := tr.Quantity.Mul(tr.Price)
		if cash == tr.Invest {
			main = leg(tr.Invest, tr.Invest, cost.Neg(), cost.Neg())
		} else {
			main = leg(tr.Invest, cash, money.Zero, cash.Round(cost.Mul(rate)).Neg())
		}
	case SellShare:
		proceeds := tr.Quantity.Mul(tr.Price)
		if cash == tr.Invest {
			main = leg(tr.Invest, tr.Invest, proceeds, proceeds)
		} else {
			main = leg(cash, tr.Invest, cash.Round(proceeds.Mul(rate)), money.Zero)
		}
	case Dividend, ReturnOfCapital:
		if tr.Income == nil {
			return nil, fmt.Errorf("%s needs an income account", tr.Type)
		}
		main = leg(tr.Invest, tr.Income, tr.Amount, tr.Income.Round(tr.Amount.Mul(rate)).Neg())
		main.Tag = TagDividend
	}
	if err := t.AddEntry(main); err != nil {
		return nil, err
	}

	if (tr.Type == Dividend || tr.Type == ReturnOfCapital) && cash != tr.Invest {
		transfer := NewExchangeEntry(cash, tr.Invest, cash.Round(tr.Amount.Mul(rate)), tr.Amount.Neg())
		transfer.Tag = TagInvestmentCashTransfer
		transfer.Memo = tr.Memo
		t.entries = append(t.entries, transfer)
	}

	if tr.Fees.IsPositive() {
		fee := NewSingleEntry(tr.Invest, tr.Fees.Neg())
		fee.Tag = TagInvestmentFee
		fee.Memo = tr.Memo
		t.entries = append(t.entries, fee)
		if cash != tr.Invest {
			transfer := NewExchangeEntry(tr.Invest, cash, tr.Fees, cash.Round(tr.Fees.Mul(rate)).Neg())
			transfer.Tag = TagInvestmentCashTransfer
			transfer.Memo = tr.Memo
			t.entries = append(t.entries, transfer)
		}
	}
	return t, nil
}
