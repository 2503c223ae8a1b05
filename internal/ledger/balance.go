package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/money"
)

// balanceStrategy computes the balances of one account over its sorted
// transaction list. Implementations never lock the account.
type balanceStrategy interface {
	balance(a *Account, txs []*Transaction) decimal.Decimal
	reconciledBalance(a *Account, txs []*Transaction) decimal.Decimal
	balanceAt(a *Account, txs []*Transaction, i int) decimal.Decimal
	balanceBetween(a *Account, txs []*Transaction, start, end day.Date) decimal.Decimal
}

var (
	standard   = standardStrategy{}
	investment = investmentStrategy{}
)

func strategyFor(g AccountGroup) balanceStrategy {
	if g == GroupInvest {
		return investment
	}
	return standard
}

// standardStrategy sums entry amounts.
type standardStrategy struct{}

func (standardStrategy) balance(a *Account, txs []*Transaction) decimal.Decimal {
	sum := money.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount(a))
	}
	return sum
}

func (standardStrategy) reconciledBalance(a *Account, txs []*Transaction) decimal.Decimal {
	sum := money.Zero
	for _, t := range txs {
		for _, e := range t.entries {
			if e.References(a) && e.Reconciled(a) == Reconciled {
				sum = sum.Add(e.Amount(a))
			}
		}
	}
	return sum
}

func (s standardStrategy) balanceAt(a *Account, txs []*Transaction, i int) decimal.Decimal {
	return s.balance(a, txs[:i+1])
}

func (standardStrategy) balanceBetween(a *Account, txs []*Transaction, start, end day.Date) decimal.Decimal {
	sum := money.Zero
	for _, t := range txs {
		if t.Date.After(end) {
			break
		}
		if !t.Date.Before(start) {
			sum = sum.Add(t.Amount(a))
		}
	}
	return sum
}

// investmentStrategy reports cash plus the market value of the holdings.
type investmentStrategy struct {
	standardStrategy
}

func (s investmentStrategy) balance(a *Account, txs []*Transaction) decimal.Decimal {
	cash := s.standardStrategy.balance(a, txs)
	if len(txs) == 0 {
		return cash
	}
	end := day.Max(txs[len(txs)-1].Date, day.Today())
	return cash.Add(s.marketValue(a, txs, txs[0].Date, end))
}

func (s investmentStrategy) reconciledBalance(a *Account, txs []*Transaction) decimal.Decimal {
	cash := s.standardStrategy.reconciledBalance(a, txs)
	order, holdings := holdingsOf(txs, func(t *Transaction) bool { return t.Reconciled(a) == Reconciled })
	return cash.Add(s.value(a, txs, order, holdings, day.Today()))
}

func (s investmentStrategy) balanceAt(a *Account, txs []*Transaction, i int) decimal.Decimal {
	cash := s.standardStrategy.balanceAt(a, txs, i)
	order, holdings := holdingsOf(txs[:i+1], func(*Transaction) bool { return true })
	return cash.Add(s.value(a, txs, order, holdings, day.Today()))
}

func (s investmentStrategy) balanceBetween(a *Account, txs []*Transaction, start, end day.Date) decimal.Decimal {
	cash := s.standardStrategy.balanceBetween(a, txs, start, end)
	return cash.Add(s.marketValue(a, txs, start, end))
}

// marketValue values the shares acquired within [start, end] at end's prices.
func (s investmentStrategy) marketValue(a *Account, txs []*Transaction, start, end day.Date) decimal.Decimal {
	order, holdings := holdingsOf(txs, func(t *Transaction) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	})
	return s.value(a, txs, order, holdings, end)
}

func (investmentStrategy) value(a *Account, txs []*Transaction, order []*commodity.Security, holdings map[*commodity.Security]decimal.Decimal, date day.Date) decimal.Decimal {
	base := a.Currency()
	sum := money.Zero
	for _, sec := range order {
		qty := holdings[sec]
		if qty.IsZero() {
			continue
		}
		sum = sum.Add(qty.Mul(MarketPrice(txs, sec, base, date)))
	}
	return a.Round(sum)
}

func holdingsOf(txs []*Transaction, keep func(*Transaction) bool) ([]*commodity.Security, map[*commodity.Security]decimal.Decimal) {
	holdings := make(map[*commodity.Security]decimal.Decimal)
	var order []*commodity.Security
	for _, t := range txs {
		sec := t.Security()
		if sec == nil || !keep(t) {
			continue
		}
		if _, ok := holdings[sec]; !ok {
			order = append(order, sec)
		}
		holdings[sec] = holdings[sec].Add(t.SignedQuantity())
	}
	return order, holdings
}
