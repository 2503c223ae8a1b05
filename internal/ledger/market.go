package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/money"
)

// MarketPrice returns the best known price of sec on date in base.
//
// A history node dated exactly on date wins. Otherwise the closest history
// node before date competes with the closest earlier transaction of sec
// carrying a non-zero price; the later of the two wins, with the transaction
// winning a tie. A transaction dated exactly on date returns its own price.
// History prices are converted at the current rate; transaction prices are
// returned as recorded. txs must be in sort order.
func MarketPrice(txs []*Transaction, sec *commodity.Security, base *commodity.Currency, date day.Date) decimal.Decimal {
	node, haveNode := sec.HistoryNodeOn(date)
	rate := money.One
	if sec.Currency != nil {
		rate = sec.Currency.ExchangeRate(base)
	}
	if haveNode && node.Date.Compare(date) == 0 {
		return node.Price.Mul(rate)
	}

	var (
		txPrice  decimal.Decimal
		txDate   day.Date
		haveTxPx bool
	)
	for _, t := range txs {
		if !t.IsInvestment() || t.Security() != sec || !t.Price().IsPositive() {
			continue
		}
		if t.Date.After(date) {
			break
		}
		if t.Date.Compare(date) == 0 {
			return t.Price()
		}
		txPrice, txDate, haveTxPx = t.Price(), t.Date, true
	}

	switch {
	case haveNode && haveTxPx:
		if !txDate.Before(node.Date) {
			return txPrice
		}
		return node.Price.Mul(rate)
	case haveNode:
		return node.Price.Mul(rate)
	case haveTxPx:
		return txPrice
	}
	return money.Zero
}
