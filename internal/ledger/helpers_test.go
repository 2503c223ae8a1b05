package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func usd() *commodity.Currency {
	return commodity.NewCurrency("USD")
}

func named(t AccountType, name string, c *commodity.Currency) *Account {
	a := NewAccount(t, c)
	a.SetName(name)
	return a
}

// transfer books amount from debit to credit on date.
func transfer(date string, credit, debit *Account, amount string) *Transaction {
	tx := NewTransaction(day.MustParse(date))
	if err := tx.AddEntry(NewEntry(credit, debit, dec(amount))); err != nil {
		panic(err)
	}
	return tx
}

func post(t *testing.T, tx *Transaction) {
	t.Helper()
	for _, a := range tx.Accounts() {
		assert.True(t, a.AddTransaction(tx), "add to %s", a.Name())
	}
}
