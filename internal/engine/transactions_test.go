package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

func TestAddTransaction_Posts(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")

	f.rec.Reset()
	tx := transfer("2024-01-05", checking, salary, "100")
	require.NoError(t, f.eng.AddTransaction(tx))

	assert.Equal(t, []events.Event{events.TransactionAdd}, f.rec.Events())
	assert.True(t, checking.ContainsTransaction(tx))
	assert.True(t, salary.ContainsTransaction(tx))
	assertDec(t, "100", checking.Balance())
	assertDec(t, "-100", salary.Balance())
	assert.Equal(t, []*ledger.Transaction{tx}, f.eng.Transactions())
}

func TestAddTransaction_Validation(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")
	food := f.account(t, nil, ledger.TypeExpense, "Food")
	savings := f.account(t, nil, ledger.TypeBank, "Savings")
	locked := f.account(t, nil, ledger.TypeBank, "Locked")
	locked.SetLocked(true)
	holder := f.account(t, nil, ledger.TypeAsset, "Holder")
	holder.SetPlaceholder(true)
	outsider := ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())

	stored := transfer("2024-01-01", checking, salary, "1")
	require.NoError(t, f.eng.AddTransaction(stored))

	tests := []struct {
		name  string
		build func() *ledger.Transaction
		rule  string
	}{
		{"duplicate", func() *ledger.Transaction { return stored }, RuleDuplicateID},
		{"no entries", func() *ledger.Transaction { return ledger.NewTransaction(day.MustParse("2024-01-02")) }, RuleNoEntries},
		{"untagged entry", func() *ledger.Transaction {
			tx := transfer("2024-01-02", checking, salary, "5")
			tx.Entries()[0].Tag = ledger.TagNone
			return tx
		}, RuleEntryTag},
		{"missing account", func() *ledger.Transaction {
			tx := ledger.NewTransaction(day.MustParse("2024-01-02"))
			require.NoError(t, tx.AddEntry(ledger.NewEntry(checking, nil, dec("5"))))
			return tx
		}, RuleEntryAccounts},
		{"same sign", func() *ledger.Transaction {
			tx := ledger.NewTransaction(day.MustParse("2024-01-02"))
			require.NoError(t, tx.AddEntry(ledger.NewExchangeEntry(checking, salary, dec("5"), dec("5"))))
			return tx
		}, RuleEntryAmounts},
		{"locked account", func() *ledger.Transaction { return transfer("2024-01-02", locked, salary, "5") }, RuleLockedAccount},
		{"placeholder", func() *ledger.Transaction { return transfer("2024-01-02", holder, salary, "5") }, RulePlaceholder},
		{"unknown account", func() *ledger.Transaction { return transfer("2024-01-02", outsider, salary, "5") }, RuleUnknownAccount},
		{"split without common account", func() *ledger.Transaction {
			tx := transfer("2024-01-02", checking, salary, "5")
			require.NoError(t, tx.AddEntry(ledger.NewEntry(food, savings, dec("2"))))
			return tx
		}, RuleCommonAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.rec.Reset()
			err := f.eng.AddTransaction(tt.build())
			requireRule(t, err, tt.rule)
			assert.Equal(t, []events.Event{events.TransactionAddFailed}, f.rec.Events())
		})
	}
	assert.Len(t, f.eng.Transactions(), 1)
}

func TestAddTransaction_SecurityMustBeHeld(t *testing.T) {
	f := newFixture(t)
	broker := f.account(t, nil, ledger.TypeInvest, "Broker")
	acme := commodity.NewSecurity("ACME", f.eng.DefaultCurrency())
	require.NoError(t, f.eng.AddSecurity(acme))

	trade := func() *ledger.Transaction {
		tx, err := ledger.NewTrade(ledger.Trade{
			Type:     ledger.AddShare,
			Date:     day.MustParse("2024-02-01"),
			Security: acme,
			Invest:   broker,
			Quantity: dec("10"),
			Price:    dec("5"),
		})
		require.NoError(t, err)
		return tx
	}
	requireRule(t, f.eng.AddTransaction(trade()), RuleSecurityNotHeld)

	require.NoError(t, f.eng.UpdateAccountSecurities(broker, []*commodity.Security{acme}))
	require.NoError(t, f.eng.AddTransaction(trade()))
	assert.Equal(t, 1, broker.TransactionCount())
}

func TestAddTransaction_RecordsImpliedRate(t *testing.T) {
	f := newFixture(t)
	usd := f.eng.DefaultCurrency()
	eur := commodity.NewCurrency("EUR")
	require.NoError(t, f.eng.AddCurrency(eur))

	euroAcct := ledger.NewAccount(ledger.TypeBank, eur)
	euroAcct.SetName("Euro")
	require.NoError(t, f.eng.AddAccount(f.eng.RootAccount(), euroAcct))
	dollarAcct := f.account(t, nil, ledger.TypeBank, "Dollar")

	tx := ledger.NewTransaction(day.MustParse("2024-02-01"))
	require.NoError(t, tx.AddEntry(ledger.NewExchangeEntry(euroAcct, dollarAcct, dec("100"), dec("-110"))))
	f.rec.Reset()
	require.NoError(t, f.eng.AddTransaction(tx))

	assert.Equal(t, []events.Event{events.ExchangeRateAdd, events.TransactionAdd}, f.rec.Events())
	assertDec(t, "1.1", f.eng.ExchangeRateValue(eur, usd))
	assertDec(t, "1.1", f.eng.ExchangeRate(eur, usd).RateOn(tx.Date))

	// A rate already recorded for the date is kept.
	again := ledger.NewTransaction(day.MustParse("2024-02-01"))
	require.NoError(t, again.AddEntry(ledger.NewExchangeEntry(euroAcct, dollarAcct, dec("100"), dec("-150"))))
	require.NoError(t, f.eng.AddTransaction(again))
	assertDec(t, "1.1", f.eng.ExchangeRate(eur, usd).RateOn(tx.Date))
}

func TestRemoveTransaction(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")
	tx := transfer("2024-01-05", checking, salary, "100")
	require.NoError(t, f.eng.AddTransaction(tx))

	require.NoError(t, f.eng.RemoveTransaction(tx))
	assert.Zero(t, checking.TransactionCount())
	assertDec(t, "0", checking.Balance())
	assert.Empty(t, f.eng.Transactions())
	assert.ErrorIs(t, f.eng.RemoveTransaction(tx), ErrNotFound)

	tx2 := transfer("2024-01-06", checking, salary, "5")
	require.NoError(t, f.eng.AddTransaction(tx2))
	checking.SetLocked(true)
	requireRule(t, f.eng.RemoveTransaction(tx2), RuleLockedAccount)
}

func TestSetTransactionReconciled(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")
	tx := transfer("2024-01-05", checking, salary, "100")
	require.NoError(t, f.eng.AddTransaction(tx))

	f.rec.Reset()
	clone, err := f.eng.SetTransactionReconciled(tx, checking, ledger.Reconciled)
	require.NoError(t, err)
	assert.NotEqual(t, tx.ID, clone.ID)
	assert.Equal(t, ledger.Reconciled, clone.Reconciled(checking))
	assert.Equal(t, ledger.NotReconciled, clone.Reconciled(salary))
	assert.True(t, tx.MarkedForRemoval())
	assert.Equal(t, []*ledger.Transaction{clone}, checking.Transactions())
	assert.Equal(t, []events.Event{events.TransactionRemove, events.TransactionAdd}, f.rec.Events())

	same, err := f.eng.SetTransactionReconciled(clone, checking, ledger.Reconciled)
	require.NoError(t, err)
	assert.Same(t, clone, same)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")
	first := transfer("2024-01-05", checking, salary, "100")
	second := transfer("2024-01-20", checking, salary, "50.25")
	require.NoError(t, f.eng.AddTransaction(first))
	require.NoError(t, f.eng.AddTransaction(second))
	txs := []*ledger.Transaction{first, second}

	_, err := f.eng.Reconcile(checking, txs, day.MustParse("2024-01-31"), dec("10"))
	requireRule(t, err, RuleInvalidValue)
	attempt, ok := checking.Attribute(ledger.AttrReconcileLastAttemptDate)
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", attempt)
	_, ok = checking.Attribute(ledger.AttrReconcileLastSuccessDate)
	assert.False(t, ok)
	assert.Equal(t, ledger.NotReconciled, first.Reconciled(checking))

	res, err := f.eng.Reconcile(checking, txs, day.MustParse("2024-01-31"), dec("150.25"))
	require.NoError(t, err)
	assertDec(t, "0", res.Opening)
	assertDec(t, "150.25", res.Closing)
	require.Len(t, res.Transactions, 2)
	for _, tx := range res.Transactions {
		assert.Equal(t, ledger.Reconciled, tx.Reconciled(checking))
	}
	assertDec(t, "150.25", checking.ReconciledBalance())

	stmt, ok := checking.Attribute(ledger.AttrReconcileLastStatementDate)
	require.True(t, ok)
	assert.Equal(t, "2024-01-31", stmt)
	closing, ok := checking.Attribute(ledger.AttrReconcileLastClosingBal)
	require.True(t, ok)
	assertDec(t, "150.25", dec(closing))
}
