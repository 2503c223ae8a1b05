package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
)

func TestBalanceInvalidation(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	food := named(TypeExpense, "Food", usd())

	first := transfer("2024-01-01", bank, food, "10")
	post(t, first)
	assertDec(t, "10", bank.Balance())
	assertDec(t, "10", bank.Balance())
	assertDec(t, "-10", food.Balance())

	second := transfer("2024-01-02", food, bank, "4")
	post(t, second)
	assertDec(t, "6", bank.Balance())

	assert.True(t, bank.RemoveTransaction(first))
	assertDec(t, "-4", bank.Balance())
	assert.False(t, bank.RemoveTransaction(first), "missing remove is a no-op")
	assert.False(t, bank.AddTransaction(second), "duplicate add is a no-op")
	assert.Equal(t, 1, bank.TransactionCount())
}

func TestAddTransaction_Placeholder(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	bank.SetPlaceholder(true)
	food := named(TypeExpense, "Food", usd())

	assert.False(t, bank.AddTransaction(transfer("2024-01-01", bank, food, "1")))
	assert.Zero(t, bank.TransactionCount())
}

func TestPointInTimeBalances(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	income := named(TypeIncome, "Salary", usd())
	for _, tx := range []*Transaction{
		transfer("2024-01-01", bank, income, "100"),
		transfer("2024-01-15", bank, income, "50"),
		transfer("2024-02-01", bank, income, "25"),
	} {
		post(t, tx)
	}

	assertDec(t, "100", bank.BalanceAt(0))
	assertDec(t, "150", bank.BalanceAt(1))
	assertDec(t, "175", bank.BalanceAt(5))
	assertDec(t, "0", bank.BalanceAt(-1))
	assertDec(t, "150", bank.BalanceOn(day.MustParse("2024-01-31")))
	assertDec(t, "0", bank.BalanceOn(day.MustParse("2023-12-31")))
	assertDec(t, "75", bank.BalanceBetween(day.MustParse("2024-01-15"), day.MustParse("2024-02-01")))
	assertDec(t, "150", bank.BalanceAtTransaction(bank.TransactionAt(1)))
	assert.Len(t, bank.TransactionsBetween(day.MustParse("2024-01-02"), day.MustParse("2024-12-31")), 2)
}

func TestReconciledBalances(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	income := named(TypeIncome, "Salary", usd())
	txs := []*Transaction{
		transfer("2024-01-01", bank, income, "10"),
		transfer("2024-01-02", bank, income, "20"),
		transfer("2024-01-03", bank, income, "5"),
	}
	for _, tx := range txs {
		post(t, tx)
	}

	assertDec(t, "0", bank.OpeningBalanceForReconcile())

	txs[0].SetReconciled(bank, Reconciled)
	bank.ClearCachedBalances()
	assertDec(t, "10", bank.ReconciledBalance())
	assertDec(t, "10", bank.OpeningBalanceForReconcile())
	d, ok := bank.FirstUnreconciledTransactionDate()
	require.True(t, ok)
	assert.Equal(t, day.MustParse("2024-01-02"), d)

	txs[1].SetReconciled(bank, Reconciled)
	txs[2].SetReconciled(bank, Reconciled)
	bank.ClearCachedBalances()
	assertDec(t, "35", bank.ReconciledBalance())
	assertDec(t, "30", bank.OpeningBalanceForReconcile(), "all reconciled: balance before the last date")
	assertDec(t, "0", income.ReconciledBalance())
}

func TestNextTransactionNumber(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	food := named(TypeExpense, "Food", usd())
	assert.Equal(t, "", bank.NextTransactionNumber())

	for _, n := range []string{"ATM", "12", "7", "0013", "9x", ""} {
		tx := transfer("2024-01-01", food, bank, "1")
		tx.Number = n
		post(t, tx)
	}
	assert.Equal(t, "14", bank.NextTransactionNumber())

	other := named(TypeBank, "Other", usd())
	tx := transfer("2024-01-01", food, other, "1")
	tx.Number = "EFT"
	require.True(t, other.AddTransaction(tx))
	assert.Equal(t, "", other.NextTransactionNumber())
}

func TestChildren(t *testing.T) {
	root := NewRootAccount(usd())
	b := named(TypeBank, "beta", usd())
	a := named(TypeBank, "Alpha", usd())
	c := named(TypeBank, "Gamma", usd())

	require.NoError(t, root.AddChild(b))
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(c))
	assert.Equal(t, []*Account{a, b, c}, root.Children())
	assert.ErrorIs(t, root.AddChild(a), ErrDuplicateChild)
	assert.ErrorIs(t, a.AddChild(a), ErrSelfParent)
	assert.ErrorIs(t, a.SetParent(a), ErrSelfParent)

	c.SetName("Aardvark")
	assert.Equal(t, []*Account{c, a, b}, root.Children())

	leaf := named(TypeCash, "Leaf", usd())
	require.NoError(t, leaf.SetParent(a))
	assert.True(t, leaf.IsDescendantOf(root))
	assert.True(t, leaf.IsDescendantOf(a))
	assert.False(t, a.IsDescendantOf(leaf))
	assert.False(t, a.IsDescendantOf(a))
	assert.Equal(t, 2, leaf.Depth())
	assert.Equal(t, "Alpha:Leaf", leaf.PathName(":"))
	assert.Equal(t, []*Account{c, a, leaf, b}, root.Descendants())

	require.NoError(t, leaf.SetParent(b))
	assert.False(t, a.IsParent())
	assert.True(t, b.Contains(leaf))
	assert.Equal(t, b, leaf.Parent())

	assert.True(t, root.RemoveChild(b))
	assert.Nil(t, b.Parent())
	assert.False(t, root.RemoveChild(b))
}

func TestSetType(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	require.NoError(t, bank.SetType(TypeChecking))
	assert.Equal(t, GroupAsset, bank.Group())

	assert.ErrorIs(t, bank.SetType(TypeInvest), ErrImmutableType)
	invest := named(TypeInvest, "Brokerage", usd())
	assert.ErrorIs(t, invest.SetType(TypeBank), ErrImmutableType)
	root := NewRootAccount(usd())
	assert.ErrorIs(t, root.SetType(TypeAsset), ErrImmutableType)
	assert.True(t, root.IsRoot())
}

func TestAttributes(t *testing.T) {
	a := named(TypeBank, "Bank", usd())
	assert.ErrorIs(t, a.SetAttribute(" ", "x"), ErrEmptyAttributeKey)
	assert.ErrorIs(t, a.SetAttribute("k", strings.Repeat("x", MaxAttributeLength+1)), ErrAttributeTooLong)
	require.NoError(t, a.SetAttribute("k", strings.Repeat("x", MaxAttributeLength)))
	require.NoError(t, a.SetAttribute(AttrReconcileLastAttemptDate, "2024-01-01"))

	v, ok := a.Attribute(AttrReconcileLastAttemptDate)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", v)
	assert.Len(t, a.Attributes(), 2)

	a.RemoveAttribute("k")
	_, ok = a.Attribute("k")
	assert.False(t, ok)
}

func TestSecurities(t *testing.T) {
	invest, bank, sec := brokerage(t)
	assert.ErrorIs(t, bank.AddSecurity(sec), ErrNotInvestment)
	assert.True(t, invest.ContainsSecurity(sec))

	tx, err := NewTrade(Trade{Type: AddShare, Date: day.MustParse("2024-01-01"), Security: sec, Invest: invest, Quantity: dec("1"), Price: dec("1")})
	require.NoError(t, err)
	require.True(t, invest.AddTransaction(tx))
	assert.ErrorIs(t, invest.RemoveSecurity(sec), ErrSecurityInUse)

	require.True(t, invest.RemoveTransaction(tx))
	require.NoError(t, invest.RemoveSecurity(sec))
	assert.Empty(t, invest.Securities())
}

func TestTreeBalance(t *testing.T) {
	rates := commodity.NewRateTable()
	dollar := commodity.NewCurrency("USD")
	euro := commodity.NewCurrency("EUR")
	dollar.SetRateLookup(rates)
	euro.SetRateLookup(rates)
	rates.ExchangeRate(euro, dollar).AddHistory(commodity.RateNode{Date: day.MustParse("2024-01-01"), Rate: dec("1.1")})

	root := NewRootAccount(dollar)
	assets := named(TypeAsset, "Assets", dollar)
	checking := named(TypeChecking, "Checking", dollar)
	abroad := named(TypeBank, "Abroad", euro)
	equity := named(TypeEquity, "Opening", dollar)
	equityEUR := named(TypeEquity, "Opening EUR", euro)
	require.NoError(t, root.AddChild(assets))
	require.NoError(t, assets.AddChild(checking))
	require.NoError(t, assets.AddChild(abroad))

	post(t, transfer("2024-01-01", checking, equity, "5"))
	post(t, transfer("2024-01-01", abroad, equityEUR, "10"))
	post(t, transfer("2024-01-01", assets, equity, "1"))

	assertDec(t, "10", abroad.TreeBalance())
	assertDec(t, "17", assets.TreeBalance())
	assertDec(t, "17", root.TreeBalance())
	assertDec(t, "11", abroad.TreeBalanceIn(dollar))

	want := assets.Balance()
	for _, c := range assets.Children() {
		want = want.Add(c.TreeBalanceIn(dollar))
	}
	assert.True(t, want.Equal(assets.TreeBalance()))

	assertDec(t, "0", assets.TreeBalanceOn(day.MustParse("2023-12-31"), dollar))
	assertDec(t, "17", assets.TreeBalanceBetween(day.MustParse("2024-01-01"), day.MustParse("2024-01-01"), dollar))
}
