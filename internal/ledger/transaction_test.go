package ledger

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/day"
)

func TestSingleEntry(t *testing.T) {
	cash := named(TypeCash, "Wallet", usd())
	e := NewSingleEntry(cash, dec("-12.50"))

	assert.True(t, e.IsSingleEntry())
	assertDec(t, "-12.50", e.Amount(cash))
	assert.Equal(t, e.CreditAmount, e.DebitAmount)

	tx := NewTransaction(day.MustParse("2024-03-01"))
	require.NoError(t, tx.AddEntry(e))
	assert.Equal(t, SingleEntry, tx.Type())
	assertDec(t, "-12.50", tx.Amount(cash))
}

func TestTransactionType(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	food := named(TypeExpense, "Food", usd())
	fuel := named(TypeExpense, "Fuel", usd())

	tx := NewTransaction(day.MustParse("2024-03-01"))
	assert.Equal(t, Invalid, tx.Type())

	require.NoError(t, tx.AddEntry(NewEntry(food, bank, dec("10"))))
	assert.Equal(t, DoubleEntry, tx.Type())
	assert.Equal(t, food, tx.CommonAccount())

	require.NoError(t, tx.AddEntry(NewEntry(fuel, bank, dec("20"))))
	assert.Equal(t, SplitEntry, tx.Type())
	assert.Equal(t, bank, tx.CommonAccount())
	assertDec(t, "-30", tx.Amount(bank))
	assert.Equal(t, []*Account{bank, food, fuel}, tx.Accounts())
}

func TestMemoConcatenation(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	food := named(TypeExpense, "Food", usd())
	tx := NewTransaction(day.MustParse("2024-03-01"))
	for _, memo := range []string{"bread", "", "milk"} {
		e := NewEntry(food, bank, dec("1"))
		e.Memo = memo
		require.NoError(t, tx.AddEntry(e))
	}

	tx.SetMemo("groceries")
	assert.Equal(t, "groceries", tx.Memo())

	tx.SetMemo(ConcatenateMemos)
	assert.Equal(t, "bread, milk", tx.Memo())
	assert.Equal(t, ConcatenateMemos, tx.RawMemo())
}

func TestCompare(t *testing.T) {
	a := NewTransaction(day.MustParse("2024-01-01"))
	b := NewTransaction(day.MustParse("2024-01-02"))
	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))

	c := NewTransaction(day.MustParse("2024-01-01"))
	c.Number = "100"
	d := NewTransaction(day.MustParse("2024-01-01"))
	d.Number = "20"
	assert.Negative(t, Compare(c, d), "numbers compare as strings")

	// timestamps compare unsigned
	e := NewTransaction(day.MustParse("2024-01-01"))
	f := NewTransaction(day.MustParse("2024-01-01"))
	e.Timestamp = -1
	f.Timestamp = 1
	assert.Positive(t, Compare(e, f))

	g := NewTransaction(day.MustParse("2024-01-01"))
	h := NewTransaction(day.MustParse("2024-01-01"))
	h.Timestamp = g.Timestamp
	assert.NotZero(t, Compare(g, h), "id breaks the tie")
	assert.Equal(t, -Compare(g, h), Compare(h, g))
}

func TestCompare_Investment(t *testing.T) {
	invest, _, sec := brokerage(t)
	date := day.MustParse("2024-02-01")

	sell, err := NewTrade(Trade{Type: SellShare, Date: date, Security: sec, Invest: invest, Quantity: dec("1"), Price: dec("10")})
	require.NoError(t, err)
	buy, err := NewTrade(Trade{Type: BuyShare, Date: date, Security: sec, Invest: invest, Quantity: dec("1"), Price: dec("10")})
	require.NoError(t, err)

	assert.Negative(t, Compare(buy, sell), "BUYSHARE sorts before SELLSHARE")
}

func TestSortedOrderIsStable(t *testing.T) {
	var txs []*Transaction
	for i, d := range []string{"2024-01-03", "2024-01-01", "2024-01-02", "2024-01-01", "2024-01-03"} {
		tx := NewTransaction(day.MustParse(d))
		tx.Number = []string{"", "1", "2"}[i%3]
		txs = append(txs, tx)
	}

	first := slices.Clone(txs)
	slices.SortFunc(first, Compare)

	second := slices.Clone(txs)
	rand.New(rand.NewSource(7)).Shuffle(len(second), func(i, j int) { second[i], second[j] = second[j], second[i] })
	slices.SortFunc(second, Compare)

	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.Negative(t, Compare(first[i-1], first[i]))
	}
}

func TestClone(t *testing.T) {
	bank := named(TypeBank, "Bank", usd())
	food := named(TypeExpense, "Food", usd())
	tx := transfer("2024-01-05", food, bank, "25")
	tx.Payee = "Market"
	tx.Number = "42"

	c := tx.Clone()
	assert.NotEqual(t, tx.ID, c.ID)
	assert.Equal(t, tx.Date, c.Date)
	assert.Greater(t, c.Timestamp, tx.Timestamp)
	assert.True(t, EqualsIgnoreDate(tx, c))
	require.Len(t, c.Entries(), 1)
	assert.NotEqual(t, tx.Entries()[0].ID, c.Entries()[0].ID)

	c.SetReconciled(bank, Reconciled)
	assert.Equal(t, NotReconciled, tx.Reconciled(bank), "clone entries are independent")
	assert.Equal(t, Reconciled, c.Reconciled(bank))
	assert.Equal(t, NotReconciled, c.Reconciled(food))
}

func TestAddEntry_InvestmentMismatch(t *testing.T) {
	invest, _, sec := brokerage(t)
	tx, err := NewTrade(Trade{Type: AddShare, Date: day.MustParse("2024-01-01"), Security: sec, Invest: invest, Quantity: dec("1"), Price: dec("1")})
	require.NoError(t, err)

	stray := NewSingleEntry(invest, dec("0"))
	stray.Investment = &InvestmentDetail{Type: RemoveShare, Security: sec}
	assert.ErrorIs(t, tx.AddEntry(stray), ErrEntryMismatch)

	plain := NewTransaction(day.MustParse("2024-01-01"))
	assert.ErrorIs(t, plain.AddEntry(stray), ErrEntryMismatch)
}
