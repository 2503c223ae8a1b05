package reminder

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

func dates(ss ...string) []day.Date {
	var out []day.Date
	for _, s := range ss {
		out = append(out, day.MustParse(s))
	}
	return out
}

func TestNextDates(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		inc  int
		end  string
		want []day.Date
	}{
		{"once", Once, 1, "", dates("2024-01-31")},
		{"daily by two", Daily, 2, "", dates("2024-01-31", "2024-02-02", "2024-02-04", "2024-02-06")},
		{"weekly", Weekly, 1, "", dates("2024-01-31", "2024-02-07")},
		{"monthly", Monthly, 1, "", dates("2024-01-31")},
		{"yearly", Yearly, 1, "", dates("2024-01-31")},
		{"ended", Daily, 1, "2024-02-01", dates("2024-01-31", "2024-02-01")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("rent", tt.typ, day.MustParse("2024-01-31"))
			r.Increment = tt.inc
			if tt.end != "" {
				r.End = day.MustParse(tt.end)
			}
			assert.Equal(t, tt.want, r.NextDates(day.MustParse("2024-02-07")))
		})
	}
}

func TestMonthEndNormalizes(t *testing.T) {
	r := New("card", Monthly, day.MustParse("2024-01-31"))
	assert.Equal(t, dates("2024-01-31", "2024-03-02"), r.NextDates(day.MustParse("2024-03-05")))
}

func TestAdvanceAndPending(t *testing.T) {
	r := New("paycheck", Weekly, day.MustParse("2024-01-05"))
	r.DaysAdvance = 3

	assert.Equal(t, dates("2024-01-05"), r.Pending(day.MustParse("2024-01-02")))
	assert.Empty(t, r.Pending(day.MustParse("2024-01-01")))

	require.True(t, r.Advance())
	assert.Equal(t, day.MustParse("2024-01-05"), r.Last)
	next, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, day.MustParse("2024-01-12"), next)
	assert.Empty(t, r.Pending(day.MustParse("2024-01-08")))

	r.Enabled = false
	assert.Empty(t, r.Pending(day.MustParse("2024-02-01")))
}

func TestOnceIsDoneAfterAdvance(t *testing.T) {
	r := New("tax", Once, day.MustParse("2024-04-15"))
	require.True(t, r.Advance())
	_, ok := r.Next()
	assert.False(t, ok)
	assert.False(t, r.Advance())
}

func TestTemplate(t *testing.T) {
	usd := commodity.NewCurrency("USD")
	bank := ledger.NewAccount(ledger.TypeBank, usd)
	rent := ledger.NewAccount(ledger.TypeExpense, usd)
	tx := ledger.NewTransaction(day.MustParse("2024-01-01"))
	require.NoError(t, tx.AddEntry(ledger.NewEntry(rent, bank, decimal.NewFromInt(900))))

	r := New("rent", Monthly, day.MustParse("2024-01-01"))
	assert.Nil(t, r.Template(day.MustParse("2024-02-01")))

	r.Transaction = tx
	got := r.Template(day.MustParse("2024-02-01"))
	require.NotNil(t, got)
	assert.Equal(t, day.MustParse("2024-02-01"), got.Date)
	assert.NotEqual(t, tx.ID, got.ID)
	assert.True(t, ledger.EqualsIgnoreDate(tx, got))
}

func TestValidate(t *testing.T) {
	r := New("rent", Monthly, day.MustParse("2024-01-01"))
	require.NoError(t, r.Validate())

	r.End = day.MustParse("2023-01-01")
	assert.Error(t, r.Validate())

	r = New(" ", Monthly, day.MustParse("2024-01-01"))
	assert.Error(t, r.Validate())
}
