package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/stored"
)

func TestMemory_AddAndList(t *testing.T) {
	m := NewMemory()
	usd := commodity.NewCurrency("USD")
	root := ledger.NewRootAccount(usd)
	bank := ledger.NewAccount(ledger.TypeBank, usd)

	require.NoError(t, m.AddCurrency(usd))
	require.NoError(t, m.AddAccount(root))
	require.NoError(t, m.AddAccount(bank))
	assert.ErrorIs(t, m.AddAccount(bank), ErrDuplicate)

	assert.Equal(t, []*ledger.Account{root, bank}, m.Accounts())
	assert.Equal(t, []*ledger.Account{root}, m.RootAccounts())
	assert.Equal(t, []*commodity.Currency{usd}, m.Currencies())
	assert.Empty(t, m.Securities())

	o, ok := m.ObjectByID(bank.ID)
	require.True(t, ok)
	assert.Same(t, bank, o)
	assert.True(t, m.Contains(usd.ID))

	require.NoError(t, m.UpdateAccount(bank))
	assert.ErrorIs(t, m.UpdateAccount(ledger.NewAccount(ledger.TypeCash, usd)), ErrMissing)
	require.NoError(t, m.UpdateCommodity(usd))
}

func TestMemory_Trash(t *testing.T) {
	m := NewMemory()
	tag := ledger.NewTag("vacation")
	require.NoError(t, m.AddTag(tag))

	trash := stored.NewTrashObject(tag, time.Now())
	require.NoError(t, m.AddTrash(trash))
	assert.Empty(t, m.Tags(), "trashed objects leave the lists")
	_, ok := m.ObjectByID(tag.ID)
	assert.True(t, ok, "but stay reachable until purged")
	assert.Equal(t, []*stored.TrashObject{trash}, m.TrashObjects())

	require.NoError(t, m.PurgeTrash(trash))
	_, ok = m.ObjectByID(tag.ID)
	assert.False(t, ok)
	assert.Empty(t, m.TrashObjects())
	assert.ErrorIs(t, m.PurgeTrash(trash), ErrMissing)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.AddTag(ledger.NewTag("x")), ErrClosed)
}

func TestKind(t *testing.T) {
	usd := commodity.NewCurrency("USD")
	tests := []struct {
		obj  stored.Object
		want string
	}{
		{ledger.NewAccount(ledger.TypeBank, usd), "account"},
		{usd, "currency"},
		{commodity.NewSecurity("ACME", usd), "security"},
		{commodity.NewExchangeRate("EURUSD"), "rate"},
		{ledger.NewTransaction(day.Today()), "transaction"},
		{budget.New("b"), "budget"},
		{reminder.New("r", reminder.Once, day.Today()), "reminder"},
		{ledger.NewTag("t"), "tag"},
		{ledger.NewConfig(usd), "config"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.obj))
	}
	assert.NotEqual(t, id.Nil, tests[0].obj.StoredID())
}
