package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

func TestAddAccount(t *testing.T) {
	f := newFixture(t)
	f.rec.Reset()
	assets := f.account(t, nil, ledger.TypeAsset, "Assets")
	checking := f.account(t, assets, ledger.TypeChecking, "Checking")

	assert.Equal(t, []*ledger.Account{assets, checking}, f.eng.AccountList())
	assert.Same(t, assets, checking.Parent())
	assert.Equal(t, []events.Event{events.AccountAdd, events.AccountAdd}, f.rec.Events())

	got, ok := f.eng.AccountByPath("assets:checking")
	require.True(t, ok)
	assert.Same(t, checking, got)
	got, ok = f.eng.AccountByName("Assets")
	require.True(t, ok)
	assert.Same(t, assets, got)

	assert.ErrorIs(t, f.eng.AddAccount(assets, checking), ErrContract)
	assert.ErrorIs(t, f.eng.AddAccount(f.eng.RootAccount(), ledger.NewRootAccount(f.eng.DefaultCurrency())), ErrContract)

	stray := ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())
	orphan := ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())
	assert.ErrorIs(t, f.eng.AddAccount(stray, orphan), ErrNotFound)
}

func TestAccountGroups(t *testing.T) {
	f := newFixture(t)
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")
	food := f.account(t, nil, ledger.TypeExpense, "Food")
	broker := f.account(t, nil, ledger.TypeInvest, "Broker")
	f.account(t, nil, ledger.TypeChecking, "Checking")

	assert.Equal(t, []*ledger.Account{salary}, f.eng.IncomeAccountList())
	assert.Equal(t, []*ledger.Account{food}, f.eng.ExpenseAccountList())
	assert.Equal(t, []*ledger.Account{broker}, f.eng.InvestmentAccountList())
}

func TestMoveAccount(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, nil, ledger.TypeAsset, "A")
	b := f.account(t, a, ledger.TypeAsset, "B")
	c := f.account(t, b, ledger.TypeAsset, "C")

	tests := []struct {
		name      string
		acct, dst *ledger.Account
	}{
		{"onto itself", a, a},
		{"under child", a, b},
		{"under grandchild", a, c},
		{"root", f.eng.RootAccount(), a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.eng.MoveAccount(tt.acct, tt.dst), ErrContract)
		})
	}
	assert.Same(t, f.eng.RootAccount(), a.Parent())

	require.NoError(t, f.eng.MoveAccount(c, a))
	assert.Same(t, a, c.Parent())
	assert.False(t, b.Contains(c))
	assert.Equal(t, "A:C", c.PathName(f.eng.AccountSeparator()))
}

func TestModifyAccount(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	income := f.account(t, nil, ledger.TypeIncome, "Salary")

	tmpl := ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())
	tmpl.SetName("Current")
	tmpl.SetDescription("everyday")
	require.NoError(t, f.eng.ModifyAccount(tmpl, checking))
	assert.Equal(t, "Current", checking.Name())
	assert.Equal(t, ledger.TypeBank, checking.Type())
	assert.Equal(t, "everyday", checking.Description())

	invest := ledger.NewAccount(ledger.TypeInvest, f.eng.DefaultCurrency())
	invest.SetName("Current")
	assert.ErrorIs(t, f.eng.ModifyAccount(invest, checking), ErrContract)

	require.NoError(t, f.eng.AddTransaction(transfer("2024-01-05", checking, income, "10")))
	eur := commodity.NewCurrency("EUR")
	require.NoError(t, f.eng.AddCurrency(eur))
	other := ledger.NewAccount(ledger.TypeBank, eur)
	other.SetName("Current")
	requireRule(t, f.eng.ModifyAccount(other, checking), RuleImmutableCurrency)

	holder := ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())
	holder.SetName("Current")
	holder.SetPlaceholder(true)
	requireRule(t, f.eng.ModifyAccount(holder, checking), RulePlaceholder)
}

func TestRemoveAccount_Rules(t *testing.T) {
	f := newFixture(t)
	parent := f.account(t, nil, ledger.TypeAsset, "Parent")
	f.account(t, parent, ledger.TypeBank, "Child")
	busy := f.account(t, nil, ledger.TypeBank, "Busy")
	income := f.account(t, nil, ledger.TypeIncome, "Salary")
	require.NoError(t, f.eng.AddTransaction(transfer("2024-01-05", busy, income, "10")))

	requireRule(t, f.eng.RemoveAccount(parent), RuleHasChildren)
	requireRule(t, f.eng.RemoveAccount(busy), RuleHasTransactions)
	assert.ErrorIs(t, f.eng.RemoveAccount(f.eng.RootAccount()), ErrContract)
}

func TestAccountSetters(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, nil, ledger.TypeBank, "Bank")

	require.NoError(t, f.eng.SetAccountNumber(a, "42-1"))
	assert.Equal(t, "42-1", a.AccountNumber())

	f.rec.Reset()
	require.NoError(t, f.eng.ToggleAccountVisibility(a))
	assert.False(t, a.Visible())
	assert.Equal(t, []events.Event{events.AccountVisibilityChange}, f.rec.Events())

	require.NoError(t, f.eng.SetAccountAttribute(a, "color", "blue"))
	v, ok := a.Attribute("color")
	require.True(t, ok)
	assert.Equal(t, "blue", v)
	require.NoError(t, f.eng.SetAccountAttribute(a, "color", ""))
	_, ok = a.Attribute("color")
	assert.False(t, ok)
}

func TestUpdateAccountSecurities(t *testing.T) {
	f := newFixture(t)
	broker := f.account(t, nil, ledger.TypeInvest, "Broker")
	bank := f.account(t, nil, ledger.TypeBank, "Bank")
	acme := commodity.NewSecurity("ACME", f.eng.DefaultCurrency())
	require.NoError(t, f.eng.AddSecurity(acme))

	f.rec.Reset()
	require.NoError(t, f.eng.UpdateAccountSecurities(broker, []*commodity.Security{acme}))
	assert.True(t, broker.ContainsSecurity(acme))
	assert.Equal(t, []events.Event{events.AccountSecurityAdd, events.AccountModify}, f.rec.Events())

	requireRule(t, f.eng.UpdateAccountSecurities(bank, []*commodity.Security{acme}), RuleInvalidValue)

	f.rec.Reset()
	require.NoError(t, f.eng.UpdateAccountSecurities(broker, nil))
	assert.False(t, broker.ContainsSecurity(acme))
	assert.Equal(t, []events.Event{events.AccountSecurityRemove, events.AccountModify}, f.rec.Events())
}
