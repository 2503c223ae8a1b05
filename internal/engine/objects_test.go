package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
)

func TestBudgets(t *testing.T) {
	f := newFixture(t)
	food := f.account(t, nil, ledger.TypeExpense, "Food")

	b := budget.New("Household")
	require.NoError(t, f.eng.AddBudget(b))
	requireRule(t, f.eng.AddBudget(b), RuleDuplicateID)
	requireRule(t, f.eng.AddBudget(budget.New(" ")), RuleInvalidValue)

	goal := budget.NewGoal(budget.Monthly)
	goal.Set(0, 11, dec("1200"), false)
	require.NoError(t, f.eng.UpdateBudgetGoal(b, food.ID, goal))
	assert.Same(t, goal, b.Goal(food.ID))

	tmpl := budget.New("Household 2024")
	tmpl.AssetsIncluded = true
	require.NoError(t, f.eng.UpdateBudget(b, tmpl))
	assert.Equal(t, "Household 2024", b.Name)
	assert.True(t, b.AssetsIncluded)
	assert.True(t, b.HasGoal(food.ID), "goals survive an update")

	f.rec.Reset()
	require.NoError(t, f.eng.RemoveBudget(b))
	assert.Empty(t, f.eng.Budgets())
	assert.Equal(t, []events.Event{events.BudgetRemove}, f.rec.Events())
}

func TestReminders(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")

	r := reminder.New("Rent", reminder.Monthly, day.MustParse("2024-01-01"))
	r.Account = checking
	require.NoError(t, f.eng.AddReminder(r))
	assert.Equal(t, []*reminder.Reminder{r}, f.eng.Reminders())
	assert.Equal(t, []*reminder.Reminder{r}, f.eng.PendingReminders(day.MustParse("2024-01-01")))

	stray := reminder.New("Gym", reminder.Monthly, day.MustParse("2024-01-01"))
	stray.Account = ledger.NewAccount(ledger.TypeBank, f.eng.DefaultCurrency())
	requireRule(t, f.eng.AddReminder(stray), RuleUnknownAccount)

	tmpl := reminder.New("Rent", reminder.Monthly, day.MustParse("2024-02-01"))
	tmpl.DaysAdvance = 3
	require.NoError(t, f.eng.UpdateReminder(r, tmpl))
	assert.Equal(t, day.MustParse("2024-02-01"), r.Start)
	assert.Equal(t, 3, r.DaysAdvance)

	bad := reminder.New("", reminder.Monthly, day.MustParse("2024-02-01"))
	requireRule(t, f.eng.UpdateReminder(r, bad), RuleInvalidValue)
	assert.Equal(t, "Rent", r.Description)

	require.NoError(t, f.eng.RemoveReminder(r))
	assert.Empty(t, f.eng.Reminders())
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, nil, ledger.TypeChecking, "Checking")
	salary := f.account(t, nil, ledger.TypeIncome, "Salary")

	work := ledger.NewTag("work")
	require.NoError(t, f.eng.AddTag(work))
	requireRule(t, f.eng.AddTag(ledger.NewTag("WORK")), RuleDuplicateName)
	requireRule(t, f.eng.AddTag(ledger.NewTag("")), RuleInvalidValue)

	home := ledger.NewTag("home")
	require.NoError(t, f.eng.AddTag(home))
	requireRule(t, f.eng.UpdateTag(home, ledger.NewTag("Work")), RuleDuplicateName)

	tmpl := ledger.NewTag("Job")
	tmpl.Color = "#00ff00"
	require.NoError(t, f.eng.UpdateTag(work, tmpl))
	assert.Equal(t, "Job", work.Name)
	assert.Equal(t, "#00ff00", work.Color)
	assert.Equal(t, []*ledger.Tag{home, work}, f.eng.Tags())

	tx := transfer("2024-01-05", checking, salary, "100")
	tx.Entries()[0].Tags = []*ledger.Tag{work}
	require.NoError(t, f.eng.AddTransaction(tx))
	requireRule(t, f.eng.RemoveTag(work), RuleInUse)

	require.NoError(t, f.eng.RemoveTag(home))
	assert.Equal(t, []*ledger.Tag{work}, f.eng.Tags())
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	assets := f.account(t, nil, ledger.TypeAsset, "Assets")
	f.account(t, assets, ledger.TypeBank, "Bank")

	f.rec.Reset()
	require.NoError(t, f.eng.SetAccountSeparator("/"))
	assert.Equal(t, "/", f.eng.AccountSeparator())
	_, ok := f.eng.AccountByPath("Assets/Bank")
	assert.True(t, ok)
	assert.Equal(t, []events.Event{events.ConfigModify}, f.rec.Events())

	requireRule(t, f.eng.SetAccountSeparator(""), RuleInvalidValue)

	require.NoError(t, f.eng.SetTransactionNumberList([]string{"ATM", " CHK ", "ATM", ""}))
	assert.Equal(t, []string{"ATM", "CHK"}, f.eng.TransactionNumberList())

	require.NoError(t, f.eng.SetUpdateOnStartup(true, false))
	cfg := f.eng.Config()
	assert.True(t, cfg.UpdateSecuritiesOnStart)
	assert.False(t, cfg.UpdateRatesOnStart)
}
