package engine

import (
	"slices"
	"strings"
	"time"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
)

// Budgets

func (e *Engine) AddBudget(b *budget.Budget) error {
	return e.mutate(events.ChannelBudget, events.BudgetAdd, events.BudgetAddFailed, events.PropBudget, b, func(*batch) error {
		if b == nil {
			return contract("budget is required")
		}
		if err := b.Validate(); err != nil {
			return invalid(RuleInvalidValue, b.ID.String(), "%v", err)
		}
		if e.known(b.ID) {
			return invalid(RuleDuplicateID, b.ID.String(), "budget %s already stored", b.Name)
		}
		return persist(e.store.AddBudget(b))
	})
}

type budgetFields struct {
	name, description                     string
	period                                budget.Period
	startMonth                            time.Month
	roundingScale                         int32
	assets, income, expenses, liabilities bool
}

func snapshotBudget(b *budget.Budget) budgetFields {
	return budgetFields{
		name: b.Name, description: b.Description, period: b.Period,
		startMonth: b.StartMonth, roundingScale: b.RoundingScale,
		assets: b.AssetsIncluded, income: b.IncomeIncluded,
		expenses: b.ExpensesIncluded, liabilities: b.LiabilitiesIncluded,
	}
}

func (f budgetFields) apply(b *budget.Budget) {
	b.Name, b.Description, b.Period = f.name, f.description, f.period
	b.StartMonth = f.startMonth
	b.RoundingScale = f.roundingScale
	b.AssetsIncluded, b.IncomeIncluded = f.assets, f.income
	b.ExpensesIncluded, b.LiabilitiesIncluded = f.expenses, f.liabilities
}

// UpdateBudget copies the settings of template onto b. Goals are kept.
func (e *Engine) UpdateBudget(b, template *budget.Budget) error {
	return e.mutate(events.ChannelBudget, events.BudgetUpdate, events.BudgetUpdateFailed, events.PropBudget, b, func(*batch) error {
		if b == nil || template == nil {
			return contract("budget and template are required")
		}
		if !e.known(b.ID) {
			return notFound("budget %s", b.Name)
		}
		if err := template.Validate(); err != nil {
			return invalid(RuleInvalidValue, b.ID.String(), "%v", err)
		}
		old := snapshotBudget(b)
		snapshotBudget(template).apply(b)
		if err := e.store.UpdateBudget(b); err != nil {
			old.apply(b)
			return persist(err)
		}
		return nil
	})
}

// UpdateBudgetGoal replaces the goal of account in b.
func (e *Engine) UpdateBudgetGoal(b *budget.Budget, account id.ID, g *budget.Goal) error {
	return e.mutate(events.ChannelBudget, events.BudgetGoalUpdate, events.BudgetGoalUpdateFailed, events.PropBudget, b, func(*batch) error {
		if b == nil || g == nil {
			return contract("budget and goal are required")
		}
		if !e.known(b.ID) {
			return notFound("budget %s", b.Name)
		}
		if !e.known(account) {
			return notFound("account %s", account)
		}
		var prev *budget.Goal
		if b.HasGoal(account) {
			prev = b.Goal(account)
		}
		b.SetGoal(account, g)
		if err := e.store.UpdateBudget(b); err != nil {
			if prev != nil {
				b.SetGoal(account, prev)
			} else {
				b.RemoveGoal(account)
			}
			return persist(err)
		}
		return nil
	})
}

func (e *Engine) RemoveBudget(b *budget.Budget) error {
	return e.mutate(events.ChannelBudget, events.BudgetRemove, events.BudgetRemoveFailed, events.PropBudget, b, func(*batch) error {
		if b == nil || !e.known(b.ID) {
			return notFound("budget")
		}
		return e.trash(b)
	})
}

// Reminders

func (e *Engine) AddReminder(r *reminder.Reminder) error {
	return e.mutate(events.ChannelReminder, events.ReminderAdd, events.ReminderAddFailed, events.PropReminder, r, func(*batch) error {
		if r == nil {
			return contract("reminder is required")
		}
		if err := r.Validate(); err != nil {
			return invalid(RuleInvalidValue, r.ID.String(), "%v", err)
		}
		if e.known(r.ID) {
			return invalid(RuleDuplicateID, r.ID.String(), "reminder %s already stored", r.Description)
		}
		if r.Account != nil && !e.known(r.Account.ID) {
			return invalid(RuleUnknownAccount, r.ID.String(), "reminder account %s is not in the ledger", r.Account.Name())
		}
		return persist(e.store.AddReminder(r))
	})
}

type reminderFields struct {
	description, notes     string
	typ                    reminder.Type
	increment, daysAdvance int
	start, end, last       day.Date
	autoCreate, enabled    bool
	account                *ledger.Account
	transaction            *ledger.Transaction
}

func snapshotReminder(r *reminder.Reminder) reminderFields {
	return reminderFields{
		description: r.Description, notes: r.Notes, typ: r.Type, increment: r.Increment,
		start: r.Start, end: r.End, last: r.Last, daysAdvance: r.DaysAdvance,
		autoCreate: r.AutoCreate, enabled: r.Enabled, account: r.Account, transaction: r.Transaction,
	}
}

func (f reminderFields) apply(r *reminder.Reminder) {
	r.Description, r.Notes, r.Type, r.Increment = f.description, f.notes, f.typ, f.increment
	r.Start, r.End, r.Last, r.DaysAdvance = f.start, f.end, f.last, f.daysAdvance
	r.AutoCreate, r.Enabled, r.Account, r.Transaction = f.autoCreate, f.enabled, f.account, f.transaction
}

// UpdateReminder copies the schedule and template of template onto r.
func (e *Engine) UpdateReminder(r, template *reminder.Reminder) error {
	return e.mutate(events.ChannelReminder, events.ReminderUpdate, events.ReminderUpdateFailed, events.PropReminder, r, func(*batch) error {
		if r == nil || template == nil {
			return contract("reminder and template are required")
		}
		if !e.known(r.ID) {
			return notFound("reminder %s", r.Description)
		}
		if err := template.Validate(); err != nil {
			return invalid(RuleInvalidValue, r.ID.String(), "%v", err)
		}
		old := snapshotReminder(r)
		snapshotReminder(template).apply(r)
		if err := e.store.UpdateReminder(r); err != nil {
			old.apply(r)
			return persist(err)
		}
		return nil
	})
}

func (e *Engine) RemoveReminder(r *reminder.Reminder) error {
	return e.mutate(events.ChannelReminder, events.ReminderRemove, events.ReminderRemoveFailed, events.PropReminder, r, func(*batch) error {
		if r == nil || !e.known(r.ID) {
			return notFound("reminder")
		}
		return e.trash(r)
	})
}

// Tags

func (e *Engine) findTag(name string) *ledger.Tag {
	for _, t := range e.store.Tags() {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// AddTag stores t. Tag names are unique ignoring case.
func (e *Engine) AddTag(t *ledger.Tag) error {
	return e.mutate(events.ChannelTag, events.TagAdd, events.TagAddFailed, events.PropTag, t, func(*batch) error {
		if t == nil {
			return contract("tag is required")
		}
		if strings.TrimSpace(t.Name) == "" {
			return invalid(RuleInvalidValue, t.ID.String(), "tag name is empty")
		}
		if e.findTag(t.Name) != nil {
			return invalid(RuleDuplicateName, t.Name, "tag %s already exists", t.Name)
		}
		return persist(e.store.AddTag(t))
	})
}

// UpdateTag copies the name, color and description of template onto t.
func (e *Engine) UpdateTag(t, template *ledger.Tag) error {
	return e.mutate(events.ChannelTag, events.TagModify, events.TagModifyFailed, events.PropTag, t, func(*batch) error {
		if t == nil || template == nil {
			return contract("tag and template are required")
		}
		if !e.known(t.ID) {
			return notFound("tag %s", t.Name)
		}
		if strings.TrimSpace(template.Name) == "" {
			return invalid(RuleInvalidValue, t.ID.String(), "tag name is empty")
		}
		if other := e.findTag(template.Name); other != nil && other != t {
			return invalid(RuleDuplicateName, template.Name, "tag %s already exists", template.Name)
		}
		name, color, desc := t.Name, t.Color, t.Description
		t.Name, t.Color, t.Description = strings.TrimSpace(template.Name), template.Color, template.Description
		if err := e.store.UpdateTag(t); err != nil {
			t.Name, t.Color, t.Description = name, color, desc
			return persist(err)
		}
		return nil
	})
}

// RemoveTag trashes t. A tag still attached to an entry cannot be removed.
func (e *Engine) RemoveTag(t *ledger.Tag) error {
	return e.mutate(events.ChannelTag, events.TagRemove, events.TagRemoveFailed, events.PropTag, t, func(*batch) error {
		if t == nil || !e.known(t.ID) {
			return notFound("tag")
		}
		for _, tx := range e.store.Transactions() {
			if slices.ContainsFunc(tx.Entries(), func(en *ledger.Entry) bool { return en.HasTag(t) }) {
				return invalid(RuleInUse, t.Name, "tag %s is used by a transaction dated %s", t.Name, tx.Date)
			}
		}
		return e.trash(t)
	})
}

// Settings

// updateConfig applies fn to the settings and persists them, restoring the
// previous values when the store refuses.
func (e *Engine) updateConfig(fn func(*ledger.Config)) error {
	old := e.config.Clone()
	fn(e.config)
	if err := e.store.UpdateConfig(e.config); err != nil {
		restoreConfig(e.config, old)
		return persist(err)
	}
	return nil
}

// SetAccountSeparator changes the string joining account path names.
func (e *Engine) SetAccountSeparator(sep string) error {
	return e.mutate(events.ChannelConfig, events.ConfigModify, events.ConfigModifyFailed, events.PropConfig, sep, func(*batch) error {
		if sep == "" {
			return invalid(RuleInvalidValue, "separator", "account separator is empty")
		}
		return e.updateConfig(func(c *ledger.Config) { c.AccountSeparator = sep })
	})
}

// SetTransactionNumberList replaces the list offered for transaction numbers.
func (e *Engine) SetTransactionNumberList(numbers []string) error {
	return e.mutate(events.ChannelConfig, events.ConfigModify, events.ConfigModifyFailed, events.PropConfig, numbers, func(*batch) error {
		var clean []string
		for _, n := range numbers {
			if n = strings.TrimSpace(n); n != "" && !slices.Contains(clean, n) {
				clean = append(clean, n)
			}
		}
		return e.updateConfig(func(c *ledger.Config) { c.TransactionNumbers = clean })
	})
}

// SetUpdateOnStartup toggles the automatic quote and rate updates run
// shortly after the engine opens.
func (e *Engine) SetUpdateOnStartup(securities, rates bool) error {
	return e.mutate(events.ChannelConfig, events.ConfigModify, events.ConfigModifyFailed, events.PropConfig, securities, func(*batch) error {
		return e.updateConfig(func(c *ledger.Config) {
			c.UpdateSecuritiesOnStart = securities
			c.UpdateRatesOnStart = rates
		})
	})
}

func restoreConfig(c, from *ledger.Config) {
	c.FileVersion = from.FileVersion
	c.DefaultCurrency = from.DefaultCurrency
	c.AccountSeparator = from.AccountSeparator
	c.TransactionNumbers = from.TransactionNumbers
	c.UpdateSecuritiesOnStart = from.UpdateSecuritiesOnStart
	c.UpdateRatesOnStart = from.UpdateRatesOnStart
	c.LastSecuritiesUpdate = from.LastSecuritiesUpdate
	c.LastRatesUpdate = from.LastRatesUpdate
}
