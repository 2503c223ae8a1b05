package engine

import (
	"errors"
	"slices"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// AddAccount attaches child under parent and stores it.
func (e *Engine) AddAccount(parent, child *ledger.Account) error {
	return e.mutate(events.ChannelAccount, events.AccountAdd, events.AccountAddFailed, events.PropAccount, child, func(*batch) error {
		switch {
		case parent == nil || child == nil:
			return contract("account and parent are required")
		case child.IsRoot():
			return contract("a second root account cannot be added")
		case e.known(child.ID):
			return contract("account %s already exists", child.ID)
		case !e.known(parent.ID):
			return notFound("parent account %s", parent.ID)
		case child.Currency() == nil:
			return invalid(RuleInvalidValue, child.ID.String(), "account %s has no currency", child.Name())
		}
		if err := parent.AddChild(child); err != nil {
			return contract("%v", err)
		}
		if err := e.store.AddAccount(child); err != nil {
			parent.RemoveChild(child)
			return persist(err)
		}
		return nil
	})
}

// accountFields is the editable state of an account.
type accountFields struct {
	name, description, notes, number, bankID string
	code                                     int
	typ                                      ledger.AccountType
	currency                                 *commodity.Currency
	locked, placeholder, visible, excluded   bool
}

func fieldsOf(a *ledger.Account) accountFields {
	return accountFields{
		name:        a.Name(),
		description: a.Description(),
		notes:       a.Notes(),
		number:      a.AccountNumber(),
		bankID:      a.BankID(),
		code:        a.AccountCode(),
		typ:         a.Type(),
		currency:    a.Currency(),
		locked:      a.Locked(),
		placeholder: a.Placeholder(),
		visible:     a.Visible(),
		excluded:    a.ExcludedFromBudget(),
	}
}

func (f accountFields) apply(a *ledger.Account) error {
	if a.Type() != f.typ {
		if err := a.SetType(f.typ); err != nil {
			return err
		}
	}
	a.SetName(f.name)
	a.SetDescription(f.description)
	a.SetNotes(f.notes)
	a.SetAccountNumber(f.number)
	a.SetBankID(f.bankID)
	a.SetAccountCode(f.code)
	a.SetCurrency(f.currency)
	a.SetLocked(f.locked)
	a.SetPlaceholder(f.placeholder)
	a.SetVisible(f.visible)
	a.SetExcludedFromBudget(f.excluded)
	return nil
}

// ModifyAccount copies the editable fields of template onto a.
func (e *Engine) ModifyAccount(template, a *ledger.Account) error {
	return e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(*batch) error {
		if template == nil || a == nil {
			return contract("account and template are required")
		}
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		want := fieldsOf(template)
		old := fieldsOf(a)
		if want.typ != old.typ && (!want.typ.Mutable() || !old.typ.Mutable()) {
			return contract("%v: %s to %s", ledger.ErrImmutableType, old.typ, want.typ)
		}
		if want.currency != old.currency && a.TransactionCount() > 0 {
			return invalid(RuleImmutableCurrency, a.ID.String(), "account %s has transactions; its currency cannot change", a.Name())
		}
		if want.placeholder && !old.placeholder && a.TransactionCount() > 0 {
			return invalid(RulePlaceholder, a.ID.String(), "account %s has transactions and cannot become a placeholder", a.Name())
		}
		if want.currency == nil {
			return invalid(RuleInvalidValue, a.ID.String(), "account needs a currency")
		}
		if err := want.apply(a); err != nil {
			return contract("%v", err)
		}
		if err := e.store.UpdateAccount(a); err != nil {
			if rerr := old.apply(a); rerr != nil {
				e.log.Error().Err(rerr).Str("account", a.ID.String()).Msg("rollback failed")
			}
			return persist(err)
		}
		a.ClearCachedBalances()
		return nil
	})
}

// MoveAccount makes newParent the parent of a. Moving an account under
// itself or one of its descendants is a contract violation.
func (e *Engine) MoveAccount(a, newParent *ledger.Account) error {
	return e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(*batch) error {
		switch {
		case a == nil || newParent == nil:
			return contract("account and parent are required")
		case a.IsRoot():
			return contract("the root account cannot move")
		case newParent == a || newParent.IsDescendantOf(a):
			return contract("%s cannot move under its own descendant %s", a.Name(), newParent.Name())
		case !e.known(a.ID):
			return notFound("account %s", a.ID)
		case !e.known(newParent.ID):
			return notFound("account %s", newParent.ID)
		}
		old := a.Parent()
		if old == newParent {
			return nil
		}
		if err := a.SetParent(newParent); err != nil {
			return contract("%v", err)
		}
		if err := e.store.UpdateAccount(a); err != nil {
			if old != nil {
				_ = a.SetParent(old)
			}
			return persist(err)
		}
		return nil
	})
}

// RemoveAccount moves an empty account to the trash and drops its budget goals.
func (e *Engine) RemoveAccount(a *ledger.Account) error {
	return e.mutate(events.ChannelAccount, events.AccountRemove, events.AccountRemoveFailed, events.PropAccount, a, func(b *batch) error {
		switch {
		case a == nil:
			return contract("account is required")
		case a.IsRoot():
			return contract("the root account cannot be removed")
		case !e.known(a.ID):
			return notFound("account %s", a.ID)
		case a.ChildCount() > 0:
			return invalid(RuleHasChildren, a.ID.String(), "account %s has child accounts", a.Name())
		case a.TransactionCount() > 0:
			return invalid(RuleHasTransactions, a.ID.String(), "account %s has transactions", a.Name())
		}
		if err := e.trash(a); err != nil {
			return err
		}
		if p := a.Parent(); p != nil {
			p.RemoveChild(a)
		}

		var errs []error
		for _, bg := range e.store.Budgets() {
			if !bg.HasGoal(a.ID) {
				continue
			}
			goal := bg.Goal(a.ID).Clone()
			bg.RemoveGoal(a.ID)
			if err := e.store.UpdateBudget(bg); err != nil {
				bg.SetGoal(a.ID, goal)
				errs = append(errs, persist(err))
				continue
			}
			b.add(events.ChannelBudget, events.BudgetGoalUpdate, events.PropBudget, bg)
		}
		return errors.Join(errs...)
	})
}

// SetAccountNumber changes the account number of a.
func (e *Engine) SetAccountNumber(a *ledger.Account, number string) error {
	return e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(*batch) error {
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		old := a.AccountNumber()
		a.SetAccountNumber(number)
		if err := e.store.UpdateAccount(a); err != nil {
			a.SetAccountNumber(old)
			return persist(err)
		}
		return nil
	})
}

// ToggleAccountVisibility flips whether a is shown.
func (e *Engine) ToggleAccountVisibility(a *ledger.Account) error {
	return e.mutate(events.ChannelAccount, events.AccountVisibilityChange, events.AccountVisibilityChangeFailed, events.PropAccount, a, func(*batch) error {
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		old := a.Visible()
		a.SetVisible(!old)
		if err := e.store.UpdateAccount(a); err != nil {
			a.SetVisible(old)
			return persist(err)
		}
		return nil
	})
}

// SetAccountAttribute stores value under key. An empty value removes the key.
func (e *Engine) SetAccountAttribute(a *ledger.Account, key, value string) error {
	return e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(*batch) error {
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		old, had := a.Attribute(key)
		if value == "" {
			a.RemoveAttribute(key)
		} else if err := a.SetAttribute(key, value); err != nil {
			return invalid(RuleAttribute, a.ID.String(), "%v", err)
		}
		if err := e.store.UpdateAccount(a); err != nil {
			if had {
				_ = a.SetAttribute(key, old)
			} else {
				a.RemoveAttribute(key)
			}
			return persist(err)
		}
		return nil
	})
}

// UpdateAccountSecurities makes secs the securities a may trade. A security
// still used by one of a's transactions cannot be dropped.
func (e *Engine) UpdateAccountSecurities(a *ledger.Account, secs []*commodity.Security) error {
	return e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(b *batch) error {
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		if a.Group() != ledger.GroupInvest {
			return invalid(RuleInvalidValue, a.ID.String(), "%v", ledger.ErrNotInvestment)
		}
		old := a.Securities()
		used := a.UsedSecurities()
		for _, s := range old {
			if !slices.Contains(secs, s) && slices.Contains(used, s) {
				return invalid(RuleInUse, s.ID.String(), "security %s is used by transactions of %s", s.Symbol, a.Name())
			}
		}
		for _, s := range secs {
			if !e.known(s.ID) {
				return notFound("security %s", s.Symbol)
			}
		}

		restore := func() {
			for _, s := range a.Securities() {
				_ = a.RemoveSecurity(s)
			}
			for _, s := range old {
				_ = a.AddSecurity(s)
			}
		}
		var added, removed []*commodity.Security
		for _, s := range old {
			if !slices.Contains(secs, s) {
				if err := a.RemoveSecurity(s); err != nil {
					restore()
					return invalid(RuleInUse, s.ID.String(), "%v", err)
				}
				removed = append(removed, s)
			}
		}
		for _, s := range secs {
			if !slices.Contains(old, s) {
				if err := a.AddSecurity(s); err != nil {
					restore()
					return invalid(RuleInvalidValue, s.ID.String(), "%v", err)
				}
				added = append(added, s)
			}
		}
		if err := e.store.UpdateAccount(a); err != nil {
			restore()
			return persist(err)
		}
		for _, s := range added {
			b.add(events.ChannelAccount, events.AccountSecurityAdd, events.PropCommodity, s)
		}
		for _, s := range removed {
			b.add(events.ChannelAccount, events.AccountSecurityRemove, events.PropCommodity, s)
		}
		a.ClearCachedBalances()
		return nil
	})
}

// clearHolders drops cached balances of every account holding s and of
// their ancestors.
func (e *Engine) clearHolders(s *commodity.Security) {
	for _, a := range e.store.Accounts() {
		if a.ContainsSecurity(s) {
			a.ClearCachedBalances()
			for _, p := range a.Ancestors() {
				p.ClearCachedBalances()
			}
		}
	}
}
