package engine

import (
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// validateTransaction checks t against the rules every transaction must meet
// before it joins the ledger.
func (e *Engine) validateTransaction(t *ledger.Transaction) []*ValidationError {
	var errs []*ValidationError
	subject := t.ID.String()

	if e.known(t.ID) {
		errs = append(errs, invalid(RuleDuplicateID, subject, "transaction already exists"))
	}
	entries := t.Entries()
	if len(entries) == 0 {
		return append(errs, invalid(RuleNoEntries, subject, "transaction has no entries"))
	}

	for _, en := range entries {
		if en.Tag == ledger.TagNone {
			errs = append(errs, invalid(RuleEntryTag, en.ID.String(), "entry has no tag"))
		}
		if en.CreditAccount == nil || en.DebitAccount == nil {
			errs = append(errs, invalid(RuleEntryAccounts, en.ID.String(), "entry needs both a credit and a debit account"))
			continue
		}
		if !en.IsSingleEntry() && en.CreditAmount.Sign()*en.DebitAmount.Sign() > 0 {
			errs = append(errs, invalid(RuleEntryAmounts, en.ID.String(),
				"credit %s and debit %s have the same sign", en.CreditAmount, en.DebitAmount))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	for _, a := range t.Accounts() {
		switch {
		case !e.known(a.ID) || a.MarkedForRemoval():
			errs = append(errs, invalid(RuleUnknownAccount, a.ID.String(), "account %s is not part of the ledger", a.Name()))
		case a.Locked():
			errs = append(errs, invalid(RuleLockedAccount, a.ID.String(), "account %s is locked", a.Name()))
		case a.Placeholder():
			errs = append(errs, invalid(RulePlaceholder, a.ID.String(), "account %s is a placeholder", a.Name()))
		}
	}

	if len(entries) > 1 && t.CommonAccount() == nil {
		errs = append(errs, invalid(RuleCommonAccount, subject, "split entries share no common account"))
	}

	if t.IsInvestment() {
		inv := t.InvestmentAccount()
		sec := t.Security()
		if inv == nil || sec == nil || !inv.ContainsSecurity(sec) {
			symbol := "?"
			if sec != nil {
				symbol = sec.Symbol
			}
			errs = append(errs, invalid(RuleSecurityNotHeld, subject, "security %s is not held by the investment account", symbol))
		}
	}
	return errs
}
