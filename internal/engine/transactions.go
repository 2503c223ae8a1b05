package engine

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/money"
)

// AddTransaction validates t, stores it and posts it to each of its
// accounts. A multi-currency entry on a date without a recorded rate
// records the rate it implies.
func (e *Engine) AddTransaction(t *ledger.Transaction) error {
	return e.mutate(events.ChannelTransaction, events.TransactionAdd, events.TransactionAddFailed, events.PropTransaction, t, func(b *batch) error {
		if t == nil {
			return contract("transaction is required")
		}
		return e.addTransaction(t, b)
	})
}

func (e *Engine) addTransaction(t *ledger.Transaction, b *batch) error {
	if err := joinValidation(e.validateTransaction(t)); err != nil {
		return err
	}
	if err := e.store.AddTransaction(t); err != nil {
		return persist(err)
	}
	for _, a := range t.Accounts() {
		a.AddTransaction(t)
	}
	for _, en := range t.Entries() {
		if en.IsMultiCurrency() {
			e.impliedRate(en, t, b)
		}
	}
	return nil
}

// impliedRate records |debit| / |credit| as the rate from the credit
// currency to the debit currency when none exists for the date.
func (e *Engine) impliedRate(en *ledger.Entry, t *ledger.Transaction, b *batch) {
	from, to := en.CreditAccount.Currency(), en.DebitAccount.Currency()
	if en.CreditAmount.IsZero() || en.DebitAmount.IsZero() {
		return
	}
	if r, ok := e.rates.Find(from, to); ok && r.Contains(t.Date) {
		return
	}
	rate := money.Div(en.DebitAmount.Abs(), en.CreditAmount.Abs(), money.DefaultPrecision)
	r, err := e.setExchangeRate(from, to, rate, t.Date)
	if err != nil {
		e.log.Error().Err(err).Str("rate", commodity.RateID(from.Symbol, to.Symbol)).Msg("could not record implied exchange rate")
		return
	}
	b.add(events.ChannelCommodity, events.ExchangeRateAdd, events.PropExchangeRate, r)
}

// RemoveTransaction moves t to the trash and takes it off its accounts.
func (e *Engine) RemoveTransaction(t *ledger.Transaction) error {
	return e.mutate(events.ChannelTransaction, events.TransactionRemove, events.TransactionRemoveFailed, events.PropTransaction, t, func(*batch) error {
		if t == nil {
			return contract("transaction is required")
		}
		return e.removeTransaction(t)
	})
}

func (e *Engine) removeTransaction(t *ledger.Transaction) error {
	if !e.known(t.ID) {
		return notFound("transaction %s", t.ID)
	}
	if t.AreAccountsLocked() {
		return invalid(RuleLockedAccount, t.ID.String(), "transaction touches a locked account")
	}
	if err := e.trash(t); err != nil {
		return err
	}
	for _, a := range t.Accounts() {
		a.RemoveTransaction(t)
	}
	return nil
}

// SetTransactionReconciled replaces t with a copy whose entries on a carry
// state. Stored transactions never change in place; the copy is returned.
func (e *Engine) SetTransactionReconciled(t *ledger.Transaction, a *ledger.Account, state ledger.ReconciledState) (*ledger.Transaction, error) {
	var clone *ledger.Transaction
	err := e.mutate(events.ChannelTransaction, "", events.TransactionAddFailed, events.PropTransaction, t, func(b *batch) error {
		if t == nil || a == nil {
			return contract("transaction and account are required")
		}
		var err error
		clone, err = e.setReconciled(t, a, state, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// setReconciled adds the reconciled copy before trashing t, so a failure
// leaves t in place.
func (e *Engine) setReconciled(t *ledger.Transaction, a *ledger.Account, state ledger.ReconciledState, b *batch) (*ledger.Transaction, error) {
	if !e.known(t.ID) {
		return nil, notFound("transaction %s", t.ID)
	}
	if t.Reconciled(a) == state {
		return t, nil
	}
	clone := t.Clone()
	clone.SetReconciled(a, state)
	if err := e.addTransaction(clone, b); err != nil {
		return nil, err
	}
	if err := e.removeTransaction(t); err != nil {
		if rerr := e.removeTransaction(clone); rerr != nil {
			e.log.Error().Err(rerr).Str("transaction", clone.ID.String()).Msg("rollback failed")
		}
		return nil, err
	}
	b.add(events.ChannelTransaction, events.TransactionRemove, events.PropTransaction, t)
	b.add(events.ChannelTransaction, events.TransactionAdd, events.PropTransaction, clone)
	return clone, nil
}

// ReconcileResult summarises a successful reconcile.
type ReconcileResult struct {
	Opening      decimal.Decimal
	Closing      decimal.Decimal
	Transactions []*ledger.Transaction
}

// Reconcile marks txs reconciled on a when the opening balance plus their
// amounts equals closing. The attempt, and on success the statement
// figures, are kept as account attributes.
func (e *Engine) Reconcile(a *ledger.Account, txs []*ledger.Transaction, statement day.Date, closing decimal.Decimal) (ReconcileResult, error) {
	var res ReconcileResult
	err := e.mutate(events.ChannelAccount, events.AccountModify, events.AccountModifyFailed, events.PropAccount, a, func(b *batch) error {
		if a == nil {
			return contract("account is required")
		}
		if !e.known(a.ID) {
			return notFound("account %s", a.ID)
		}
		e.setAttributes(a, map[string]string{ledger.AttrReconcileLastAttemptDate: e.today().String()})

		opening := a.OpeningBalanceForReconcile()
		sum := opening
		for _, t := range txs {
			if t.Reconciled(a) != ledger.Reconciled {
				sum = sum.Add(t.Amount(a))
			}
		}
		if !a.Round(sum).Equal(a.Round(closing)) {
			return invalid(RuleInvalidValue, a.ID.String(), "statement closes at %s but the ledger reaches %s", closing, a.Round(sum))
		}
		for _, t := range txs {
			c, err := e.setReconciled(t, a, ledger.Reconciled, b)
			if err != nil {
				return err
			}
			res.Transactions = append(res.Transactions, c)
		}
		res.Opening, res.Closing = opening, a.Round(closing)
		e.setAttributes(a, map[string]string{
			ledger.AttrReconcileLastSuccessDate:   e.today().String(),
			ledger.AttrReconcileLastStatementDate: statement.String(),
			ledger.AttrReconcileLastOpeningBal:    opening.String(),
			ledger.AttrReconcileLastClosingBal:    res.Closing.String(),
		})
		return nil
	})
	return res, err
}

// setAttributes writes attrs to a. Store failures are only logged.
func (e *Engine) setAttributes(a *ledger.Account, attrs map[string]string) {
	for k, v := range attrs {
		if err := a.SetAttribute(k, v); err != nil {
			e.log.Warn().Err(err).Str("key", k).Msg("attribute refused")
		}
	}
	if err := e.store.UpdateAccount(a); err != nil {
		e.log.Error().Err(err).Str("account", a.ID.String()).Msg("store write failed")
	}
}
