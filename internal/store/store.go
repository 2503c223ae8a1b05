// Package store defines the persistence contract the engine reads and
// writes through, and an in-memory implementation of it.
package store

import (
	"errors"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/stored"
)

var (
	// ErrDuplicate is returned when an object with the same id is already stored.
	ErrDuplicate = errors.New("object already stored")
	// ErrMissing is returned when updating or removing an object that is not stored.
	ErrMissing = errors.New("object not stored")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// Store persists the ledger object graph. Lists never include objects
// marked for removal; those are reachable through the trash until purged.
type Store interface {
	AccountStore
	CommodityStore
	RateStore
	TransactionStore
	BudgetStore
	ReminderStore
	TagStore
	TrashStore
	ConfigStore

	// ObjectByID returns any stored object, trashed or not.
	ObjectByID(k id.ID) (stored.Object, bool)
	Close() error
}

type AccountStore interface {
	AddAccount(a *ledger.Account) error
	UpdateAccount(a *ledger.Account) error
	// Accounts returns every live account, the root included.
	Accounts() []*ledger.Account
	// RootAccounts returns every live root; more than one needs repair.
	RootAccounts() []*ledger.Account
}

type CommodityStore interface {
	AddCurrency(c *commodity.Currency) error
	AddSecurity(s *commodity.Security) error
	UpdateCommodity(n commodity.Node) error
	Currencies() []*commodity.Currency
	Securities() []*commodity.Security
}

type RateStore interface {
	AddExchangeRate(r *commodity.ExchangeRate) error
	UpdateExchangeRate(r *commodity.ExchangeRate) error
	ExchangeRates() []*commodity.ExchangeRate
}

type TransactionStore interface {
	AddTransaction(t *ledger.Transaction) error
	Transactions() []*ledger.Transaction
}

type BudgetStore interface {
	AddBudget(b *budget.Budget) error
	UpdateBudget(b *budget.Budget) error
	Budgets() []*budget.Budget
}

type ReminderStore interface {
	AddReminder(r *reminder.Reminder) error
	UpdateReminder(r *reminder.Reminder) error
	Reminders() []*reminder.Reminder
}

type TagStore interface {
	AddTag(t *ledger.Tag) error
	UpdateTag(t *ledger.Tag) error
	Tags() []*ledger.Tag
}

type TrashStore interface {
	// AddTrash records t; its object is marked for removal.
	AddTrash(t *stored.TrashObject) error
	TrashObjects() []*stored.TrashObject
	// PurgeTrash permanently deletes t and the object it holds.
	PurgeTrash(t *stored.TrashObject) error
}

type ConfigStore interface {
	// Configs returns every stored settings object; more than one needs repair.
	Configs() []*ledger.Config
	AddConfig(c *ledger.Config) error
	UpdateConfig(c *ledger.Config) error
}

// Kind names the entity type of o as persisted.
func Kind(o stored.Object) string {
	switch o.(type) {
	case *ledger.Account:
		return "account"
	case *commodity.Currency:
		return "currency"
	case *commodity.Security:
		return "security"
	case *commodity.ExchangeRate:
		return "rate"
	case *ledger.Transaction:
		return "transaction"
	case *budget.Budget:
		return "budget"
	case *reminder.Reminder:
		return "reminder"
	case *ledger.Tag:
		return "tag"
	case *ledger.Config:
		return "config"
	}
	return "unknown"
}
