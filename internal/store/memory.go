package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Memory keeps the object graph in memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	closed  bool
	objects map[id.ID]stored.Object
	order   []id.ID
	trash   map[id.ID]*stored.TrashObject
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[id.ID]stored.Object),
		trash:   make(map[id.ID]*stored.TrashObject),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) add(o stored.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	k := o.StoredID()
	if _, ok := m.objects[k]; ok {
		return fmt.Errorf("%s %s: %w", Kind(o), k, ErrDuplicate)
	}
	m.objects[k] = o
	m.order = append(m.order, k)
	return nil
}

// Hydrate adds o as already persisted. Stores backed by a file call it while
// loading.
func (m *Memory) Hydrate(o stored.Object) error { return m.add(o) }

func (m *Memory) update(o stored.Object) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.objects[o.StoredID()]; !ok {
		return fmt.Errorf("%s %s: %w", Kind(o), o.StoredID(), ErrMissing)
	}
	return nil
}

// live returns the unremoved objects of type T in insertion order.
func live[T stored.Object](m *Memory) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, k := range m.order {
		if o, ok := m.objects[k].(T); ok && !o.MarkedForRemoval() {
			out = append(out, o)
		}
	}
	return out
}

// Contains reports whether an object with k is stored.
func (m *Memory) Contains(k id.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[k]
	return ok
}

func (m *Memory) ObjectByID(k id.ID) (stored.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[k]
	return o, ok
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) AddAccount(a *ledger.Account) error    { return m.add(a) }
func (m *Memory) UpdateAccount(a *ledger.Account) error { return m.update(a) }
func (m *Memory) Accounts() []*ledger.Account           { return live[*ledger.Account](m) }

func (m *Memory) RootAccounts() []*ledger.Account {
	var out []*ledger.Account
	for _, a := range m.Accounts() {
		if a.IsRoot() {
			out = append(out, a)
		}
	}
	return out
}

func (m *Memory) AddCurrency(c *commodity.Currency) error { return m.add(c) }
func (m *Memory) AddSecurity(s *commodity.Security) error { return m.add(s) }

func (m *Memory) UpdateCommodity(n commodity.Node) error {
	switch c := n.(type) {
	case *commodity.Currency:
		return m.update(c)
	case *commodity.Security:
		return m.update(c)
	}
	return fmt.Errorf("commodity %T: %w", n, ErrMissing)
}

func (m *Memory) Currencies() []*commodity.Currency { return live[*commodity.Currency](m) }
func (m *Memory) Securities() []*commodity.Security { return live[*commodity.Security](m) }

func (m *Memory) AddExchangeRate(r *commodity.ExchangeRate) error    { return m.add(r) }
func (m *Memory) UpdateExchangeRate(r *commodity.ExchangeRate) error { return m.update(r) }
func (m *Memory) ExchangeRates() []*commodity.ExchangeRate           { return live[*commodity.ExchangeRate](m) }

func (m *Memory) AddTransaction(t *ledger.Transaction) error { return m.add(t) }
func (m *Memory) Transactions() []*ledger.Transaction        { return live[*ledger.Transaction](m) }

func (m *Memory) AddBudget(b *budget.Budget) error    { return m.add(b) }
func (m *Memory) UpdateBudget(b *budget.Budget) error { return m.update(b) }
func (m *Memory) Budgets() []*budget.Budget           { return live[*budget.Budget](m) }

func (m *Memory) AddReminder(r *reminder.Reminder) error    { return m.add(r) }
func (m *Memory) UpdateReminder(r *reminder.Reminder) error { return m.update(r) }
func (m *Memory) Reminders() []*reminder.Reminder           { return live[*reminder.Reminder](m) }

func (m *Memory) AddTag(t *ledger.Tag) error    { return m.add(t) }
func (m *Memory) UpdateTag(t *ledger.Tag) error { return m.update(t) }
func (m *Memory) Tags() []*ledger.Tag           { return live[*ledger.Tag](m) }

func (m *Memory) Configs() []*ledger.Config           { return live[*ledger.Config](m) }
func (m *Memory) AddConfig(c *ledger.Config) error    { return m.add(c) }
func (m *Memory) UpdateConfig(c *ledger.Config) error { return m.update(c) }

func (m *Memory) AddTrash(t *stored.TrashObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.objects[t.Object.StoredID()]; !ok {
		return fmt.Errorf("trash %s: %w", t.Object.StoredID(), ErrMissing)
	}
	t.Object.MarkForRemoval()
	m.trash[t.ID] = t
	return nil
}

// TrashObjects returns the trash oldest first.
func (m *Memory) TrashObjects() []*stored.TrashObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*stored.TrashObject, 0, len(m.trash))
	for _, t := range m.trash {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *stored.TrashObject) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return id.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Memory) PurgeTrash(t *stored.TrashObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.trash[t.ID]; !ok {
		return fmt.Errorf("trash %s: %w", t.ID, ErrMissing)
	}
	delete(m.trash, t.ID)
	k := t.Object.StoredID()
	delete(m.objects, k)
	m.order = slices.DeleteFunc(m.order, func(x id.ID) bool { return x == k })
	return nil
}
