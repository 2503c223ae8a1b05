package commodity

import (
	"cmp"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// RateID returns the canonical exchange-rate key: both symbols in ascending order.
func RateID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + b
}

// RateNode is one dated exchange rate.
type RateNode struct {
	Date day.Date
	Rate decimal.Decimal
}

// ExchangeRate is the dated history of the rate between two currencies.
// Rates are stored in canonical direction: one unit of the lower symbol
// expressed in the higher symbol.
type ExchangeRate struct {
	stored.Marker

	ID     id.ID
	RateID string

	mu      sync.RWMutex
	history []RateNode
}

// NewExchangeRate returns an empty rate for the canonical id.
func NewExchangeRate(rateID string) *ExchangeRate {
	return &ExchangeRate{ID: id.New(), RateID: rateID}
}

// StoredID implements stored.Object.
func (r *ExchangeRate) StoredID() id.ID { return r.ID }

// Rate returns the latest rate, or 1 when no history exists.
func (r *ExchangeRate) Rate() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.history) == 0 {
		return money.One
	}
	return r.history[len(r.history)-1].Rate
}

// RateOn returns the rate recorded for exactly date, or zero.
func (r *ExchangeRate) RateOn(date day.Date) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.search(date); ok {
		return r.history[i].Rate
	}
	return money.Zero
}

// Contains reports whether a rate is recorded for date.
func (r *ExchangeRate) Contains(date day.Date) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.search(date)
	return ok
}

// History returns a copy of the rate history in date order.
func (r *ExchangeRate) History() []RateNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.history)
}

// AddHistory records n, replacing any rate on the same date.
func (r *ExchangeRate) AddHistory(n RateNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.search(n.Date); ok {
		r.history[i] = n
		return
	}
	i, _ := r.search(n.Date)
	r.history = slices.Insert(r.history, i, n)
}

// RemoveHistory removes the rate recorded on date.
func (r *ExchangeRate) RemoveHistory(date day.Date) (RateNode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.search(date)
	if !ok {
		return RateNode{}, false
	}
	n := r.history[i]
	r.history = slices.Delete(r.history, i, i+1)
	return n, true
}

func (r *ExchangeRate) search(date day.Date) (int, bool) {
	return slices.BinarySearchFunc(r.history, date, func(n RateNode, d day.Date) int {
		return n.Date.Compare(d)
	})
}

// RateLookup resolves the canonical ExchangeRate between two currencies,
// creating it when it does not exist yet.
type RateLookup interface {
	ExchangeRate(a, b *Currency) *ExchangeRate
}

// RateTable is the in-memory RateLookup keyed by canonical id.
type RateTable struct {
	mu    sync.Mutex
	rates map[string]*ExchangeRate
}

// NewRateTable returns an empty table.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]*ExchangeRate)}
}

// ExchangeRate implements RateLookup.
func (t *RateTable) ExchangeRate(a, b *Currency) *ExchangeRate {
	key := RateID(a.Symbol, b.Symbol)
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rates[key]
	if !ok {
		r = NewExchangeRate(key)
		t.rates[key] = r
	}
	return r
}

// Find returns the rate for a and b without creating it.
func (t *RateTable) Find(a, b *Currency) (*ExchangeRate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rates[RateID(a.Symbol, b.Symbol)]
	return r, ok
}

// Put registers a rate loaded from storage.
func (t *RateTable) Put(r *ExchangeRate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[r.RateID] = r
}

// Remove drops the rate with the canonical id.
func (t *RateTable) Remove(rateID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rates, rateID)
}

// All returns every rate ordered by canonical id.
func (t *RateTable) All() []*ExchangeRate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*ExchangeRate, 0, len(t.rates))
	for _, r := range t.rates {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *ExchangeRate) int { return cmp.Compare(a.RateID, b.RateID) })
	return out
}
