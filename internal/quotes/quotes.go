// Package quotes defines the collaborators that fetch security prices and
// exchange rates for the engine's background updates, plus wrappers that
// cache and pace them.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/money"
)

// ErrNoQuote is returned when a source has nothing for the request.
var ErrNoQuote = errors.New("no quote available")

// SecuritySource fetches the latest price of a security.
type SecuritySource interface {
	Quote(ctx context.Context, sec *commodity.Security) (commodity.HistoryNode, error)
}

// RateSource fetches the rate r where 1 from = r to.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Static answers from values set in memory. It backs manual price entry and
// tests.
type Static struct {
	mu     sync.RWMutex
	prices map[string]commodity.HistoryNode
	rates  map[string]decimal.Decimal
}

// NewStatic returns an empty source.
func NewStatic() *Static {
	return &Static{
		prices: make(map[string]commodity.HistoryNode),
		rates:  make(map[string]decimal.Decimal),
	}
}

// SetPrice records the quote returned for symbol.
func (s *Static) SetPrice(symbol string, date day.Date, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[strings.ToUpper(symbol)] = commodity.HistoryNode{Date: date, Price: price}
}

// SetRate records 1 from = rate to.
func (s *Static) SetRate(from, to string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pair(from, to)] = rate
}

func (s *Static) Quote(_ context.Context, sec *commodity.Security) (commodity.HistoryNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.prices[strings.ToUpper(sec.Symbol)]
	if !ok {
		return commodity.HistoryNode{}, fmt.Errorf("%s: %w", sec.Symbol, ErrNoQuote)
	}
	return n, nil
}

func (s *Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rates[pair(from, to)]; ok {
		return r, nil
	}
	if r, ok := s.rates[pair(to, from)]; ok && !r.IsZero() {
		return money.Reciprocal(r), nil
	}
	return decimal.Zero, fmt.Errorf("%s/%s: %w", from, to, ErrNoQuote)
}

func pair(from, to string) string {
	return strings.ToUpper(from) + "/" + strings.ToUpper(to)
}
