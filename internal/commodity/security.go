package commodity

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
)

// HistoryNode is one day of market data for a security.
type HistoryNode struct {
	Date   day.Date
	Price  decimal.Decimal // close
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume int64
}

// EventType classifies a HistoryEvent.
type EventType int

const (
	EventSplit EventType = iota
	EventDividend
)

var eventTypeNames = [...]string{"SPLIT", "DIVIDEND"}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType parses the name produced by String.
func ParseEventType(s string) (EventType, error) {
	for i, n := range eventTypeNames {
		if strings.EqualFold(n, s) {
			return EventType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown security event type %q", s)
}

// HistoryEvent is a corporate action. For splits Value is the number of new
// shares per old share.
type HistoryEvent struct {
	Date  day.Date
	Type  EventType
	Value decimal.Decimal
}

// Security is a tradable commodity priced in a reporting currency.
type Security struct {
	Commodity
	Currency    *Currency
	QuoteSource string
	ISIN        string

	mu      sync.RWMutex
	history []HistoryNode
	events  []HistoryEvent
}

// NewSecurity returns a security reported in currency.
func NewSecurity(symbol string, currency *Currency) *Security {
	s := &Security{
		Commodity: Commodity{
			ID:          id.New(),
			Symbol:      strings.TrimSpace(symbol),
			Scale:       defaultScale,
			Description: symbol,
		},
		Currency: currency,
	}
	if currency != nil {
		s.Scale = currency.Scale
		s.Prefix = currency.Prefix
		s.Suffix = currency.Suffix
	}
	return s
}

// Validate extends Commodity.Validate with the reporting currency requirement.
func (s *Security) Validate() error {
	if err := s.Commodity.Validate(); err != nil {
		return err
	}
	if s.Currency == nil {
		return fmt.Errorf("security %s has no reporting currency", s.Symbol)
	}
	return nil
}

// History returns a copy of the price history in date order.
func (s *Security) History() []HistoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// HistoryNodeOn returns the latest node dated on or before date.
func (s *Security) HistoryNodeOn(date day.Date) (HistoryNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.searchHistory(date)
	if ok {
		return s.history[i], true
	}
	if i == 0 {
		return HistoryNode{}, false
	}
	return s.history[i-1], true
}

// LastHistoryNode returns the most recent node.
func (s *Security) LastHistoryNode() (HistoryNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return HistoryNode{}, false
	}
	return s.history[len(s.history)-1], true
}

// MarketPrice returns the close of the latest node on or before date, or zero.
func (s *Security) MarketPrice(date day.Date) decimal.Decimal {
	n, ok := s.HistoryNodeOn(date)
	if !ok {
		return money.Zero
	}
	return n.Price
}

// MarketPriceIn is MarketPrice converted into currency at the current rate.
func (s *Security) MarketPriceIn(date day.Date, currency *Currency) decimal.Decimal {
	return s.MarketPrice(date).Mul(s.Currency.ExchangeRate(currency))
}

// AddHistory records n. A node on the same date is replaced and returned.
func (s *Security) AddHistory(n HistoryNode) (replaced HistoryNode, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.searchHistory(n.Date)
	if found {
		replaced = s.history[i]
		s.history[i] = n
		return replaced, true
	}
	s.history = slices.Insert(s.history, i, n)
	return HistoryNode{}, false
}

// RemoveHistory removes the node dated date.
func (s *Security) RemoveHistory(date day.Date) (HistoryNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.searchHistory(date)
	if !ok {
		return HistoryNode{}, false
	}
	n := s.history[i]
	s.history = slices.Delete(s.history, i, i+1)
	return n, true
}

func (s *Security) searchHistory(date day.Date) (int, bool) {
	return slices.BinarySearchFunc(s.history, date, func(n HistoryNode, d day.Date) int {
		return n.Date.Compare(d)
	})
}

// Events returns a copy of the corporate actions in date order.
func (s *Security) Events() []HistoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// AddEvent records e, replacing an event of the same type on the same date.
func (s *Security) AddEvent(e HistoryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.searchEvent(e.Date, e.Type)
	if found {
		s.events[i] = e
		return
	}
	s.events = slices.Insert(s.events, i, e)
}

// RemoveEvent removes the event of type t dated date.
func (s *Security) RemoveEvent(date day.Date, t EventType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.searchEvent(date, t)
	if !found {
		return false
	}
	s.events = slices.Delete(s.events, i, i+1)
	return true
}

func (s *Security) searchEvent(date day.Date, t EventType) (int, bool) {
	return slices.BinarySearchFunc(s.events, date, func(e HistoryEvent, d day.Date) int {
		if c := e.Date.Compare(d); c != 0 {
			return c
		}
		return cmp.Compare(e.Type, t)
	})
}

// SplitAdjustedHistory returns the price history with each price divided by
// the product of the split ratios dated after it.
func (s *Security) SplitAdjustedHistory() []HistoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.history)
	factor := money.One
	ev := len(s.events) - 1
	for i := len(out) - 1; i >= 0; i-- {
		for ev >= 0 && s.events[ev].Date.After(out[i].Date) {
			if s.events[ev].Type == EventSplit && s.events[ev].Value.IsPositive() {
				factor = factor.Mul(s.events[ev].Value)
			}
			ev--
		}
		if !factor.Equal(money.One) {
			out[i].Price = money.RoundPrecision(out[i].Price.Div(factor), money.DefaultPrecision)
			out[i].High = money.RoundPrecision(out[i].High.Div(factor), money.DefaultPrecision)
			out[i].Low = money.RoundPrecision(out[i].Low.Div(factor), money.DefaultPrecision)
		}
	}
	return out
}
