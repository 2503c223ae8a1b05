package quotes

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
)

// DefaultCacheTTL keeps answers for the rest of a trading day.
const DefaultCacheTTL = 12 * time.Hour

// Cached remembers answers from its sources for a day-keyed TTL. Errors are
// not cached.
type Cached struct {
	securities SecuritySource
	rates      RateSource
	cache      *cache.Cache
	today      func() day.Date
}

// NewCached wraps either source; a nil source answers ErrNoQuote.
func NewCached(securities SecuritySource, rates RateSource, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		securities: securities,
		rates:      rates,
		cache:      cache.New(ttl, 2*ttl),
		today:      day.Today,
	}
}

func (c *Cached) Quote(ctx context.Context, sec *commodity.Security) (commodity.HistoryNode, error) {
	if c.securities == nil {
		return commodity.HistoryNode{}, ErrNoQuote
	}
	key := "quote-" + sec.Symbol + "-" + c.today().String()
	if v, ok := c.cache.Get(key); ok {
		return v.(commodity.HistoryNode), nil
	}
	n, err := c.securities.Quote(ctx, sec)
	if err != nil {
		return n, err
	}
	c.cache.SetDefault(key, n)
	return n, nil
}

func (c *Cached) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if c.rates == nil {
		return decimal.Zero, ErrNoQuote
	}
	key := "rate-" + pair(from, to) + "-" + c.today().String()
	if v, ok := c.cache.Get(key); ok {
		return v.(decimal.Decimal), nil
	}
	r, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		return r, err
	}
	c.cache.SetDefault(key, r)
	return r, nil
}

// Flush drops every cached answer.
func (c *Cached) Flush() { c.cache.Flush() }
