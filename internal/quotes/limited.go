package quotes

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/homeledger/internal/commodity"
)

// DefaultRequestsPerSecond bounds calls to a remote quote service.
const DefaultRequestsPerSecond = 2

// Limited paces calls to its sources with a token bucket.
type Limited struct {
	securities SecuritySource
	rates      RateSource
	limiter    *rate.Limiter
}

// NewLimited allows requestsPerSecond calls with an equal burst.
func NewLimited(securities SecuritySource, rates RateSource, requestsPerSecond int) *Limited {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Limited{
		securities: securities,
		rates:      rates,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (l *Limited) Quote(ctx context.Context, sec *commodity.Security) (commodity.HistoryNode, error) {
	if l.securities == nil {
		return commodity.HistoryNode{}, ErrNoQuote
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return commodity.HistoryNode{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.securities.Quote(ctx, sec)
}

func (l *Limited) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if l.rates == nil {
		return decimal.Zero, ErrNoQuote
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.rates.Rate(ctx, from, to)
}
