// Package commodity models currencies, securities and the exchange rates
// between currencies.
package commodity

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// defaultScale is used for currency codes the ISO table does not know.
const defaultScale = 2

// Commodity holds the identity and display attributes shared by currencies and securities.
type Commodity struct {
	stored.Marker

	ID          id.ID
	Symbol      string
	Scale       int32
	Prefix      string
	Suffix      string
	Description string
}

// Node is implemented by *Currency and *Security.
type Node interface {
	Base() *Commodity
}

// StoredID implements stored.Object.
func (c *Commodity) StoredID() id.ID { return c.ID }

// Base returns the shared commodity attributes.
func (c *Commodity) Base() *Commodity { return c }

// Round rounds d to the commodity scale.
func (c *Commodity) Round(d decimal.Decimal) decimal.Decimal {
	return money.Round(d, c.Scale)
}

// Format renders d with the commodity scale and affixes.
func (c *Commodity) Format(d decimal.Decimal) string {
	return money.Format(d, c.Scale, c.Prefix, c.Suffix)
}

func (c *Commodity) String() string {
	return c.Symbol
}

// Validate checks the attributes every stored commodity must have.
func (c *Commodity) Validate() error {
	if c.ID == id.Nil {
		return fmt.Errorf("commodity %q has no id", c.Symbol)
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("commodity symbol is empty")
	}
	if c.Scale < 0 || c.Scale > money.MaxScale {
		return fmt.Errorf("commodity %s scale %d out of range", c.Symbol, c.Scale)
	}
	return nil
}

// Compare orders commodities by symbol, then by id.
func Compare(a, b Node) int {
	x, y := a.Base(), b.Base()
	if r := cmp.Compare(x.Symbol, y.Symbol); r != 0 {
		return r
	}
	return id.Compare(x.ID, y.ID)
}

// Currency is a commodity money is denominated in.
type Currency struct {
	Commodity
	rates RateLookup
}

// NewCurrency returns a currency for symbol with ISO defaults for its scale and prefix.
func NewCurrency(symbol string) *Currency {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	c := &Currency{Commodity: Commodity{
		ID:          id.New(),
		Symbol:      symbol,
		Scale:       defaultScale,
		Description: symbol,
	}}
	if scale, grapheme, ok := money.CurrencyDefaults(symbol); ok {
		c.Scale = scale
		c.Prefix = grapheme
	}
	return c
}

// SetRateLookup attaches the collaborator used to resolve exchange rates.
func (c *Currency) SetRateLookup(rates RateLookup) {
	c.rates = rates
}

// RateLookup returns the attached rate collaborator, or nil.
func (c *Currency) RateLookup() RateLookup {
	return c.rates
}

// ExchangeRate returns the current rate converting an amount in c into to.
// Without a rate lookup every rate is 1.
func (c *Currency) ExchangeRate(to *Currency) decimal.Decimal {
	if to == nil || c.Symbol == to.Symbol || c.rates == nil {
		return money.One
	}
	r := c.rates.ExchangeRate(c, to).Rate()
	if c.Symbol > to.Symbol {
		return money.Reciprocal(r)
	}
	return r
}

// Convert converts amount from c into to at the current rate. The result is not rounded.
func (c *Currency) Convert(amount decimal.Decimal, to *Currency) decimal.Decimal {
	return amount.Mul(c.ExchangeRate(to))
}
