// Package money holds the decimal arithmetic rules shared by the ledger:
// half-up rounding at a commodity scale and fixed significant-digit contexts
// for derived values such as exchange rates.
package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPrecision is the number of significant digits kept for derived values (rates, percentages).
	DefaultPrecision = 16
	// BudgetPrecision is the number of significant digits kept for budget aggregates.
	BudgetPrecision = 8
)

// MaxScale bounds the scale a commodity may declare.
const MaxScale = 16

var (
	// Zero is a shorthand for decimal.Zero.
	Zero = decimal.Zero
	// One is the decimal value 1.
	One = decimal.NewFromInt(1)
)

// Round rounds d to scale decimal places, half away from zero.
func Round(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// RoundPrecision rounds d to p significant digits, half away from zero.
func RoundPrecision(d decimal.Decimal, p int) decimal.Decimal {
	if d.IsZero() || p <= 0 {
		return d
	}
	places := int32(p) - 1 - msd(d)
	if places >= -d.Exponent() {
		return d
	}
	return d.Round(places)
}

// Div divides a by b keeping p significant digits. b must not be zero.
func Div(a, b decimal.Decimal, p int) decimal.Decimal {
	if a.IsZero() {
		return Zero
	}
	places := int32(p) + 2 - (msd(a) - msd(b))
	if places < 0 {
		places = 0
	}
	return RoundPrecision(a.DivRound(b, places), p)
}

// Reciprocal returns 1/r at DefaultPrecision. r must not be zero.
func Reciprocal(r decimal.Decimal) decimal.Decimal {
	return Div(One, r, DefaultPrecision)
}

// msd returns the power of ten of the most significant digit of a non-zero d.
func msd(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent() - 1
}

// CurrencyDefaults returns the ISO 4217 minor-unit scale and display symbol for
// code. ok is false for codes the ISO table does not know.
func CurrencyDefaults(code string) (scale int32, symbol string, ok bool) {
	c := gomoney.GetCurrency(strings.ToUpper(code))
	if c == nil {
		return 0, "", false
	}
	return int32(c.Fraction), c.Grapheme, true
}

// Format renders d at scale with the given display affixes.
func Format(d decimal.Decimal, scale int32, prefix, suffix string) string {
	return prefix + Round(d, scale).StringFixed(scale) + suffix
}
