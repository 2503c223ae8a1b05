package ledger

import (
	"slices"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// CurrentFileVersion is the data layout version written by this build.
const CurrentFileVersion = 3

// DefaultAccountSeparator joins account names in path names.
const DefaultAccountSeparator = ":"

// Config is the settings singleton persisted with the ledger.
type Config struct {
	stored.Marker

	ID                      id.ID
	FileVersion             int
	DefaultCurrency         *commodity.Currency
	AccountSeparator        string
	TransactionNumbers      []string
	UpdateSecuritiesOnStart bool
	UpdateRatesOnStart      bool
	LastSecuritiesUpdate    day.Date
	LastRatesUpdate         day.Date
}

// NewConfig returns settings for a new ledger using currency.
func NewConfig(currency *commodity.Currency) *Config {
	return &Config{
		ID:                 id.New(),
		FileVersion:        CurrentFileVersion,
		DefaultCurrency:    currency,
		AccountSeparator:   DefaultAccountSeparator,
		TransactionNumbers: DefaultTransactionNumbers(),
	}
}

// DefaultTransactionNumbers is the list offered for the number field.
func DefaultTransactionNumbers() []string {
	return []string{"ATM", "EFT", "DEP", "XFER", "POS"}
}

// StoredID implements stored.Object.
func (c *Config) StoredID() id.ID { return c.ID }

// Clone returns a copy sharing the currency pointer.
func (c *Config) Clone() *Config {
	return &Config{
		ID:                      c.ID,
		FileVersion:             c.FileVersion,
		DefaultCurrency:         c.DefaultCurrency,
		AccountSeparator:        c.AccountSeparator,
		TransactionNumbers:      slices.Clone(c.TransactionNumbers),
		UpdateSecuritiesOnStart: c.UpdateSecuritiesOnStart,
		UpdateRatesOnStart:      c.UpdateRatesOnStart,
		LastSecuritiesUpdate:    c.LastSecuritiesUpdate,
		LastRatesUpdate:         c.LastRatesUpdate,
	}
}
