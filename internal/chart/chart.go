// Package chart seeds a ledger with a chart of accounts.
package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// Separator joins account names in a chart path.
const Separator = ":"

// FileName is the chart file written next to a ledger.
const FileName = "chart-of-accounts.csv"

// Entry is one account of a chart, addressed by its path below the root.
type Entry struct {
	Path        string
	Type        ledger.AccountType
	Description string
}

// Name is the last path segment.
func (e Entry) Name() string {
	parts := strings.Split(e.Path, Separator)
	return strings.TrimSpace(parts[len(parts)-1])
}

// Ledger is the part of the engine Apply needs.
type Ledger interface {
	RootAccount() *ledger.Account
	DefaultCurrency() *commodity.Currency
	AddAccount(parent, child *ledger.Account) error
}

// Apply creates the accounts of entries that do not exist yet. Parents must
// come before their children. It returns the number of accounts created.
func Apply(ctx context.Context, l Ledger, entries []Entry) (int, error) {
	root := l.RootAccount()
	if root == nil {
		return 0, fmt.Errorf("ledger has no root account")
	}
	cur := l.DefaultCurrency()

	created := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		parts := strings.Split(e.Path, Separator)
		parent := root
		for _, name := range parts[:len(parts)-1] {
			next := child(parent, strings.TrimSpace(name))
			if next == nil {
				return created, fmt.Errorf("account %q: parent %q not found", e.Path, name)
			}
			parent = next
		}
		if child(parent, e.Name()) != nil {
			continue
		}

		a := ledger.NewAccount(e.Type, cur)
		a.SetName(e.Name())
		a.SetDescription(e.Description)
		if err := l.AddAccount(parent, a); err != nil {
			return created, fmt.Errorf("adding account %q: %w", e.Path, err)
		}
		created++
	}
	return created, nil
}

func child(parent *ledger.Account, name string) *ledger.Account {
	for _, c := range parent.Children() {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// Load reads chart-of-accounts.csv from dir.
func Load(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	entries, err := ReadChart(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return entries, nil
}

// Save writes entries to dir/chart-of-accounts.csv.
func Save(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteChart(f, entries); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
