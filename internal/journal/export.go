package journal

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cleared-dev/homeledger/internal/ledger"
)

// FileName is the per-month journal file.
const FileName = "journal.csv"

// PathSet is an AccountChecker over a fixed set of account paths.
type PathSet map[string]bool

// Exists implements AccountChecker.
func (s PathSet) Exists(path string) bool { return s[path] }

// AccountPaths returns the paths of every account below root.
func AccountPaths(root *ledger.Account, sep string) PathSet {
	set := make(PathSet)
	for _, a := range root.Descendants() {
		set[a.PathName(sep)] = true
	}
	return set
}

// Summary reports what an export wrote.
type Summary struct {
	Months  []string
	Entries int
	Legs    int
}

// Exporter writes transactions as <root>/YYYY/MM/journal.csv.
type Exporter struct {
	root     string
	sep      string
	accounts AccountChecker
}

// NewExporter creates an Exporter rooted at root. sep joins account path
// segments.
func NewExporter(root, sep string, accounts AccountChecker) *Exporter {
	return &Exporter{root: root, sep: sep, accounts: accounts}
}

// Export rewrites the journal of every month touched by txs. Entry
// sequences follow date order, then creation order.
func (x *Exporter) Export(ctx context.Context, txs []*ledger.Transaction) (Summary, error) {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b *ledger.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	type month struct{ year, month int }
	byMonth := make(map[month][]Leg)
	var order []month
	seqs := make(map[month]int)

	var sum Summary
	for _, t := range sorted {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		m := month{t.Date.Year(), int(t.Date.Month())}
		if _, seen := byMonth[m]; !seen {
			order = append(order, m)
			byMonth[m] = nil
		}
		seqs[m]++
		legs := Legs(t, FormatEntryID(m.year, m.month, seqs[m]), x.sep)
		byMonth[m] = append(byMonth[m], legs...)
		sum.Entries++
		sum.Legs += len(legs)
	}

	for _, m := range order {
		legs := byMonth[m]
		if verrs := ValidateLegs(legs, x.accounts, m.year, m.month); len(verrs) > 0 {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = ve.Error()
			}
			return sum, fmt.Errorf("validation failed for %04d-%02d: %s", m.year, m.month, strings.Join(msgs, "; "))
		}
		if err := x.writeMonth(m.year, m.month, legs); err != nil {
			return sum, err
		}
		sum.Months = append(sum.Months, fmt.Sprintf("%04d-%02d", m.year, m.month))
	}
	return sum, nil
}

func (x *Exporter) writeMonth(year, month int, legs []Leg) error {
	path := x.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal: %w", err)
	}
	if err := WriteLegs(f, legs); err != nil {
		f.Close()
		return fmt.Errorf("writing journal %s: %w", path, err)
	}
	return f.Close()
}

// ReadMonth reads all legs for a given year/month. A missing month has no
// legs.
func (x *Exporter) ReadMonth(year, month int) ([]Leg, error) {
	path := x.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

func (x *Exporter) monthPath(year, month int) string {
	return filepath.Join(x.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), FileName)
}
