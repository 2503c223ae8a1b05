// Package importer turns bank CSV exports into ledger transactions.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

// BankTransaction is one row of a bank export.
type BankTransaction struct {
	Date        day.Date
	Description string
	Amount      decimal.Decimal // positive means money into the account
	Reference   string          // stable id used to skip rows already imported
	Type        string
	Number      string // check number, when the bank reports one
}

// makeRef builds a reference like chase_20250103_GITHUBPROS_-4.00.
func makeRef(source string, d day.Date, desc string, amount decimal.Decimal) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s_%s", source, d.Time().Format("20060102"), prefix, amount.StringFixed(2))
}

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&SimpleParser{})
	return r
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <dir>/import/.
func Scan(dir string) ([]FileInfo, error) {
	src := filepath.Join(dir, importDir)
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(src, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, importDir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Ledger is the part of the engine Post needs.
type Ledger interface {
	AddTransaction(t *ledger.Transaction) error
}

// Result counts what Post did.
type Result struct {
	Added   int
	Skipped int
}

// Post books txns against account, balancing each row with offset. Rows
// whose reference already appears on account are skipped. Posting stops
// at the first rejected transaction.
func Post(ctx context.Context, l Ledger, account, offset *ledger.Account, txns []BankTransaction) (Result, error) {
	var res Result
	if account == nil || offset == nil {
		return res, fmt.Errorf("account and offset account are required")
	}

	seen := make(map[string]bool)
	for _, t := range account.Transactions() {
		if t.FitID != "" {
			seen[t.FitID] = true
		}
	}

	for _, bt := range txns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if bt.Amount.IsZero() || (bt.Reference != "" && seen[bt.Reference]) {
			res.Skipped++
			continue
		}

		tx := ledger.NewTransaction(bt.Date)
		tx.FitID = bt.Reference
		tx.Number = bt.Number
		tx.Payee = bt.Description
		tx.SetMemo(bt.Description)

		credit, debit := account, offset
		if bt.Amount.IsNegative() {
			credit, debit = offset, account
		}
		if err := tx.AddEntry(ledger.NewEntry(credit, debit, bt.Amount)); err != nil {
			return res, err
		}
		if err := l.AddTransaction(tx); err != nil {
			return res, fmt.Errorf("posting %s %q: %w", bt.Date, bt.Description, err)
		}
		seen[bt.Reference] = true
		res.Added++
	}
	return res, nil
}
