package chart

import "github.com/cleared-dev/homeledger/internal/ledger"

// Templates lists the names DefaultChart knows.
var Templates = []string{"personal", "minimal"}

// DefaultChart returns a starter chart. Unknown names get the personal chart.
func DefaultChart(template string) []Entry {
	switch template {
	case "minimal":
		return minimalChart()
	default:
		return personalChart()
	}
}

func minimalChart() []Entry {
	return []Entry{
		{Path: "Assets", Type: ledger.TypeAsset},
		{Path: "Assets:Checking", Type: ledger.TypeChecking},
		{Path: "Income", Type: ledger.TypeIncome},
		{Path: "Expenses", Type: ledger.TypeExpense},
		{Path: "Equity", Type: ledger.TypeEquity},
	}
}

func personalChart() []Entry {
	return []Entry{
		{Path: "Assets", Type: ledger.TypeAsset, Description: "What you own"},
		{Path: "Assets:Checking", Type: ledger.TypeChecking, Description: "Everyday bank account"},
		{Path: "Assets:Savings", Type: ledger.TypeBank, Description: "Savings account"},
		{Path: "Assets:Cash", Type: ledger.TypeCash, Description: "Wallet"},
		{Path: "Assets:Brokerage", Type: ledger.TypeInvest, Description: "Investment account"},
		{Path: "Liabilities", Type: ledger.TypeLiability, Description: "What you owe"},
		{Path: "Liabilities:Credit Card", Type: ledger.TypeCredit},
		{Path: "Liabilities:Mortgage", Type: ledger.TypeLiability},
		{Path: "Equity", Type: ledger.TypeEquity},
		{Path: "Equity:Opening Balances", Type: ledger.TypeEquity},
		{Path: "Income", Type: ledger.TypeIncome},
		{Path: "Income:Salary", Type: ledger.TypeIncome},
		{Path: "Income:Interest", Type: ledger.TypeIncome},
		{Path: "Income:Dividends", Type: ledger.TypeIncome},
		{Path: "Expenses", Type: ledger.TypeExpense},
		{Path: "Expenses:Groceries", Type: ledger.TypeExpense},
		{Path: "Expenses:Housing", Type: ledger.TypeExpense, Description: "Rent, repairs, utilities"},
		{Path: "Expenses:Transport", Type: ledger.TypeExpense},
		{Path: "Expenses:Dining", Type: ledger.TypeExpense},
		{Path: "Expenses:Fees", Type: ledger.TypeExpense, Description: "Bank and brokerage fees"},
	}
}
