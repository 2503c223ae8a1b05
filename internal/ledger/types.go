package ledger

import (
	"fmt"
	"strings"
)

// AccountGroup is the coarse classification of an AccountType.
type AccountGroup int

const (
	GroupAsset AccountGroup = iota
	GroupLiability
	GroupEquity
	GroupIncome
	GroupExpense
	GroupInvest
	GroupSimpleInvest
	GroupRoot
)

var groupNames = [...]string{"ASSET", "LIABILITY", "EQUITY", "INCOME", "EXPENSE", "INVEST", "SIMPLEINVEST", "ROOT"}

func (g AccountGroup) String() string {
	if g >= 0 && int(g) < len(groupNames) {
		return groupNames[g]
	}
	return fmt.Sprintf("AccountGroup(%d)", int(g))
}

// AccountType is the fine-grained kind of an account.
type AccountType int

const (
	TypeAsset AccountType = iota
	TypeBank
	TypeCash
	TypeChecking
	TypeCredit
	TypeEquity
	TypeExpense
	TypeIncome
	TypeInvest
	TypeSimpleInvest
	TypeLiability
	TypeMoneyMarket
	TypeMutual
	TypeRoot
)

type accountTypeInfo struct {
	name    string
	group   AccountGroup
	mutable bool
}

var accountTypes = [...]accountTypeInfo{
	TypeAsset:        {"ASSET", GroupAsset, true},
	TypeBank:         {"BANK", GroupAsset, true},
	TypeCash:         {"CASH", GroupAsset, true},
	TypeChecking:     {"CHECKING", GroupAsset, true},
	TypeCredit:       {"CREDIT", GroupLiability, true},
	TypeEquity:       {"EQUITY", GroupEquity, true},
	TypeExpense:      {"EXPENSE", GroupExpense, true},
	TypeIncome:       {"INCOME", GroupIncome, true},
	TypeInvest:       {"INVEST", GroupInvest, false},
	TypeSimpleInvest: {"SIMPLEINVEST", GroupSimpleInvest, true},
	TypeLiability:    {"LIABILITY", GroupLiability, true},
	TypeMoneyMarket:  {"MONEYMKRT", GroupAsset, true},
	TypeMutual:       {"MUTUAL", GroupInvest, false},
	TypeRoot:         {"ROOT", GroupRoot, false},
}

func (t AccountType) valid() bool { return t >= 0 && int(t) < len(accountTypes) }

func (t AccountType) String() string {
	if t.valid() {
		return accountTypes[t].name
	}
	return fmt.Sprintf("AccountType(%d)", int(t))
}

// Group returns the AccountGroup the type belongs to.
func (t AccountType) Group() AccountGroup {
	return accountTypes[t].group
}

// Mutable reports whether an account of this type may change to another type.
func (t AccountType) Mutable() bool {
	return accountTypes[t].mutable
}

// AccountTypes returns every type except ROOT.
func AccountTypes() []AccountType {
	out := make([]AccountType, 0, len(accountTypes)-1)
	for i := range accountTypes {
		if AccountType(i) != TypeRoot {
			out = append(out, AccountType(i))
		}
	}
	return out
}

// ParseAccountType parses the name produced by String, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	for i, info := range accountTypes {
		if strings.EqualFold(info.name, s) {
			return AccountType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown account type %q", s)
}

// ReconciledState is the per-account reconciliation flag of an entry side.
type ReconciledState int

const (
	NotReconciled ReconciledState = iota
	Cleared
	Reconciled
)

var reconciledNames = [...]string{"NOT_RECONCILED", "CLEARED", "RECONCILED"}

func (s ReconciledState) String() string {
	if s >= 0 && int(s) < len(reconciledNames) {
		return reconciledNames[s]
	}
	return fmt.Sprintf("ReconciledState(%d)", int(s))
}

// ParseReconciledState parses the name produced by String.
func ParseReconciledState(s string) (ReconciledState, error) {
	for i, n := range reconciledNames {
		if strings.EqualFold(n, s) {
			return ReconciledState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reconciled state %q", s)
}

// TransactionTag classifies the purpose of an entry. TagNone marks an entry
// that was never tagged and is rejected by validation.
type TransactionTag int

const (
	TagNone TransactionTag = iota
	TagBank
	TagDividend
	TagInvestmentFee
	TagInvestmentCashTransfer
	TagGainLoss
	TagFeesOffset
	TagGainsOffset
	TagInvestment
	TagVAT
)

var tagNames = [...]string{"", "BANK", "DIVIDEND", "INVESTMENT_FEE", "INVESTMENT_CASH_TRANSFER", "GAIN_LOSS", "FEES_OFFSET", "GAINS_OFFSET", "INVESTMENT", "VAT"}

func (t TransactionTag) String() string {
	if t >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("TransactionTag(%d)", int(t))
}

// ParseTransactionTag parses the name produced by String.
func ParseTransactionTag(s string) (TransactionTag, error) {
	for i, n := range tagNames {
		if i > 0 && strings.EqualFold(n, s) {
			return TransactionTag(i), nil
		}
	}
	return TagNone, fmt.Errorf("unknown transaction tag %q", s)
}

// TransactionType is the derived shape of a plain transaction or the kind of
// an investment transaction.
type TransactionType int

const (
	Invalid TransactionType = iota
	SingleEntry
	DoubleEntry
	SplitEntry
	AddShare
	BuyShare
	SellShare
	SplitShare
	MergeShare
	RemoveShare
	Dividend
	ReinvestDividend
	ReturnOfCapital
)

var transactionTypeNames = [...]string{
	"INVALID", "SINGLENTRY", "DOUBLEENTRY", "SPLITENTRY",
	"ADDSHARE", "BUYSHARE", "SELLSHARE", "SPLITSHARE", "MERGESHARE", "REMOVESHARE",
	"DIVIDEND", "REINVESTDIV", "RETURNOFCAPITAL",
}

func (t TransactionType) String() string {
	if t >= 0 && int(t) < len(transactionTypeNames) {
		return transactionTypeNames[t]
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

// ParseTransactionType parses the name produced by String.
func ParseTransactionType(s string) (TransactionType, error) {
	for i, n := range transactionTypeNames {
		if strings.EqualFold(n, s) {
			return TransactionType(i), nil
		}
	}
	return Invalid, fmt.Errorf("unknown transaction type %q", s)
}

// IsInvestment reports whether t is one of the investment kinds.
func (t TransactionType) IsInvestment() bool {
	_, ok := investmentPolicies[t]
	return ok
}

// side names which leg of an entry the investment account sits on.
type side int

const (
	sideBoth side = iota // single-entry: investment account on both sides
	sideCredit
	sideDebit
)

// investmentPolicy is the data describing how an investment kind books its entry.
type investmentPolicy struct {
	sign       int64 // contribution of quantity to the holding
	investSide side
	priced     bool // the entry carries a per-share price
}

var investmentPolicies = map[TransactionType]investmentPolicy{
	AddShare:         {sign: 1, investSide: sideBoth, priced: true},
	BuyShare:         {sign: 1, investSide: sideCredit, priced: true},
	ReinvestDividend: {sign: 1, investSide: sideBoth, priced: true},
	SplitShare:       {sign: 1, investSide: sideBoth},
	RemoveShare:      {sign: -1, investSide: sideBoth, priced: true},
	SellShare:        {sign: -1, investSide: sideDebit, priced: true},
	MergeShare:       {sign: -1, investSide: sideBoth},
	Dividend:         {sign: 0, investSide: sideCredit},
	ReturnOfCapital:  {sign: 0, investSide: sideCredit},
}
