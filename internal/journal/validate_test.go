package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/day"
)

var known = PathSet{
	"Assets:Checking":    true,
	"Expenses:Groceries": true,
	"Assets:Euro":        true,
}

func balancedPair(seq string, d day.Date) []Leg {
	return []Leg{
		{EntryID: "2025-01-" + seq + "a", Date: d, Account: "Expenses:Groceries", Credit: dec("20"), Currency: "USD"},
		{EntryID: "2025-01-" + seq + "b", Date: d, Account: "Assets:Checking", Debit: dec("20"), Currency: "USD"},
	}
}

func rules(errs []ValidationError) []Rule {
	var out []Rule
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidate_Balanced(t *testing.T) {
	legs := append(balancedPair("001", day.New(2025, 1, 2)), balancedPair("002", day.New(2025, 1, 9))...)
	assert.Empty(t, ValidateLegs(legs, known, 2025, 1))
}

func TestValidate_Unbalanced(t *testing.T) {
	legs := balancedPair("001", day.New(2025, 1, 2))
	legs[1].Debit = dec("19.99")

	errs := ValidateLegs(legs, known, 2025, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleBalance, errs[0].Rule)
	assert.Equal(t, "2025-01-001", errs[0].EntryID)
	assert.Contains(t, errs[0].Error(), "debits (19.99) != credits (20)")
}

func TestValidate_ExchangeNotBalanced(t *testing.T) {
	legs := balancedPair("001", day.New(2025, 1, 2))
	legs[0].Account = "Assets:Euro"
	legs[0].Currency = "EUR"
	legs[0].Credit = dec("18")
	assert.Empty(t, ValidateLegs(legs, known, 2025, 1))
}

func TestValidate_SingleLeg(t *testing.T) {
	legs := []Leg{{EntryID: "2025-01-001a", Date: day.New(2025, 1, 5), Account: "Assets:Checking", Debit: dec("3")}}
	assert.Empty(t, ValidateLegs(legs, known, 2025, 1))
}

func TestValidate_BothDebitAndCredit(t *testing.T) {
	legs := []Leg{{EntryID: "2025-01-001a", Date: day.New(2025, 1, 5), Account: "Assets:Checking", Debit: dec("3"), Credit: dec("3")}}
	assert.Equal(t, []Rule{RuleOneSide}, rules(ValidateLegs(legs, known, 2025, 1)))
}

func TestValidate_UnknownAccount(t *testing.T) {
	legs := balancedPair("001", day.New(2025, 1, 2))
	legs[0].Account = "Expenses:Nope"
	errs := ValidateLegs(legs, known, 2025, 1)
	assert.Equal(t, []Rule{RuleAccount}, rules(errs))
	assert.Equal(t, "2025-01-001a", errs[0].EntryID)
}

func TestValidate_WrongMonth(t *testing.T) {
	legs := balancedPair("001", day.New(2025, 2, 1))
	assert.Equal(t, []Rule{RuleMonth, RuleMonth}, rules(ValidateLegs(legs, known, 2025, 1)))
}

func TestValidate_NonContiguousSeq(t *testing.T) {
	legs := append(balancedPair("001", day.New(2025, 1, 2)), balancedPair("003", day.New(2025, 1, 3))...)
	errs := ValidateLegs(legs, known, 2025, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleSequence, errs[0].Rule)
	assert.Contains(t, errs[0].Description, "missing sequence 2 in 1..2")
}

func TestValidate_BadEntryID(t *testing.T) {
	legs := []Leg{{EntryID: "bogus", Date: day.New(2025, 1, 5), Account: "Assets:Checking", Debit: dec("3")}}
	assert.Equal(t, []Rule{RuleSequence}, rules(ValidateLegs(legs, known, 2025, 1)))
}

func TestValidate_EmptyLegs(t *testing.T) {
	assert.Empty(t, ValidateLegs(nil, known, 2025, 1))
}
