package journal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule names a journal consistency check.
type Rule string

const (
	RuleBalance  Rule = "balance"
	RuleOneSide  Rule = "one-side"
	RuleAccount  Rule = "account"
	RuleMonth    Rule = "month"
	RuleSequence Rule = "sequence"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        Rule
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// AccountChecker tests whether an account path exists in the ledger.
type AccountChecker interface {
	Exists(path string) bool
}

// ValidateLegs checks a month of journal legs. Entry groups spanning more
// than one currency are exchanges and are not required to balance.
func ValidateLegs(legs []Leg, accounts AccountChecker, year, month int) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]Leg)
	var groupOrder []string
	for _, leg := range legs {
		g := leg.EntryGroup()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], leg)
	}

	for _, g := range groupOrder {
		groupLegs := groups[g]
		if len(groupLegs) < 2 || !sameCurrency(groupLegs) {
			continue
		}
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero
		for _, leg := range groupLegs {
			totalDebit = totalDebit.Add(leg.Debit)
			totalCredit = totalCredit.Add(leg.Credit)
		}
		if !totalDebit.Equal(totalCredit) {
			errs = append(errs, ValidationError{
				Rule:        RuleBalance,
				EntryID:     g,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit, totalCredit),
			})
		}
	}

	for _, leg := range legs {
		if !leg.Debit.IsZero() && !leg.Credit.IsZero() {
			errs = append(errs, ValidationError{
				Rule:        RuleOneSide,
				EntryID:     leg.EntryID,
				Description: "leg has both debit and credit",
			})
		}

		if !accounts.Exists(leg.Account) {
			errs = append(errs, ValidationError{
				Rule:        RuleAccount,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("unknown account %q", leg.Account),
			})
		}

		if leg.Date.Year() != year || int(leg.Date.Month()) != month {
			errs = append(errs, ValidationError{
				Rule:        RuleMonth,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", leg.Date, year, month),
			})
		}
	}

	// Sequences must be contiguous 1..N.
	seqSeen := make(map[int]bool)
	for _, leg := range legs {
		_, _, seq, err := ParseEntryID(leg.EntryID)
		if err != nil {
			errs = append(errs, ValidationError{
				Rule:        RuleSequence,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("invalid entry ID: %v", err),
			})
			continue
		}
		seqSeen[seq] = true
	}
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			errs = append(errs, ValidationError{
				Rule:        RuleSequence,
				EntryID:     fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seqSeen)),
			})
		}
	}

	return errs
}

func sameCurrency(legs []Leg) bool {
	for _, l := range legs[1:] {
		if l.Currency != legs[0].Currency {
			return false
		}
	}
	return true
}
