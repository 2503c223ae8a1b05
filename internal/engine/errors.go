package engine

import (
	"errors"
	"fmt"
)

// Error kinds returned by engine operations. Test with errors.Is.
var (
	// ErrValidation marks an operation refused by a ledger rule.
	ErrValidation = errors.New("validation failed")
	// ErrContract marks a call that can never succeed, such as a cyclic move.
	ErrContract = errors.New("contract violation")
	// ErrPersistence marks a store write that failed. The in-memory graph
	// was rolled back.
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("not found")
	ErrClosed      = errors.New("engine is not ready")
)

// Rules reported by ValidationError.
const (
	RuleLockedAccount     = "locked-account"
	RulePlaceholder       = "placeholder-account"
	RuleUnknownAccount    = "unknown-account"
	RuleDuplicateID       = "duplicate-id"
	RuleNoEntries         = "no-entries"
	RuleEntryTag          = "entry-tag"
	RuleEntryAccounts     = "entry-accounts"
	RuleEntryAmounts      = "entry-amounts"
	RuleCommonAccount     = "common-account"
	RuleSecurityNotHeld   = "security-not-held"
	RuleDuplicateSymbol   = "duplicate-symbol"
	RuleDuplicateName     = "duplicate-name"
	RuleInvalidValue      = "invalid-value"
	RuleInUse             = "in-use"
	RuleHasChildren       = "has-children"
	RuleHasTransactions   = "has-transactions"
	RuleAttribute         = "attribute"
	RuleImmutableCurrency = "immutable-currency"
)

// ValidationError describes a single rule an operation broke.
type ValidationError struct {
	Rule        string
	Subject     string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Subject, e.Description)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(rule, subject, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Subject: subject, Description: fmt.Sprintf(format, args...)}
}

// joinValidation returns nil for no errors, the error itself for one, and a
// joined error otherwise.
func joinValidation(errs []*ValidationError) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

func contract(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
