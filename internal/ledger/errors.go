package ledger

import "errors"

var (
	ErrImmutableType     = errors.New("account type cannot be changed")
	ErrSelfParent        = errors.New("account cannot be its own parent")
	ErrDuplicateChild    = errors.New("account is already a child")
	ErrPlaceholder       = errors.New("placeholder accounts cannot hold transactions")
	ErrEmptyAttributeKey = errors.New("attribute key is empty")
	ErrAttributeTooLong  = errors.New("attribute value exceeds maximum length")
	ErrNotInvestment     = errors.New("account does not hold securities")
	ErrSecurityInUse     = errors.New("security is used by transactions")
)
