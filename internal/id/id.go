// Package id issues the 128-bit identifiers every ledger object carries.
package id

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a stored object. Two objects are equal iff their IDs match.
type ID = uuid.UUID

// Nil is the zero ID.
var Nil = uuid.Nil

// New returns a fresh random ID.
func New() ID {
	return uuid.New()
}

// Parse parses the canonical textual form of an ID.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// Compare orders IDs by their byte representation, which matches the order of their string forms.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// Short returns the first 8 hex digits, used in log lines and CLI listings.
func Short(v ID) string {
	return v.String()[:8]
}
