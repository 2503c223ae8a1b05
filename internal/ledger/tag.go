package ledger

import (
	"cmp"
	"strings"

	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Tag is a user label attached to entries.
type Tag struct {
	stored.Marker

	ID          id.ID
	Name        string
	Color       string
	Description string
}

// NewTag returns a tag named name.
func NewTag(name string) *Tag {
	return &Tag{ID: id.New(), Name: strings.TrimSpace(name)}
}

// StoredID implements stored.Object.
func (t *Tag) StoredID() id.ID { return t.ID }

func (t *Tag) String() string { return t.Name }

// CompareTags orders tags by name, then id.
func CompareTags(a, b *Tag) int {
	if r := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); r != 0 {
		return r
	}
	return id.Compare(a.ID, b.ID)
}
