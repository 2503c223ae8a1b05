// Package stored defines what every persisted ledger object has in common:
// an identifier and a soft-delete flag.
package stored

import (
	"sync/atomic"
	"time"

	"github.com/cleared-dev/homeledger/internal/id"
)

// Object is implemented by every entity the store persists.
type Object interface {
	StoredID() id.ID
	MarkForRemoval()
	MarkedForRemoval() bool
	Restore()
}

// Marker is embedded by entities to carry the marked-for-removal flag.
type Marker struct {
	removed atomic.Bool
}

// MarkForRemoval flags the object as deleted.
func (m *Marker) MarkForRemoval() { m.removed.Store(true) }

// Restore clears the flag. Used when a removal could not be persisted.
func (m *Marker) Restore() { m.removed.Store(false) }

// MarkedForRemoval reports whether the object was deleted.
func (m *Marker) MarkedForRemoval() bool { return m.removed.Load() }

// TrashObject holds a removed object until the trash sweep purges it.
type TrashObject struct {
	ID     id.ID
	Object Object
	Date   time.Time
}

// NewTrashObject marks o for removal and wraps it, stamped with at.
func NewTrashObject(o Object, at time.Time) *TrashObject {
	o.MarkForRemoval()
	return &TrashObject{ID: id.New(), Object: o, Date: at}
}

// Expired reports whether the object has been in the trash for at least maxAge.
func (t *TrashObject) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(t.Date) >= maxAge
}
