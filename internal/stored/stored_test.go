package stored

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/homeledger/internal/id"
)

type thing struct {
	Marker
	id id.ID
}

func (t *thing) StoredID() id.ID { return t.id }

func TestNewTrashObject(t *testing.T) {
	obj := &thing{id: id.New()}
	assert.False(t, obj.MarkedForRemoval())

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	trash := NewTrashObject(obj, at)

	assert.True(t, obj.MarkedForRemoval())
	assert.Equal(t, obj.id, trash.Object.StoredID())
	assert.NotEqual(t, id.Nil, trash.ID)

	obj.Restore()
	assert.False(t, obj.MarkedForRemoval())
}

func TestTrashObject_Expired(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	trash := NewTrashObject(&thing{id: id.New()}, at)

	tests := []struct {
		now  time.Time
		want bool
	}{
		{at.Add(time.Minute), false},
		{at.Add(2 * time.Minute), true},
		{at.Add(time.Hour), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, trash.Expired(tt.now, 2*time.Minute), tt.now)
	}
}
