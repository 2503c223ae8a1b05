package events

import (
	"fmt"
	"maps"
	"time"
)

// Message is one notification published on the Bus.
type Message struct {
	Channel   Channel
	Event     Event
	Source    string
	Timestamp time.Time

	props map[Property]any
}

// NewMessage returns a message from source stamped with the current time.
func NewMessage(ch Channel, ev Event, source string) *Message {
	return &Message{
		Channel:   ch,
		Event:     ev,
		Source:    source,
		Timestamp: time.Now(),
		props:     make(map[Property]any),
	}
}

// With sets a payload property and returns m for chaining.
func (m *Message) With(p Property, v any) *Message {
	m.props[p] = v
	return m
}

// Get returns the payload under p.
func (m *Message) Get(p Property) (any, bool) {
	v, ok := m.props[p]
	return v, ok
}

// Properties returns a copy of the payload.
func (m *Message) Properties() map[Property]any {
	return maps.Clone(m.props)
}

func (m *Message) String() string {
	return fmt.Sprintf("%s/%s from %s", m.Channel, m.Event, m.Source)
}

// Value returns the payload under p as a T.
func Value[T any](m *Message, p Property) (T, bool) {
	v, ok := m.props[p].(T)
	return v, ok
}
