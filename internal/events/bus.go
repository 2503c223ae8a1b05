package events

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives messages from the channels it subscribed to.
type Listener interface {
	MessagePosted(m *Message)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(m *Message)

// MessagePosted calls f(m).
func (f ListenerFunc) MessagePosted(m *Message) { f(m) }

type subscription struct {
	id       uint64
	listener Listener
}

// Bus delivers messages synchronously, in subscription order, on the
// publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Channel][]subscription
	log    zerolog.Logger
}

// NewBus returns an empty bus logging every message at debug level.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[Channel][]subscription),
		log:  log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers l for channels, or for every channel when none are
// named. The returned function removes the subscription.
func (b *Bus) Subscribe(l Listener, channels ...Channel) func() {
	if len(channels) == 0 {
		channels = Channels()
	}
	b.mu.Lock()
	b.nextID++
	sid := b.nextID
	for _, ch := range channels {
		b.subs[ch] = append(b.subs[ch], subscription{id: sid, listener: l})
	}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, ch := range channels {
			b.subs[ch] = slices.DeleteFunc(b.subs[ch], func(s subscription) bool { return s.id == sid })
		}
	}
}

// Publish delivers m to the listeners of its channel. A nil bus drops it.
func (b *Bus) Publish(m *Message) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := slices.Clone(b.subs[m.Channel])
	b.mu.RUnlock()

	b.log.Debug().
		Str("channel", string(m.Channel)).
		Str("event", string(m.Event)).
		Str("source", m.Source).
		Int("listeners", len(subs)).
		Msg("message posted")

	for _, s := range subs {
		s.listener.MessagePosted(m)
	}
}

// Recorder is a Listener keeping every message, for tests and diagnostics.
type Recorder struct {
	mu       sync.Mutex
	messages []*Message
}

// MessagePosted implements Listener.
func (r *Recorder) MessagePosted(m *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns the recorded messages in arrival order.
func (r *Recorder) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

// Events returns the recorded event names in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Event)
	}
	return out
}

// Reset drops the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
