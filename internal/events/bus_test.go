package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversPerChannel(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	accounts := &Recorder{}
	all := &Recorder{}
	unsubscribe := bus.Subscribe(accounts, ChannelAccount)
	bus.Subscribe(all)

	bus.Publish(NewMessage(ChannelAccount, AccountAdd, "test"))
	bus.Publish(NewMessage(ChannelTag, TagAdd, "test"))

	assert.Equal(t, []Event{AccountAdd}, accounts.Events())
	assert.Equal(t, []Event{AccountAdd, TagAdd}, all.Events())

	unsubscribe()
	bus.Publish(NewMessage(ChannelAccount, AccountRemove, "test"))
	assert.Equal(t, []Event{AccountAdd}, accounts.Events())
	assert.Len(t, all.Messages(), 3)
}

func TestBus_Order(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var got []string
	bus.Subscribe(ListenerFunc(func(*Message) { got = append(got, "first") }), ChannelSystem)
	bus.Subscribe(ListenerFunc(func(*Message) { got = append(got, "second") }), ChannelSystem)

	bus.Publish(NewMessage(ChannelSystem, FileLoadSuccess, "test"))
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_NilDropsMessages(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(NewMessage(ChannelSystem, FileClosing, "test")) })
}

func TestMessageProperties(t *testing.T) {
	m := NewMessage(ChannelTransaction, TransactionAdd, "ledger").With(PropMessage, "hello")

	v, ok := Value[string](m, PropMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = Value[int](m, PropMessage)
	assert.False(t, ok)
	_, ok = m.Get(PropAccount)
	assert.False(t, ok)

	props := m.Properties()
	props[PropTag] = "x"
	_, ok = m.Get(PropTag)
	assert.False(t, ok, "Properties returns a copy")
	assert.Equal(t, "TRANSACTION/TRANSACTION_ADD from ledger", m.String())
}

func TestEventFailed(t *testing.T) {
	assert.True(t, AccountAddFailed.Failed())
	assert.False(t, AccountAdd.Failed())
	assert.False(t, Event("FAILED").Failed())
}
