package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Channel:   "ACCOUNT",
		Event:     "ACCOUNT_ADD",
		Source:    "default",
		SubjectID: "0b6f8c1e-7d2a-4a7e-9d2f-3c1e5b7a9d10",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ACCOUNT_ADD", entries[0].Event)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Event = "ACCOUNT_REMOVE_FAILED"
	e2.Details = "has-children [x]: account Assets has child accounts"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ACCOUNT_ADD", entries[0].Event)
	assert.Equal(t, e2.Details, entries[1].Details)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestMarshalUnmarshal(t *testing.T) {
	e := testEntry()
	row := MarshalEntry(e)
	assert.Equal(t, "2025-01-15T10:30:00Z", row[0])

	got, err := UnmarshalEntry(row)
	require.NoError(t, err)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, e.Channel, got.Channel)
	assert.Equal(t, e.SubjectID, got.SubjectID)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 6 fields")
}

func TestFromMessage(t *testing.T) {
	tag := ledger.NewTag("work")
	m := events.NewMessage(events.ChannelTag, events.TagRemoveFailed, "books").
		With(events.PropTag, tag).
		With(events.PropMessage, "tag in use")

	e := FromMessage(m)
	assert.Equal(t, "TAG", e.Channel)
	assert.Equal(t, "TAG_REMOVE_FAILED", e.Event)
	assert.Equal(t, "books", e.Source)
	assert.Equal(t, tag.ID.String(), e.SubjectID)
	assert.Equal(t, "tag in use", e.Details)
}

func TestRecorder(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(zerolog.Nop())
	rec := NewRecorder(dir, zerolog.Nop())
	unsubscribe := rec.Subscribe(bus)

	bus.Publish(events.NewMessage(events.ChannelSystem, events.FileNewSuccess, "books"))
	bus.Publish(events.NewMessage(events.ChannelTrash, events.TrashEmptyStarted, "books"))
	unsubscribe()
	bus.Publish(events.NewMessage(events.ChannelTrash, events.TrashEmptyStopped, "books"))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "FILE_NEW_SUCCESS", entries[0].Event)
	assert.Equal(t, "TRASH_EMPTY_STARTED", entries[1].Event)
}
