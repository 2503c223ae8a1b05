// Package auditlog keeps a CSV trail of the changes an engine announces.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	Channel   string
	Event     string
	Source    string
	SubjectID string
	Details   string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,channel,event,source,subject_id,details"

// FileName is the log file created inside the audit directory.
const FileName = "audit-log.csv"

const (
	numFields    = 6
	colTimestamp = 0
	colChannel   = 1
	colEvent     = 2
	colSource    = 3
	colSubjectID = 4
	colDetails   = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colChannel] = e.Channel
	row[colEvent] = e.Event
	row[colSource] = e.Source
	row[colSubjectID] = e.SubjectID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		Channel:   record[colChannel],
		Event:     record[colEvent],
		Source:    record[colSource],
		SubjectID: record[colSubjectID],
		Details:   record[colDetails],
	}, nil
}

// FromMessage builds the row recorded for m. The subject is the first
// stored object in the payload; failures carry their message as details.
func FromMessage(m *events.Message) Entry {
	e := Entry{
		Timestamp: m.Timestamp,
		Channel:   string(m.Channel),
		Event:     string(m.Event),
		Source:    m.Source,
	}
	props := m.Properties()
	keys := make([]events.Property, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if o, ok := props[k].(stored.Object); ok && o != nil {
			e.SubjectID = o.StoredID().String()
			break
		}
	}
	if msg, ok := events.Value[string](m, events.PropMessage); ok {
		e.Details = msg
	}
	return e
}

// Append writes entries to <dir>/audit-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating audit dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder is an events.Listener appending every message it receives to
// the log in dir.
type Recorder struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

// NewRecorder returns a Recorder writing into dir.
func NewRecorder(dir string, log zerolog.Logger) *Recorder {
	return &Recorder{dir: dir, log: log.With().Str("component", "auditlog").Logger()}
}

// Subscribe registers r on every channel of bus and returns the
// unsubscribe function.
func (r *Recorder) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(r, events.Channels()...)
}

// MessagePosted implements events.Listener. Write failures are logged.
func (r *Recorder) MessagePosted(m *events.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := Append(r.dir, []Entry{FromMessage(m)}); err != nil {
		r.log.Error().Err(err).Str("event", string(m.Event)).Msg("audit write failed")
	}
}
