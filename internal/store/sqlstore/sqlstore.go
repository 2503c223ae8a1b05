// Package sqlstore persists the ledger in a SQLite file. Every object is one
// row of msgpack payload; the object graph is rebuilt in memory on open and
// every change is written through before it is applied.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/store"
	"github.com/cleared-dev/homeledger/internal/stored"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trash (
	id         TEXT PRIMARY KEY,
	object_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	deleted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS objects_kind ON objects(kind);
`

// Store is a store.Store backed by SQLite.
type Store struct {
	*store.Memory

	db   *sql.DB
	path string
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and loads its contents.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{
		Memory: store.NewMemory(),
		db:     db,
		path:   path,
		log:    log.With().Str("component", "sqlstore").Str("path", path).Logger(),
	}
	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if err := s.Memory.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Store) save(o stored.Object) error {
	payload, err := encode(o)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO objects (id, kind, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, payload = excluded.payload, updated_at = excluded.updated_at`,
		o.StoredID().String(), store.Kind(o), payload, timestamp(time.Now()),
	)
	if err != nil {
		s.log.Error().Err(err).Str("id", o.StoredID().String()).Msg("write failed")
		return fmt.Errorf("saving %s %s: %w", store.Kind(o), o.StoredID(), err)
	}
	return nil
}

// insert writes a new object, then adds it to memory.
func (s *Store) insert(o stored.Object, apply func() error) error {
	if s.Memory.Contains(o.StoredID()) {
		return fmt.Errorf("%s %s: %w", store.Kind(o), o.StoredID(), store.ErrDuplicate)
	}
	if err := s.save(o); err != nil {
		return err
	}
	return apply()
}

// replace checks o is known, then rewrites its row.
func (s *Store) replace(o stored.Object, check func() error) error {
	if err := check(); err != nil {
		return err
	}
	return s.save(o)
}

func (s *Store) AddAccount(a *ledger.Account) error {
	return s.insert(a, func() error { return s.Memory.AddAccount(a) })
}

func (s *Store) UpdateAccount(a *ledger.Account) error {
	return s.replace(a, func() error { return s.Memory.UpdateAccount(a) })
}

func (s *Store) AddCurrency(c *commodity.Currency) error {
	return s.insert(c, func() error { return s.Memory.AddCurrency(c) })
}

func (s *Store) AddSecurity(c *commodity.Security) error {
	return s.insert(c, func() error { return s.Memory.AddSecurity(c) })
}

func (s *Store) UpdateCommodity(n commodity.Node) error {
	o, ok := n.(stored.Object)
	if !ok {
		return fmt.Errorf("commodity %T: %w", n, store.ErrMissing)
	}
	return s.replace(o, func() error { return s.Memory.UpdateCommodity(n) })
}

func (s *Store) AddExchangeRate(r *commodity.ExchangeRate) error {
	return s.insert(r, func() error { return s.Memory.AddExchangeRate(r) })
}

func (s *Store) UpdateExchangeRate(r *commodity.ExchangeRate) error {
	return s.replace(r, func() error { return s.Memory.UpdateExchangeRate(r) })
}

func (s *Store) AddTransaction(t *ledger.Transaction) error {
	return s.insert(t, func() error { return s.Memory.AddTransaction(t) })
}

func (s *Store) AddBudget(b *budget.Budget) error {
	return s.insert(b, func() error { return s.Memory.AddBudget(b) })
}

func (s *Store) UpdateBudget(b *budget.Budget) error {
	return s.replace(b, func() error { return s.Memory.UpdateBudget(b) })
}

func (s *Store) AddReminder(r *reminder.Reminder) error {
	return s.insert(r, func() error { return s.Memory.AddReminder(r) })
}

func (s *Store) UpdateReminder(r *reminder.Reminder) error {
	return s.replace(r, func() error { return s.Memory.UpdateReminder(r) })
}

func (s *Store) AddTag(t *ledger.Tag) error {
	return s.insert(t, func() error { return s.Memory.AddTag(t) })
}

func (s *Store) UpdateTag(t *ledger.Tag) error {
	return s.replace(t, func() error { return s.Memory.UpdateTag(t) })
}

func (s *Store) AddConfig(c *ledger.Config) error {
	return s.insert(c, func() error { return s.Memory.AddConfig(c) })
}

func (s *Store) UpdateConfig(c *ledger.Config) error {
	return s.replace(c, func() error { return s.Memory.UpdateConfig(c) })
}

func (s *Store) AddTrash(t *stored.TrashObject) error {
	if !s.Memory.Contains(t.Object.StoredID()) {
		return fmt.Errorf("trash %s: %w", t.Object.StoredID(), store.ErrMissing)
	}
	_, err := s.db.Exec(
		`INSERT INTO trash (id, object_id, kind, deleted_at) VALUES (?, ?, ?, ?)`,
		t.ID.String(), t.Object.StoredID().String(), store.Kind(t.Object), timestamp(t.Date),
	)
	if err != nil {
		s.log.Error().Err(err).Str("id", t.Object.StoredID().String()).Msg("trash write failed")
		return fmt.Errorf("trashing %s: %w", t.Object.StoredID(), err)
	}
	return s.Memory.AddTrash(t)
}

func (s *Store) PurgeTrash(t *stored.TrashObject) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("purging %s: %w", t.ID, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM trash WHERE id = ?`, t.ID.String()); err != nil {
		return fmt.Errorf("purging %s: %w", t.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM objects WHERE id = ?`, t.Object.StoredID().String()); err != nil {
		return fmt.Errorf("purging %s: %w", t.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("purging %s: %w", t.ID, err)
	}
	return s.Memory.PurgeTrash(t)
}
