package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/homeledger/internal/auditlog"
	"github.com/cleared-dev/homeledger/internal/config"
	"github.com/cleared-dev/homeledger/internal/engine"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/logging"
	"github.com/cleared-dev/homeledger/internal/quotes"
	"github.com/cleared-dev/homeledger/internal/store"
	"github.com/cleared-dev/homeledger/internal/store/sqlstore"
)

// session is one opened ledger plus everything wired around it.
type session struct {
	cfg   *config.Config
	log   zerolog.Logger
	eng   *engine.Engine
	unsub func()
}

// openSession loads the config at cfgPath and opens the ledger it names.
func openSession(ctx context.Context, cfgPath, logLevel string, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return open(ctx, cfg, stderr)
}

func open(ctx context.Context, cfg *config.Config, stderr io.Writer) (*session, error) {
	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: stderr})

	var st store.Store
	switch cfg.Data.Backend {
	case "memory":
		st = store.NewMemory()
	default:
		s, err := sqlstore.Open(ctx, cfg.Data.Path, log)
		if err != nil {
			return nil, err
		}
		st = s
	}

	bus := events.NewBus(log)
	s := &session{cfg: cfg, log: log, unsub: func() {}}
	if cfg.Audit.Enabled {
		s.unsub = auditlog.NewRecorder(cfg.Audit.Dir, log).Subscribe(bus)
	}

	// No network quote feed ships with the CLI; prices and rates entered
	// by hand are the only source, paced and cached like a remote one.
	static := quotes.NewStatic()
	limited := quotes.NewLimited(static, static, cfg.Quotes.RequestsPerSecond)
	cached := quotes.NewCached(limited, limited, cfg.Quotes.CacheTTL.Std())

	eng, err := engine.New(st, engine.Options{
		Name:               cfg.Engine.Name,
		Logger:             log,
		Bus:                bus,
		DefaultCurrency:    cfg.Engine.DefaultCurrency,
		TrashMaxAge:        cfg.Engine.TrashMaxAge.Std(),
		TrashSweepInterval: cfg.Engine.TrashSweepInterval.Std(),
		SecuritySource:     cached,
		RateSource:         cached,
		UpdateOnStartup:    cfg.Engine.UpdateOnStartup,
	})
	if err != nil {
		s.unsub()
		_ = st.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	s.eng = eng
	return s, nil
}

// Close shuts the engine down and detaches the audit recorder.
func (s *session) Close() error {
	defer s.unsub()
	return s.eng.Close()
}

// withSession opens the ledger, runs fn, and closes it again.
func withSession(ctx context.Context, opts *globalOptions, stderr io.Writer, fn func(*session) error) (err error) {
	s, err := openSession(ctx, opts.configPath, opts.logLevel, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing ledger: %w", cerr)
		}
	}()
	return fn(s)
}
