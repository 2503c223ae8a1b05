// Package engine is the single entry point for reading and changing a
// ledger. It serialises every mutation behind one read/write lock, persists
// through a store.Store, and announces each change on the events bus after
// the lock is released.
package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/lockmgr"
	"github.com/cleared-dev/homeledger/internal/quotes"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/scheduler"
	"github.com/cleared-dev/homeledger/internal/store"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Defaults for Options.
const (
	DefaultTrashMaxAge           = 2 * time.Minute
	DefaultTrashSweepInterval    = 5*time.Minute + 45*time.Second
	DefaultUpdateDelay           = 30 * time.Second
	DefaultHistoryRemovalSpacing = 750 * time.Millisecond
	DefaultCurrencySymbol        = "USD"
)

// State is the lifecycle of an engine.
type State int32

const (
	Uninitialized State = iota
	Ready
	ShuttingDown
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case Ready:
		return "READY"
	case ShuttingDown:
		return "SHUTTING_DOWN"
	case Closed:
		return "CLOSED"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Options configures New. Zero values take the defaults above.
type Options struct {
	Name            string
	Logger          zerolog.Logger
	Bus             *events.Bus
	Locks           *lockmgr.Manager
	Clock           func() time.Time
	DefaultCurrency string

	TrashMaxAge           time.Duration
	TrashSweepInterval    time.Duration
	HistoryRemovalSpacing time.Duration

	SecuritySource  quotes.SecuritySource
	RateSource      quotes.RateSource
	UpdateOnStartup bool
	UpdateDelay     time.Duration
}

// Engine owns one ledger.
type Engine struct {
	name  string
	store store.Store
	log   zerolog.Logger
	bus   *events.Bus
	lock  *sync.RWMutex
	now   func() time.Time
	opts  Options
	state atomic.Int32

	rates  *commodity.RateTable
	root   *ledger.Account
	config *ledger.Config

	sched    *scheduler.Scheduler
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
	stopOnce sync.Once

	updateMu sync.Mutex
	updating map[string]bool
}

// New opens the ledger held by st. A new store is seeded with a root
// account, the default currency and the settings object.
func New(st store.Store, opts Options) (*Engine, error) {
	if st == nil {
		return nil, contract("store is nil")
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	if opts.Locks == nil {
		opts.Locks = lockmgr.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = DefaultCurrencySymbol
	}
	if opts.TrashMaxAge <= 0 {
		opts.TrashMaxAge = DefaultTrashMaxAge
	}
	if opts.TrashSweepInterval <= 0 {
		opts.TrashSweepInterval = DefaultTrashSweepInterval
	}
	if opts.UpdateDelay <= 0 {
		opts.UpdateDelay = DefaultUpdateDelay
	}
	if opts.HistoryRemovalSpacing <= 0 {
		opts.HistoryRemovalSpacing = DefaultHistoryRemovalSpacing
	}

	e := &Engine{
		name:     opts.Name,
		store:    st,
		log:      opts.Logger.With().Str("component", "engine").Str("engine", opts.Name).Logger(),
		bus:      opts.Bus,
		lock:     opts.Locks.Lock(opts.Name),
		now:      opts.Clock,
		opts:     opts,
		rates:    commodity.NewRateTable(),
		updating: make(map[string]bool),
	}
	ledger.SetLogger(opts.Logger)

	e.lock.Lock()
	created, err := e.load()
	if err == nil {
		err = e.checkAndCorrect()
	}
	if err != nil {
		e.lock.Unlock()
		return nil, err
	}
	e.state.Store(int32(Ready))
	e.lock.Unlock()

	ev := events.FileLoadSuccess
	if created {
		ev = events.FileNewSuccess
	}
	e.publish(events.NewMessage(events.ChannelSystem, ev, e.name))
	e.log.Info().Bool("new", created).Int("accounts", len(st.Accounts())).Msg("ledger ready")

	e.startBackgroundServices()
	return e, nil
}

// load wires the stored graph into the engine and seeds an empty store.
func (e *Engine) load() (created bool, err error) {
	for _, r := range e.store.ExchangeRates() {
		e.rates.Put(r)
	}
	for _, c := range e.store.Currencies() {
		c.SetRateLookup(e.rates)
	}

	roots := e.store.RootAccounts()
	if len(roots) == 0 {
		created = true
		def := e.findCurrency(e.opts.DefaultCurrency)
		if def == nil {
			def = commodity.NewCurrency(e.opts.DefaultCurrency)
			def.SetRateLookup(e.rates)
			if err := e.store.AddCurrency(def); err != nil {
				return created, fmt.Errorf("%w: seeding currency: %w", ErrPersistence, err)
			}
		}
		e.root = ledger.NewRootAccount(def)
		if err := e.store.AddAccount(e.root); err != nil {
			return created, fmt.Errorf("%w: seeding root account: %w", ErrPersistence, err)
		}
	} else {
		e.root = roots[0]
	}

	configs := e.store.Configs()
	if len(configs) == 0 {
		e.config = ledger.NewConfig(e.root.Currency())
		if err := e.store.AddConfig(e.config); err != nil {
			return created, fmt.Errorf("%w: seeding settings: %w", ErrPersistence, err)
		}
	} else {
		e.config = configs[0]
	}
	return created, nil
}

// Name returns the engine name the big lock is registered under.
func (e *Engine) Name() string { return e.name }

// State returns the lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Store returns the collaborator the engine persists through.
func (e *Engine) Store() store.Store { return e.store }

// batch collects the messages an operation publishes once the lock is released.
type batch struct {
	source string
	msgs   []*events.Message
}

func (b *batch) add(ch events.Channel, ev events.Event, p events.Property, v any) {
	b.msgs = append(b.msgs, events.NewMessage(ch, ev, b.source).With(p, v))
}

// mutate runs fn under the write lock and publishes what it queued, then
// the outcome event: ok on success, failed with the error text otherwise.
func (e *Engine) mutate(ch events.Channel, ok, failed events.Event, p events.Property, v any, fn func(*batch) error) error {
	b := &batch{source: e.name}
	e.lock.Lock()
	err := e.ready()
	if err == nil {
		err = fn(b)
	}
	e.lock.Unlock()

	if err != nil {
		e.logFailure(failed, err)
		e.publish(events.NewMessage(ch, failed, e.name).With(p, v).With(events.PropMessage, err.Error()))
		return err
	}
	for _, m := range b.msgs {
		e.publish(m)
	}
	if ok != "" {
		e.publish(events.NewMessage(ch, ok, e.name).With(p, v))
	}
	return nil
}

func (e *Engine) logFailure(ev events.Event, err error) {
	switch {
	case errors.Is(err, ErrPersistence):
		e.log.Error().Err(err).Str("event", string(ev)).Msg("store write failed")
	case errors.Is(err, ErrClosed):
		e.log.Debug().Err(err).Str("event", string(ev)).Msg("engine not ready")
	default:
		e.log.Warn().Err(err).Str("event", string(ev)).Msg("operation refused")
	}
}

// read runs fn under the read lock.
func (e *Engine) read(fn func()) {
	e.lock.RLock()
	defer e.lock.RUnlock()
	fn()
}

func (e *Engine) ready() error {
	if s := e.State(); s != Ready {
		return fmt.Errorf("%w: %s", ErrClosed, s)
	}
	return nil
}

func (e *Engine) publish(m *events.Message) {
	e.bus.Publish(m)
}

func (e *Engine) today() day.Date { return day.Of(e.now()) }

func (e *Engine) known(k id.ID) bool {
	o, ok := e.store.ObjectByID(k)
	return ok && !o.MarkedForRemoval()
}

// persist wraps a store error as ErrPersistence.
func persist(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// trash moves o to the trash. The object stays unmarked when the store
// refuses.
func (e *Engine) trash(o stored.Object) error {
	t := stored.NewTrashObject(o, e.now())
	if err := e.store.AddTrash(t); err != nil {
		o.Restore()
		return persist(err)
	}
	return nil
}

// Accounts

// RootAccount returns the root of the account tree.
func (e *Engine) RootAccount() *ledger.Account {
	var r *ledger.Account
	e.read(func() { r = e.root })
	return r
}

// AccountList returns every live account except the root, ordered by path.
func (e *Engine) AccountList() []*ledger.Account {
	var out []*ledger.Account
	e.read(func() {
		sep := e.config.AccountSeparator
		for _, a := range e.store.Accounts() {
			if !a.IsRoot() {
				out = append(out, a)
			}
		}
		slices.SortFunc(out, func(a, b *ledger.Account) int {
			return cmp.Compare(strings.ToLower(a.PathName(sep)), strings.ToLower(b.PathName(sep)))
		})
	})
	return out
}

// Accounts returns the live accounts of group g.
func (e *Engine) Accounts(g ledger.AccountGroup) []*ledger.Account {
	var out []*ledger.Account
	for _, a := range e.AccountList() {
		if a.MemberOf(g) {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) IncomeAccountList() []*ledger.Account  { return e.Accounts(ledger.GroupIncome) }
func (e *Engine) ExpenseAccountList() []*ledger.Account { return e.Accounts(ledger.GroupExpense) }

// InvestmentAccountList returns the accounts that hold securities.
func (e *Engine) InvestmentAccountList() []*ledger.Account { return e.Accounts(ledger.GroupInvest) }

// AccountByID returns the live account k.
func (e *Engine) AccountByID(k id.ID) (*ledger.Account, bool) {
	var (
		a  *ledger.Account
		ok bool
	)
	e.read(func() {
		o, found := e.store.ObjectByID(k)
		a, ok = o.(*ledger.Account)
		ok = found && ok && !a.MarkedForRemoval()
	})
	return a, ok
}

// AccountByName returns the first live account named name.
func (e *Engine) AccountByName(name string) (*ledger.Account, bool) {
	for _, a := range e.AccountList() {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// AccountByPath resolves a separator-joined path such as "Assets:Checking".
func (e *Engine) AccountByPath(path string) (*ledger.Account, bool) {
	sep := e.AccountSeparator()
	for _, a := range e.AccountList() {
		if strings.EqualFold(a.PathName(sep), path) {
			return a, true
		}
	}
	return nil, false
}

// Transactions returns every live transaction in ledger order.
func (e *Engine) Transactions() []*ledger.Transaction {
	var out []*ledger.Transaction
	e.read(func() {
		out = e.store.Transactions()
	})
	slices.SortFunc(out, ledger.Compare)
	return out
}

// Commodities

func (e *Engine) Currencies() []*commodity.Currency {
	var out []*commodity.Currency
	e.read(func() { out = e.store.Currencies() })
	slices.SortFunc(out, func(a, b *commodity.Currency) int { return commodity.Compare(a, b) })
	return out
}

// Currency returns the currency with symbol, ignoring case.
func (e *Engine) Currency(symbol string) (*commodity.Currency, bool) {
	var c *commodity.Currency
	e.read(func() { c = e.findCurrency(symbol) })
	return c, c != nil
}

func (e *Engine) findCurrency(symbol string) *commodity.Currency {
	for _, c := range e.store.Currencies() {
		if strings.EqualFold(c.Symbol, symbol) {
			return c
		}
	}
	return nil
}

func (e *Engine) Securities() []*commodity.Security {
	var out []*commodity.Security
	e.read(func() { out = e.store.Securities() })
	slices.SortFunc(out, func(a, b *commodity.Security) int { return commodity.Compare(a, b) })
	return out
}

// Security returns the security with symbol, ignoring case.
func (e *Engine) Security(symbol string) (*commodity.Security, bool) {
	var s *commodity.Security
	e.read(func() { s = e.findSecurity(symbol) })
	return s, s != nil
}

func (e *Engine) findSecurity(symbol string) *commodity.Security {
	for _, s := range e.store.Securities() {
		if strings.EqualFold(s.Symbol, symbol) {
			return s
		}
	}
	return nil
}

// ActiveCurrencies returns the currencies used by an account or a security.
func (e *Engine) ActiveCurrencies() []*commodity.Currency {
	var out []*commodity.Currency
	e.read(func() {
		for _, a := range e.store.Accounts() {
			if c := a.Currency(); c != nil && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
		for _, s := range e.store.Securities() {
			if s.Currency != nil && !slices.Contains(out, s.Currency) {
				out = append(out, s.Currency)
			}
		}
	})
	slices.SortFunc(out, func(a, b *commodity.Currency) int { return commodity.Compare(a, b) })
	return out
}

// DefaultCurrency returns the reporting currency of the ledger.
func (e *Engine) DefaultCurrency() *commodity.Currency {
	var c *commodity.Currency
	e.read(func() { c = e.config.DefaultCurrency })
	return c
}

// ExchangeRate returns the canonical rate object between a and b, creating
// an empty one when none is recorded.
func (e *Engine) ExchangeRate(a, b *commodity.Currency) *commodity.ExchangeRate {
	var r *commodity.ExchangeRate
	e.read(func() { r = e.rates.ExchangeRate(a, b) })
	return r
}

// ExchangeRateValue returns the current rate converting from into to.
func (e *Engine) ExchangeRateValue(from, to *commodity.Currency) decimal.Decimal {
	var r decimal.Decimal
	e.read(func() { r = from.ExchangeRate(to) })
	return r
}

// SecurityHistory returns the price history of s in date order.
func (e *Engine) SecurityHistory(s *commodity.Security) []commodity.HistoryNode {
	var out []commodity.HistoryNode
	e.read(func() { out = s.History() })
	return out
}

// Other objects

func (e *Engine) Budgets() []*budget.Budget {
	var out []*budget.Budget
	e.read(func() { out = e.store.Budgets() })
	slices.SortFunc(out, budget.Compare)
	return out
}

func (e *Engine) Reminders() []*reminder.Reminder {
	var out []*reminder.Reminder
	e.read(func() { out = e.store.Reminders() })
	slices.SortFunc(out, reminder.Compare)
	return out
}

// PendingReminders returns the enabled reminders with an occurrence due by
// now, counting each reminder's days of advance notice.
func (e *Engine) PendingReminders(now day.Date) []*reminder.Reminder {
	var out []*reminder.Reminder
	for _, r := range e.Reminders() {
		if len(r.Pending(now)) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) Tags() []*ledger.Tag {
	var out []*ledger.Tag
	e.read(func() { out = e.store.Tags() })
	slices.SortFunc(out, ledger.CompareTags)
	return out
}

// TrashObjects returns the trash oldest first.
func (e *Engine) TrashObjects() []*stored.TrashObject {
	var out []*stored.TrashObject
	e.read(func() { out = e.store.TrashObjects() })
	return out
}

// StoredObject returns any object by id, trashed or not.
func (e *Engine) StoredObject(k id.ID) (stored.Object, bool) {
	var (
		o  stored.Object
		ok bool
	)
	e.read(func() { o, ok = e.store.ObjectByID(k) })
	return o, ok
}

// AccountSeparator joins account names in path names.
func (e *Engine) AccountSeparator() string {
	var s string
	e.read(func() { s = e.config.AccountSeparator })
	return s
}

// TransactionNumberList is the list offered for a transaction number.
func (e *Engine) TransactionNumberList() []string {
	var out []string
	e.read(func() { out = slices.Clone(e.config.TransactionNumbers) })
	return out
}

// Config returns a copy of the persisted settings.
func (e *Engine) Config() *ledger.Config {
	var c *ledger.Config
	e.read(func() { c = e.config.Clone() })
	return c
}

// Close stops background work, closes the store and leaves the engine in
// the Closed state.
func (e *Engine) Close() error {
	if !e.state.CompareAndSwap(int32(Ready), int32(ShuttingDown)) {
		return fmt.Errorf("%w: %s", ErrClosed, e.State())
	}
	e.publish(events.NewMessage(events.ChannelSystem, events.FileClosing, e.name))
	e.StopBackgroundServices()

	e.lock.Lock()
	defer e.lock.Unlock()
	err := e.store.Close()
	e.state.Store(int32(Closed))
	e.log.Info().Msg("ledger closed")
	return err
}
