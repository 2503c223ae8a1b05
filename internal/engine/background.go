package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/quotes"
	"github.com/cleared-dev/homeledger/internal/scheduler"
)

const (
	updatePollTimeout = time.Minute
	maxUpdateFailures = 2
	stopGracePeriod   = 15 * time.Second
	updateSecurities  = "securities"
	updateRates       = "rates"
	trashSweepJobName = "trash-sweep"
)

var errTooManyFailures = errors.New("too many update failures")

// startBackgroundServices schedules the trash sweep and, when enabled, the
// delayed startup updates.
func (e *Engine) startBackgroundServices() {
	e.bgCtx, e.bgCancel = context.WithCancel(context.Background())
	e.sched = scheduler.New(e.log)
	if err := e.sched.Every(e.opts.TrashSweepInterval, scheduler.Func{JobName: trashSweepJobName, Fn: e.sweepTrash}); err != nil {
		e.log.Error().Err(err).Msg("trash sweep not scheduled")
	}
	e.sched.Start()

	var secs, rates bool
	e.read(func() {
		today := e.today()
		secs = e.shouldUpdate(e.config.UpdateSecuritiesOnStart, e.config.LastSecuritiesUpdate, today)
		rates = e.shouldUpdate(e.config.UpdateRatesOnStart, e.config.LastRatesUpdate, today)
	})
	if secs {
		e.after(e.opts.UpdateDelay, func(ctx context.Context) {
			if err := e.StartSecuritiesUpdate(ctx); err != nil {
				e.log.Warn().Err(err).Msg("startup security update not started")
			}
		})
	}
	if rates {
		e.after(e.opts.UpdateDelay, func(ctx context.Context) {
			if err := e.StartExchangeRateUpdate(ctx); err != nil {
				e.log.Warn().Err(err).Msg("startup exchange rate update not started")
			}
		})
	}
}

// shouldUpdate gates the startup updates: enabled, a weekday, and not
// already done today.
func (e *Engine) shouldUpdate(enabled bool, last, today day.Date) bool {
	if !enabled && !e.opts.UpdateOnStartup {
		return false
	}
	switch today.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return last.Before(today)
}

func (e *Engine) sweepTrash() error {
	err := e.EmptyTrash()
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// after runs fn on a tracked goroutine once d has passed, unless the
// background services stop first.
func (e *Engine) after(d time.Duration, fn func(ctx context.Context)) {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-e.bgCtx.Done():
		case <-timer.C:
			fn(e.bgCtx)
		}
	}()
}

// StopBackgroundServices stops the scheduler and waits for background
// goroutines, retrying the wait once. Timeouts are logged, not returned.
func (e *Engine) StopBackgroundServices() {
	e.stopOnce.Do(func() {
		if e.bgCancel == nil {
			return
		}
		e.bgCancel()

		if err := e.sched.Stop(stopGracePeriod); err != nil {
			e.log.Warn().Err(err).Msg("scheduler slow to stop, retrying")
			if err := e.sched.Stop(stopGracePeriod); err != nil {
				e.log.Error().Err(err).Msg("scheduler did not stop")
			}
		}

		done := make(chan struct{})
		go func() {
			e.bg.Wait()
			close(done)
		}()
		for attempt := 1; attempt <= 2; attempt++ {
			select {
			case <-done:
				e.log.Debug().Msg("background services stopped")
				return
			case <-time.After(stopGracePeriod):
				e.log.Warn().Int("attempt", attempt).Msg("background tasks still running")
			}
		}
		e.log.Error().Msg("background tasks did not stop")
	})
}

// beginUpdate claims the named update; false when it is already running.
func (e *Engine) beginUpdate(name string) bool {
	e.updateMu.Lock()
	defer e.updateMu.Unlock()
	if e.updating[name] {
		return false
	}
	e.updating[name] = true
	return true
}

func (e *Engine) endUpdate(name string) {
	e.updateMu.Lock()
	defer e.updateMu.Unlock()
	delete(e.updating, name)
}

// Updating reports whether the named background update is running.
func (e *Engine) Updating(name string) bool {
	e.updateMu.Lock()
	defer e.updateMu.Unlock()
	return e.updating[name]
}

// StartSecuritiesUpdate fetches the latest price of every security from
// the configured source. It returns once the work is started; progress is
// reported with SECURITY_HISTORY_UPDATE_* events.
func (e *Engine) StartSecuritiesUpdate(ctx context.Context) error {
	src := e.opts.SecuritySource
	if src == nil {
		return contract("no security quote source configured")
	}
	secs := e.Securities()
	tasks := make([]updateTask, 0, len(secs))
	for _, s := range secs {
		s := s
		tasks = append(tasks, func(ctx context.Context) error {
			n, err := src.Quote(ctx, s)
			if errors.Is(err, quotes.ErrNoQuote) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("quote %s: %w", s.Symbol, err)
			}
			return e.AddSecurityHistory(s, n)
		})
	}
	return e.startUpdate(ctx, updateSecurities, tasks,
		events.SecurityHistoryUpdateStarted, events.SecurityHistoryUpdateFinished, events.SecurityHistoryUpdateFailed,
		func(c *ledger.Config, d day.Date) { c.LastSecuritiesUpdate = d })
}

// StartExchangeRateUpdate fetches the rate from the default currency to
// every other active currency. Progress is reported with
// EXCHANGE_RATE_UPDATE_* events.
func (e *Engine) StartExchangeRateUpdate(ctx context.Context) error {
	src := e.opts.RateSource
	if src == nil {
		return contract("no exchange rate source configured")
	}
	def := e.DefaultCurrency()
	var tasks []updateTask
	for _, c := range e.ActiveCurrencies() {
		if c == def {
			continue
		}
		c := c
		tasks = append(tasks, func(ctx context.Context) error {
			r, err := src.Rate(ctx, def.Symbol, c.Symbol)
			if errors.Is(err, quotes.ErrNoQuote) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("rate %s/%s: %w", def.Symbol, c.Symbol, err)
			}
			return e.SetExchangeRate(def, c, r, e.today())
		})
	}
	return e.startUpdate(ctx, updateRates, tasks,
		events.ExchangeRateUpdateStarted, events.ExchangeRateUpdateFinished, events.ExchangeRateUpdateFailed,
		func(c *ledger.Config, d day.Date) { c.LastRatesUpdate = d })
}

func (e *Engine) startUpdate(ctx context.Context, name string, tasks []updateTask, started, finished, failed events.Event, stamp func(*ledger.Config, day.Date)) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !e.beginUpdate(name) {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.bgCtx, cancel)

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		defer e.endUpdate(name)
		defer stop()
		defer cancel()

		log := e.log.With().Str("update", name).Logger()
		e.publish(events.NewMessage(events.ChannelCommodity, started, e.name))
		sup := updateSupervisor{pollTimeout: updatePollTimeout, maxFailures: maxUpdateFailures}
		failures, err := sup.run(ctx, tasks)
		if err != nil {
			log.Warn().Err(err).Int("failures", failures).Msg("update cancelled")
			e.publish(events.NewMessage(events.ChannelCommodity, failed, e.name).With(events.PropMessage, err.Error()))
			return
		}
		err = e.mutate(events.ChannelConfig, events.ConfigModify, events.ConfigModifyFailed, events.PropConfig, name, func(*batch) error {
			today := e.today()
			return e.updateConfig(func(c *ledger.Config) { stamp(c, today) })
		})
		if err != nil {
			log.Warn().Err(err).Msg("last update date not recorded")
		}
		log.Info().Int("tasks", len(tasks)).Int("failures", failures).Msg("update finished")
		e.publish(events.NewMessage(events.ChannelCommodity, finished, e.name))
	}()
	return nil
}

type updateTask func(ctx context.Context) error

// updateSupervisor runs tasks concurrently and collects their results. A
// poll that waits longer than pollTimeout counts as a failure; once
// failures exceed maxFailures the remaining tasks are cancelled.
type updateSupervisor struct {
	pollTimeout time.Duration
	maxFailures int
}

func (s updateSupervisor) run(ctx context.Context, tasks []updateTask) (failures int, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, len(tasks))
	for _, t := range tasks {
		t := t
		go func() {
			if err := ctx.Err(); err != nil {
				results <- err
				return
			}
			results <- t(ctx)
		}()
	}

	timer := time.NewTimer(s.pollTimeout)
	defer timer.Stop()
	for range tasks {
		timer.Reset(s.pollTimeout)
		select {
		case err := <-results:
			if err != nil {
				failures++
			}
		case <-timer.C:
			failures++
		case <-ctx.Done():
			return failures, ctx.Err()
		}
		if failures > s.maxFailures {
			return failures, fmt.Errorf("%w: %d", errTooManyFailures, failures)
		}
	}
	return failures, ctx.Err()
}

// RemoveSecurityHistoryByDayOfWeek removes, in the background, every price
// of s dated on one of weekdays. Removals are paced so foreground work is
// not starved of the write lock.
func (e *Engine) RemoveSecurityHistoryByDayOfWeek(s *commodity.Security, weekdays ...time.Weekday) error {
	if err := e.ready(); err != nil {
		return err
	}
	if s == nil {
		return contract("security is required")
	}
	var dates []day.Date
	e.read(func() {
		for _, n := range s.History() {
			if slices.Contains(weekdays, n.Date.Weekday()) {
				dates = append(dates, n.Date)
			}
		}
	})
	if len(dates) == 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(e.opts.HistoryRemovalSpacing), 1)
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		e.publish(events.NewMessage(events.ChannelSystem, events.BackgroundProcessStarted, e.name).With(events.PropCommodity, s))
		defer e.publish(events.NewMessage(events.ChannelSystem, events.BackgroundProcessStopped, e.name).With(events.PropCommodity, s))

		removed := 0
		for _, d := range dates {
			if err := limiter.Wait(e.bgCtx); err != nil {
				break
			}
			if err := e.RemoveSecurityHistory(s, d); err != nil {
				if errors.Is(err, ErrClosed) {
					break
				}
				continue
			}
			removed++
		}
		e.log.Info().Str("security", s.Symbol).Int("removed", removed).Int("matched", len(dates)).Msg("history removal finished")
	}()
	return nil
}
