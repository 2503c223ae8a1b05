package engine

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/quotes"
)

func TestShouldUpdate(t *testing.T) {
	f := newFixture(t)
	monday := day.MustParse("2024-03-04")
	saturday := day.MustParse("2024-03-02")

	tests := []struct {
		name    string
		enabled bool
		last    day.Date
		today   day.Date
		want    bool
	}{
		{"disabled", false, day.Date{}, monday, false},
		{"never updated", true, day.Date{}, monday, true},
		{"updated yesterday", true, monday.AddDays(-1), monday, true},
		{"updated today", true, monday, monday, false},
		{"weekend", true, day.Date{}, saturday, false},
		{"sunday", true, day.Date{}, saturday.AddDays(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.eng.shouldUpdate(tt.enabled, tt.last, tt.today))
		})
	}

	f.eng.opts.UpdateOnStartup = true
	assert.True(t, f.eng.shouldUpdate(false, day.Date{}, monday), "option overrides the stored flag")
}

func TestUpdateSupervisor(t *testing.T) {
	boom := errors.New("quote service down")
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return boom }
	hang := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name         string
		tasks        []updateTask
		wantFailures int
		wantErr      bool
	}{
		{"all succeed", []updateTask{ok, ok, ok}, 0, false},
		{"failures within limit", []updateTask{ok, fail, fail, ok}, 2, false},
		{"too many failures", []updateTask{fail, fail, fail, ok, ok}, 3, true},
		{"slow tasks count as failures", []updateTask{hang, hang, hang}, 3, true},
		{"no tasks", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sup := updateSupervisor{pollTimeout: 20 * time.Millisecond, maxFailures: 2}
			failures, err := sup.run(context.Background(), tt.tasks)
			if tt.wantErr {
				assert.ErrorIs(t, err, errTooManyFailures)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFailures, failures)
		})
	}
}

func TestUpdateSupervisor_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sup := updateSupervisor{pollTimeout: time.Second, maxFailures: 2}
	hang := func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}
	_, err := sup.run(ctx, []updateTask{hang})
	assert.Error(t, err)
}

func TestStartSecuritiesUpdate(t *testing.T) {
	src := quotes.NewStatic()
	f := newFixture(t, func(o *Options) { o.SecuritySource = src })
	acme := commodity.NewSecurity("ACME", f.eng.DefaultCurrency())
	beta := commodity.NewSecurity("BETA", f.eng.DefaultCurrency())
	require.NoError(t, f.eng.AddSecurity(acme))
	require.NoError(t, f.eng.AddSecurity(beta))
	src.SetPrice("ACME", day.MustParse("2024-03-01"), dec("42"))

	f.rec.Reset()
	require.NoError(t, f.eng.StartSecuritiesUpdate(context.Background()))
	require.Eventually(t, func() bool {
		return slices.Contains(f.rec.Events(), events.SecurityHistoryUpdateFinished)
	}, 5*time.Second, 10*time.Millisecond)

	hist := f.eng.SecurityHistory(acme)
	require.Len(t, hist, 1)
	assertDec(t, "42", hist[0].Price)
	assert.Empty(t, f.eng.SecurityHistory(beta), "missing quotes are skipped")
	assert.Equal(t, day.MustParse("2024-03-04"), f.eng.Config().LastSecuritiesUpdate)
	assert.False(t, f.eng.Updating(updateSecurities))
}

func TestStartExchangeRateUpdate(t *testing.T) {
	src := quotes.NewStatic()
	f := newFixture(t, func(o *Options) { o.RateSource = src })
	usd := f.eng.DefaultCurrency()
	eur := commodity.NewCurrency("EUR")
	require.NoError(t, f.eng.AddCurrency(eur))
	acme := commodity.NewSecurity("ACME", eur)
	require.NoError(t, f.eng.AddSecurity(acme))
	src.SetRate("USD", "EUR", dec("0.8"))

	require.NoError(t, f.eng.StartExchangeRateUpdate(context.Background()))
	require.Eventually(t, func() bool {
		return slices.Contains(f.rec.Events(), events.ExchangeRateUpdateFinished)
	}, 5*time.Second, 10*time.Millisecond)

	assertDec(t, "0.8", f.eng.ExchangeRateValue(usd, eur))
	assert.Equal(t, day.MustParse("2024-03-04"), f.eng.Config().LastRatesUpdate)
}

func TestStartUpdate_WithoutSource(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.eng.StartSecuritiesUpdate(context.Background()), ErrContract)
	assert.ErrorIs(t, f.eng.StartExchangeRateUpdate(context.Background()), ErrContract)
}

func TestRemoveSecurityHistoryByDayOfWeek(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.HistoryRemovalSpacing = time.Millisecond })
	acme := commodity.NewSecurity("ACME", f.eng.DefaultCurrency())
	require.NoError(t, f.eng.AddSecurity(acme))
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"} {
		require.NoError(t, f.eng.AddSecurityHistory(acme, commodity.HistoryNode{Date: day.MustParse(d), Price: dec("1")}))
	}

	f.rec.Reset()
	require.NoError(t, f.eng.RemoveSecurityHistoryByDayOfWeek(acme, time.Saturday, time.Sunday))
	require.Eventually(t, func() bool {
		return slices.Contains(f.rec.Events(), events.BackgroundProcessStopped)
	}, 5*time.Second, 5*time.Millisecond)

	var left []day.Date
	for _, n := range f.eng.SecurityHistory(acme) {
		left = append(left, n.Date)
	}
	assert.Equal(t, []day.Date{day.MustParse("2024-03-01"), day.MustParse("2024-03-04")}, left)
}

func TestStopBackgroundServices_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.eng.StopBackgroundServices()
	f.eng.StopBackgroundServices()
	require.NoError(t, f.eng.Close())
}
