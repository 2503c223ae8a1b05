package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/events"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/money"
)

// AddCurrency stores c. Symbols are unique among currencies.
func (e *Engine) AddCurrency(c *commodity.Currency) error {
	return e.mutate(events.ChannelCommodity, events.CurrencyAdd, events.CurrencyAddFailed, events.PropCommodity, c, func(*batch) error {
		if c == nil {
			return contract("currency is required")
		}
		if err := c.Validate(); err != nil {
			return invalid(RuleInvalidValue, c.ID.String(), "%v", err)
		}
		if e.findCurrency(c.Symbol) != nil {
			return invalid(RuleDuplicateSymbol, c.Symbol, "currency %s already exists", c.Symbol)
		}
		c.SetRateLookup(e.rates)
		return persist(e.store.AddCurrency(c))
	})
}

// AddSecurity stores s. Its reporting currency must be known.
func (e *Engine) AddSecurity(s *commodity.Security) error {
	return e.mutate(events.ChannelCommodity, events.SecurityAdd, events.SecurityAddFailed, events.PropCommodity, s, func(*batch) error {
		if s == nil {
			return contract("security is required")
		}
		if err := s.Validate(); err != nil {
			return invalid(RuleInvalidValue, s.ID.String(), "%v", err)
		}
		if e.findSecurity(s.Symbol) != nil {
			return invalid(RuleDuplicateSymbol, s.Symbol, "security %s already exists", s.Symbol)
		}
		if !e.known(s.Currency.ID) {
			return notFound("currency %s", s.Currency.Symbol)
		}
		return persist(e.store.AddSecurity(s))
	})
}

// UpdateCommodity copies the editable attributes of template onto n. Both
// must be the same kind of commodity. A currency keeps its symbol, since
// exchange rates are keyed by it; only securities can be renamed.
func (e *Engine) UpdateCommodity(n, template commodity.Node) error {
	ok, failed := events.CurrencyModify, events.CurrencyModifyFailed
	if _, isSec := n.(*commodity.Security); isSec {
		ok, failed = events.SecurityModify, events.SecurityModifyFailed
	}
	return e.mutate(events.ChannelCommodity, ok, failed, events.PropCommodity, n, func(*batch) error {
		if n == nil || template == nil {
			return contract("commodity and template are required")
		}
		base, tmpl := n.Base(), template.Base()
		if !e.known(base.ID) {
			return notFound("commodity %s", base.Symbol)
		}
		_, isSec := n.(*commodity.Security)
		if isSec && !strings.EqualFold(base.Symbol, tmpl.Symbol) && e.findSecurity(tmpl.Symbol) != nil {
			return invalid(RuleDuplicateSymbol, tmpl.Symbol, "commodity %s already exists", tmpl.Symbol)
		}
		symbol := base.Symbol
		if isSec {
			symbol = tmpl.Symbol
		}
		check := commodity.Commodity{ID: base.ID, Symbol: symbol, Scale: tmpl.Scale}
		if err := check.Validate(); err != nil {
			return invalid(RuleInvalidValue, base.ID.String(), "%v", err)
		}

		sec, _ := n.(*commodity.Security)
		var secTmpl *commodity.Security
		if isSec {
			secTmpl, _ = template.(*commodity.Security)
			if secTmpl == nil {
				return contract("template for security %s is not a security", sec.Symbol)
			}
			if secTmpl.Currency == nil || !e.known(secTmpl.Currency.ID) {
				return invalid(RuleInvalidValue, sec.ID.String(), "security needs a known reporting currency")
			}
		}

		old := commodityFieldsOf(n)
		commodityFieldsOf(template).apply(n)
		if err := e.store.UpdateCommodity(n); err != nil {
			old.apply(n)
			return persist(err)
		}
		if sec != nil {
			e.clearHolders(sec)
		}
		return nil
	})
}

// commodityFields is the editable state of a currency or security.
type commodityFields struct {
	symbol, prefix, suffix, description string
	scale                               int32
	currency                            *commodity.Currency
	quoteSource, isin                   string
}

func commodityFieldsOf(n commodity.Node) commodityFields {
	b := n.Base()
	f := commodityFields{symbol: b.Symbol, prefix: b.Prefix, suffix: b.Suffix, description: b.Description, scale: b.Scale}
	if s, ok := n.(*commodity.Security); ok {
		f.currency, f.quoteSource, f.isin = s.Currency, s.QuoteSource, s.ISIN
	}
	return f
}

func (f commodityFields) apply(n commodity.Node) {
	b := n.Base()
	b.Prefix, b.Suffix, b.Description, b.Scale = f.prefix, f.suffix, f.description, f.scale
	if s, ok := n.(*commodity.Security); ok {
		s.Symbol = f.symbol
		s.Currency, s.QuoteSource, s.ISIN = f.currency, f.quoteSource, f.isin
	}
}

// RemoveCommodity moves an unused currency or security to the trash.
func (e *Engine) RemoveCommodity(n commodity.Node) error {
	ok, failed := events.CurrencyRemove, events.CurrencyRemoveFailed
	if _, isSec := n.(*commodity.Security); isSec {
		ok, failed = events.SecurityRemove, events.SecurityRemoveFailed
	}
	return e.mutate(events.ChannelCommodity, ok, failed, events.PropCommodity, n, func(*batch) error {
		switch c := n.(type) {
		case *commodity.Currency:
			if !e.known(c.ID) {
				return notFound("currency %s", c.Symbol)
			}
			if c == e.config.DefaultCurrency {
				return invalid(RuleInUse, c.Symbol, "%s is the default currency", c.Symbol)
			}
			for _, a := range e.store.Accounts() {
				if a.Currency() == c {
					return invalid(RuleInUse, c.Symbol, "%s is used by account %s", c.Symbol, a.Name())
				}
			}
			for _, s := range e.store.Securities() {
				if s.Currency == c {
					return invalid(RuleInUse, c.Symbol, "%s reports security %s", c.Symbol, s.Symbol)
				}
			}
			return e.trash(c)
		case *commodity.Security:
			if !e.known(c.ID) {
				return notFound("security %s", c.Symbol)
			}
			for _, a := range e.store.Accounts() {
				if a.ContainsSecurity(c) {
					return invalid(RuleInUse, c.Symbol, "%s is held by account %s", c.Symbol, a.Name())
				}
			}
			return e.trash(c)
		}
		return contract("unknown commodity %T", n)
	})
}

// SetDefaultCurrency makes c the reporting currency.
func (e *Engine) SetDefaultCurrency(c *commodity.Currency) error {
	return e.mutate(events.ChannelConfig, events.ConfigModify, events.ConfigModifyFailed, events.PropCommodity, c, func(*batch) error {
		if c == nil || !e.known(c.ID) {
			return notFound("currency")
		}
		return e.updateConfig(func(cfg *ledger.Config) { cfg.DefaultCurrency = c })
	})
}

// SetExchangeRate records that 1 from = rate to on date.
func (e *Engine) SetExchangeRate(from, to *commodity.Currency, rate decimal.Decimal, date day.Date) error {
	argErr := checkRateArgs(from, to, rate)
	var r *commodity.ExchangeRate
	if argErr == nil {
		e.read(func() {
			if e.known(from.ID) && e.known(to.ID) {
				r = e.rates.ExchangeRate(from, to)
			}
		})
	}
	return e.mutate(events.ChannelCommodity, events.ExchangeRateAdd, events.ExchangeRateAddFailed, events.PropExchangeRate, r, func(*batch) error {
		if argErr != nil {
			return argErr
		}
		if !e.known(from.ID) || !e.known(to.ID) {
			return notFound("currency %s or %s", from.Symbol, to.Symbol)
		}
		_, err := e.setExchangeRate(from, to, rate, date)
		return err
	})
}

func checkRateArgs(from, to *commodity.Currency, rate decimal.Decimal) error {
	if from == nil || to == nil {
		return contract("both currencies are required")
	}
	if from.Symbol == to.Symbol {
		return invalid(RuleInvalidValue, from.Symbol, "a currency has no rate with itself")
	}
	if !rate.IsPositive() {
		return invalid(RuleInvalidValue, commodity.RateID(from.Symbol, to.Symbol), "rate %s must be positive", rate)
	}
	return nil
}

// setExchangeRate stores rate in canonical direction: 1 unit of the lower
// symbol in the higher one.
func (e *Engine) setExchangeRate(from, to *commodity.Currency, rate decimal.Decimal, date day.Date) (*commodity.ExchangeRate, error) {
	if from.Symbol > to.Symbol {
		rate = money.Reciprocal(rate)
	}
	r := e.rates.ExchangeRate(from, to)
	prev := r.RateOn(date)
	had := r.Contains(date)
	r.AddHistory(commodity.RateNode{Date: date, Rate: money.RoundPrecision(rate, money.DefaultPrecision)})

	var err error
	if _, stored := e.store.ObjectByID(r.ID); stored {
		err = e.store.UpdateExchangeRate(r)
	} else {
		err = e.store.AddExchangeRate(r)
	}
	if err != nil {
		if had {
			r.AddHistory(commodity.RateNode{Date: date, Rate: prev})
		} else {
			r.RemoveHistory(date)
		}
		return nil, persist(err)
	}
	e.clearInvestmentBalances()
	return r, nil
}

// RemoveExchangeRateHistory drops the rate recorded on date.
func (e *Engine) RemoveExchangeRateHistory(r *commodity.ExchangeRate, date day.Date) error {
	return e.mutate(events.ChannelCommodity, events.ExchangeRateRemove, events.ExchangeRateRemoveFailed, events.PropExchangeRate, r, func(*batch) error {
		if r == nil || !e.known(r.ID) {
			return notFound("exchange rate")
		}
		node, ok := r.RemoveHistory(date)
		if !ok {
			return notFound("rate %s on %s", r.RateID, date)
		}
		if err := e.store.UpdateExchangeRate(r); err != nil {
			r.AddHistory(node)
			return persist(err)
		}
		e.clearInvestmentBalances()
		return nil
	})
}

func (e *Engine) clearInvestmentBalances() {
	for _, a := range e.store.Accounts() {
		if a.MemberOf(ledger.GroupInvest) {
			a.ClearCachedBalances()
			for _, p := range a.Ancestors() {
				p.ClearCachedBalances()
			}
		}
	}
}

// AddSecurityHistory records a price for s, replacing one on the same date.
func (e *Engine) AddSecurityHistory(s *commodity.Security, n commodity.HistoryNode) error {
	return e.mutate(events.ChannelCommodity, events.SecurityHistoryAdd, events.CommodityHistoryAddFailed, events.PropCommodity, s, func(*batch) error {
		if s == nil || !e.known(s.ID) {
			return notFound("security")
		}
		if n.Date.IsZero() || n.Price.IsNegative() {
			return invalid(RuleInvalidValue, s.Symbol, "price %s on %s is not valid", n.Price, n.Date)
		}
		replaced, had := s.AddHistory(n)
		if err := e.store.UpdateCommodity(s); err != nil {
			if had {
				s.AddHistory(replaced)
			} else {
				s.RemoveHistory(n.Date)
			}
			return persist(err)
		}
		e.clearHolders(s)
		return nil
	})
}

// RemoveSecurityHistory drops the price of s dated date.
func (e *Engine) RemoveSecurityHistory(s *commodity.Security, date day.Date) error {
	return e.mutate(events.ChannelCommodity, events.SecurityHistoryRemove, events.CommodityHistoryRemoveFailed, events.PropCommodity, s, func(*batch) error {
		if s == nil || !e.known(s.ID) {
			return notFound("security")
		}
		node, ok := s.RemoveHistory(date)
		if !ok {
			return notFound("price of %s on %s", s.Symbol, date)
		}
		if err := e.store.UpdateCommodity(s); err != nil {
			s.AddHistory(node)
			return persist(err)
		}
		e.clearHolders(s)
		return nil
	})
}

// AddSecurityHistoryEvent records a split, merge or dividend for s.
func (e *Engine) AddSecurityHistoryEvent(s *commodity.Security, ev commodity.HistoryEvent) error {
	return e.mutate(events.ChannelCommodity, events.SecurityHistoryEventAdd, events.CommodityHistoryAddFailed, events.PropCommodity, s, func(*batch) error {
		if s == nil || !e.known(s.ID) {
			return notFound("security")
		}
		if ev.Date.IsZero() {
			return invalid(RuleInvalidValue, s.Symbol, "event has no date")
		}
		var prev *commodity.HistoryEvent
		for _, x := range s.Events() {
			if x.Date == ev.Date && x.Type == ev.Type {
				prev = &x
				break
			}
		}
		s.AddEvent(ev)
		if err := e.store.UpdateCommodity(s); err != nil {
			if prev != nil {
				s.AddEvent(*prev)
			} else {
				s.RemoveEvent(ev.Date, ev.Type)
			}
			return persist(err)
		}
		e.clearHolders(s)
		return nil
	})
}

// RemoveSecurityHistoryEvent drops the event of type t dated date.
func (e *Engine) RemoveSecurityHistoryEvent(s *commodity.Security, date day.Date, t commodity.EventType) error {
	return e.mutate(events.ChannelCommodity, events.SecurityHistoryEventRemove, events.CommodityHistoryRemoveFailed, events.PropCommodity, s, func(*batch) error {
		if s == nil || !e.known(s.ID) {
			return notFound("security")
		}
		var prev *commodity.HistoryEvent
		for _, x := range s.Events() {
			if x.Date == date && x.Type == t {
				prev = &x
				break
			}
		}
		if prev == nil {
			return notFound("%s event of %s on %s", t, s.Symbol, date)
		}
		s.RemoveEvent(date, t)
		if err := e.store.UpdateCommodity(s); err != nil {
			s.AddEvent(*prev)
			return persist(err)
		}
		e.clearHolders(s)
		return nil
	})
}
