package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/stored"
)

type row struct {
	id      string
	kind    string
	payload []byte
}

// graph resolves ids to the objects rebuilt so far.
type graph struct {
	currencies map[string]*commodity.Currency
	securities map[string]*commodity.Security
	accounts   map[string]*ledger.Account
	tags       map[string]*ledger.Tag
	objects    map[string]stored.Object

	// trashed objects stay detached from the account tree.
	trashed map[string]bool
}

// load rebuilds the object graph from the database into memory.
func (s *Store) load(ctx context.Context) error {
	trash, err := s.trashRows(ctx)
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, payload FROM objects ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying objects: %w", err)
	}
	defer rows.Close()

	byKind := make(map[string][]row)
	var order []string
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.kind, &r.payload); err != nil {
			return fmt.Errorf("scanning object: %w", err)
		}
		byKind[r.kind] = append(byKind[r.kind], r)
		order = append(order, r.id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	g := &graph{
		currencies: make(map[string]*commodity.Currency),
		securities: make(map[string]*commodity.Security),
		accounts:   make(map[string]*ledger.Account),
		tags:       make(map[string]*ledger.Tag),
		objects:    make(map[string]stored.Object),
		trashed:    make(map[string]bool),
	}
	for _, t := range trash {
		g.trashed[t.object] = true
	}
	// Kinds are rebuilt so that every reference points at an earlier kind.
	steps := []struct {
		kind  string
		build func(*graph, []byte) error
	}{
		{"currency", (*graph).currency},
		{"security", (*graph).security},
		{"rate", (*graph).rate},
		{"tag", (*graph).tag},
		{"account", (*graph).account},
		{"transaction", (*graph).transaction},
		{"budget", (*graph).budget},
		{"reminder", (*graph).reminder},
		{"config", (*graph).config},
	}
	for _, step := range steps {
		for _, r := range byKind[step.kind] {
			if err := step.build(g, r.payload); err != nil {
				return fmt.Errorf("%s %s: %w", r.kind, r.id, err)
			}
		}
		if step.kind == "account" {
			if err := g.linkAccounts(byKind["account"]); err != nil {
				return err
			}
		}
	}

	for _, k := range order {
		o, ok := g.objects[k]
		if !ok {
			continue
		}
		if err := s.Memory.Hydrate(o); err != nil {
			return err
		}
	}
	s.log.Debug().Int("objects", len(order)).Msg("loaded")

	for _, t := range trash {
		o, ok := g.objects[t.object]
		if !ok {
			s.log.Warn().Str("object", t.object).Msg("trash refers to a missing object")
			continue
		}
		when, err := time.Parse(time.RFC3339Nano, t.deleted)
		if err != nil {
			return fmt.Errorf("trash %s: %w", t.id, err)
		}
		k, err := id.Parse(t.id)
		if err != nil {
			return err
		}
		if err := s.Memory.AddTrash(&stored.TrashObject{ID: k, Object: o, Date: when}); err != nil {
			return err
		}
	}
	return nil
}

type trashRow struct {
	id      string
	object  string
	deleted string
}

func (s *Store) trashRows(ctx context.Context) ([]trashRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, object_id, deleted_at FROM trash ORDER BY deleted_at`)
	if err != nil {
		return nil, fmt.Errorf("querying trash: %w", err)
	}
	defer rows.Close()
	var out []trashRow
	for rows.Next() {
		var t trashRow
		if err := rows.Scan(&t.id, &t.object, &t.deleted); err != nil {
			return nil, fmt.Errorf("scanning trash: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func parseDate(s string) (day.Date, error) {
	if s == "" {
		return day.Date{}, nil
	}
	return day.Parse(s)
}

func parseDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (g *graph) currency(b []byte) error {
	var rec commodityRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	c := commodity.NewCurrency(rec.Symbol)
	if err := restoreCommodity(&c.Commodity, rec); err != nil {
		return err
	}
	g.currencies[rec.ID] = c
	g.objects[rec.ID] = c
	return nil
}

func restoreCommodity(c *commodity.Commodity, rec commodityRecord) error {
	k, err := id.Parse(rec.ID)
	if err != nil {
		return err
	}
	c.ID = k
	c.Symbol = rec.Symbol
	c.Scale = rec.Scale
	c.Prefix = rec.Prefix
	c.Suffix = rec.Suffix
	c.Description = rec.Description
	return nil
}

func (g *graph) security(b []byte) error {
	var rec securityRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	cur, ok := g.currencies[rec.Currency]
	if !ok {
		return fmt.Errorf("unknown currency %s", rec.Currency)
	}
	sec := commodity.NewSecurity(rec.Commodity.Symbol, cur)
	if err := restoreCommodity(&sec.Commodity, rec.Commodity); err != nil {
		return err
	}
	sec.QuoteSource = rec.QuoteSource
	sec.ISIN = rec.ISIN
	for _, h := range rec.History {
		n, err := historyNode(h)
		if err != nil {
			return err
		}
		sec.AddHistory(n)
	}
	for _, e := range rec.Events {
		date, err := parseDate(e.Date)
		if err != nil {
			return err
		}
		typ, err := commodity.ParseEventType(e.Type)
		if err != nil {
			return err
		}
		v, err := parseDec(e.Value)
		if err != nil {
			return err
		}
		sec.AddEvent(commodity.HistoryEvent{Date: date, Type: typ, Value: v})
	}
	g.securities[rec.Commodity.ID] = sec
	g.objects[rec.Commodity.ID] = sec
	return nil
}

func historyNode(h historyRecord) (commodity.HistoryNode, error) {
	var (
		n   commodity.HistoryNode
		err error
	)
	if n.Date, err = parseDate(h.Date); err != nil {
		return n, err
	}
	if n.Price, err = parseDec(h.Price); err != nil {
		return n, err
	}
	if n.High, err = parseDec(h.High); err != nil {
		return n, err
	}
	if n.Low, err = parseDec(h.Low); err != nil {
		return n, err
	}
	n.Volume = h.Volume
	return n, nil
}

func (g *graph) rate(b []byte) error {
	var rec rateRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	r := commodity.NewExchangeRate(rec.RateID)
	k, err := id.Parse(rec.ID)
	if err != nil {
		return err
	}
	r.ID = k
	for _, n := range rec.History {
		date, err := parseDate(n.Date)
		if err != nil {
			return err
		}
		v, err := parseDec(n.Rate)
		if err != nil {
			return err
		}
		r.AddHistory(commodity.RateNode{Date: date, Rate: v})
	}
	g.objects[rec.ID] = r
	return nil
}

func (g *graph) tag(b []byte) error {
	var rec tagRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	k, err := id.Parse(rec.ID)
	if err != nil {
		return err
	}
	t := &ledger.Tag{ID: k, Name: rec.Name, Color: rec.Color, Description: rec.Description}
	g.tags[rec.ID] = t
	g.objects[rec.ID] = t
	return nil
}

func (g *graph) account(b []byte) error {
	var rec accountRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	typ, err := ledger.ParseAccountType(rec.Type)
	if err != nil {
		return err
	}
	cur, ok := g.currencies[rec.Currency]
	if !ok {
		return fmt.Errorf("unknown currency %s", rec.Currency)
	}
	a := ledger.NewAccount(typ, cur)
	if a.ID, err = id.Parse(rec.ID); err != nil {
		return err
	}
	a.SetName(rec.Name)
	a.SetDescription(rec.Description)
	a.SetNotes(rec.Notes)
	a.SetAccountNumber(rec.AccountNumber)
	a.SetBankID(rec.BankID)
	a.SetAccountCode(rec.AccountCode)
	a.SetLocked(rec.Locked)
	a.SetPlaceholder(rec.Placeholder)
	a.SetVisible(rec.Visible)
	a.SetExcludedFromBudget(rec.ExcludedFromBudget)
	for k, v := range rec.Attributes {
		if err := a.SetAttribute(k, v); err != nil {
			return err
		}
	}
	for _, sid := range rec.Securities {
		sec, ok := g.securities[sid]
		if !ok {
			return fmt.Errorf("unknown security %s", sid)
		}
		if err := a.AddSecurity(sec); err != nil {
			return err
		}
	}
	g.accounts[rec.ID] = a
	g.objects[rec.ID] = a
	return nil
}

// linkAccounts attaches every account to its parent.
func (g *graph) linkAccounts(rows []row) error {
	for _, r := range rows {
		var rec accountRecord
		if err := msgpack.Unmarshal(r.payload, &rec); err != nil {
			return err
		}
		if rec.Parent == "" || g.trashed[rec.ID] {
			continue
		}
		parent, ok := g.accounts[rec.Parent]
		if !ok {
			return fmt.Errorf("account %s: unknown parent %s", rec.ID, rec.Parent)
		}
		if err := parent.AddChild(g.accounts[rec.ID]); err != nil {
			return fmt.Errorf("account %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (g *graph) transaction(b []byte) error {
	var rec transactionRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	t, err := g.buildTransaction(rec)
	if err != nil {
		return err
	}
	if !g.trashed[rec.ID] {
		for _, a := range t.Accounts() {
			a.AddTransaction(t)
		}
	}
	g.objects[rec.ID] = t
	return nil
}

func (g *graph) buildTransaction(rec transactionRecord) (*ledger.Transaction, error) {
	date, err := parseDate(rec.Date)
	if err != nil {
		return nil, err
	}
	var t *ledger.Transaction
	if rec.Investment {
		t = ledger.NewInvestmentTransaction(date)
	} else {
		t = ledger.NewTransaction(date)
	}
	if t.ID, err = id.Parse(rec.ID); err != nil {
		return nil, err
	}
	t.Timestamp = rec.Timestamp
	t.Number = rec.Number
	t.Payee = rec.Payee
	t.SetMemo(rec.Memo)
	t.FitID = rec.FitID
	t.Attachment = rec.Attachment
	for _, er := range rec.Entries {
		e, err := g.entry(er)
		if err != nil {
			return nil, err
		}
		if err := t.AddEntry(e); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (g *graph) entry(rec entryRecord) (*ledger.Entry, error) {
	var (
		e   ledger.Entry
		err error
	)
	if e.ID, err = id.Parse(rec.ID); err != nil {
		return nil, err
	}
	if e.Tag, err = ledger.ParseTransactionTag(rec.Tag); err != nil {
		return nil, err
	}
	e.CreditAccount = g.accounts[rec.Credit]
	e.DebitAccount = g.accounts[rec.Debit]
	if e.CreditAccount == nil || e.DebitAccount == nil {
		return nil, fmt.Errorf("entry %s: unknown account", rec.ID)
	}
	if e.CreditAmount, err = parseDec(rec.CreditAmount); err != nil {
		return nil, err
	}
	if e.DebitAmount, err = parseDec(rec.DebitAmount); err != nil {
		return nil, err
	}
	if e.CreditReconciled, err = ledger.ParseReconciledState(rec.CreditReconciled); err != nil {
		return nil, err
	}
	if e.DebitReconciled, err = ledger.ParseReconciledState(rec.DebitReconciled); err != nil {
		return nil, err
	}
	e.Memo = rec.Memo
	for _, tid := range rec.Tags {
		if tag, ok := g.tags[tid]; ok {
			e.Tags = append(e.Tags, tag)
		}
	}
	if ir := rec.Investment; ir != nil {
		d := &ledger.InvestmentDetail{Security: g.securities[ir.Security]}
		if d.Security == nil {
			return nil, fmt.Errorf("entry %s: unknown security %s", rec.ID, ir.Security)
		}
		if d.Type, err = ledger.ParseTransactionType(ir.Type); err != nil {
			return nil, err
		}
		if d.Price, err = parseDec(ir.Price); err != nil {
			return nil, err
		}
		if d.Quantity, err = parseDec(ir.Quantity); err != nil {
			return nil, err
		}
		e.Investment = d
	}
	return &e, nil
}

func (g *graph) budget(b []byte) error {
	var rec budgetRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	bg := budget.New(rec.Name)
	var err error
	if bg.ID, err = id.Parse(rec.ID); err != nil {
		return err
	}
	bg.Description = rec.Description
	if bg.Period, err = budget.ParsePeriod(rec.Period); err != nil {
		return err
	}
	bg.StartMonth = time.Month(rec.StartMonth)
	bg.RoundingScale = rec.RoundingScale
	bg.AssetsIncluded = rec.AssetsIncluded
	bg.IncomeIncluded = rec.IncomeIncluded
	bg.ExpensesIncluded = rec.ExpensesIncluded
	bg.LiabilitiesIncluded = rec.LiabilitiesIncluded
	for acct, gr := range rec.Goals {
		k, err := id.Parse(acct)
		if err != nil {
			return err
		}
		period, err := budget.ParsePeriod(gr.Period)
		if err != nil {
			return err
		}
		goal := budget.NewGoal(period)
		slots := make([]decimal.Decimal, len(gr.Slots))
		for i, s := range gr.Slots {
			if slots[i], err = parseDec(s); err != nil {
				return err
			}
		}
		if err := goal.SetSlots(slots); err != nil {
			return err
		}
		bg.SetGoal(k, goal)
	}
	g.objects[rec.ID] = bg
	return nil
}

func (g *graph) reminder(b []byte) error {
	var rec reminderRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	typ, err := reminder.ParseType(rec.Type)
	if err != nil {
		return err
	}
	start, err := parseDate(rec.Start)
	if err != nil {
		return err
	}
	r := reminder.New(rec.Description, typ, start)
	if r.ID, err = id.Parse(rec.ID); err != nil {
		return err
	}
	r.Notes = rec.Notes
	r.Increment = rec.Increment
	if r.End, err = parseDate(rec.End); err != nil {
		return err
	}
	if r.Last, err = parseDate(rec.Last); err != nil {
		return err
	}
	r.DaysAdvance = rec.DaysAdvance
	r.AutoCreate = rec.AutoCreate
	r.Enabled = rec.Enabled
	r.Account = g.accounts[rec.Account]
	if rec.Transaction != nil {
		if r.Transaction, err = g.buildTransaction(*rec.Transaction); err != nil {
			return err
		}
	}
	g.objects[rec.ID] = r
	return nil
}

func (g *graph) config(b []byte) error {
	var rec configRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return err
	}
	c := &ledger.Config{
		FileVersion:             rec.FileVersion,
		DefaultCurrency:         g.currencies[rec.DefaultCurrency],
		AccountSeparator:        rec.AccountSeparator,
		TransactionNumbers:      rec.TransactionNumbers,
		UpdateSecuritiesOnStart: rec.UpdateSecuritiesOnStart,
		UpdateRatesOnStart:      rec.UpdateRatesOnStart,
	}
	var err error
	if c.ID, err = id.Parse(rec.ID); err != nil {
		return err
	}
	if c.LastSecuritiesUpdate, err = parseDate(rec.LastSecuritiesUpdate); err != nil {
		return err
	}
	if c.LastRatesUpdate, err = parseDate(rec.LastRatesUpdate); err != nil {
		return err
	}
	g.objects[rec.ID] = c
	return nil
}
