package sqlstore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cleared-dev/homeledger/internal/budget"
	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/reminder"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Records are the persisted shape of each object. References between
// objects are ids; decimals and dates are strings.

type commodityRecord struct {
	ID          string `msgpack:"id"`
	Symbol      string `msgpack:"symbol"`
	Scale       int32  `msgpack:"scale"`
	Prefix      string `msgpack:"prefix,omitempty"`
	Suffix      string `msgpack:"suffix,omitempty"`
	Description string `msgpack:"description,omitempty"`
}

type historyRecord struct {
	Date   string `msgpack:"date"`
	Price  string `msgpack:"price"`
	High   string `msgpack:"high,omitempty"`
	Low    string `msgpack:"low,omitempty"`
	Volume int64  `msgpack:"volume,omitempty"`
}

type eventRecord struct {
	Date  string `msgpack:"date"`
	Type  string `msgpack:"type"`
	Value string `msgpack:"value"`
}

type securityRecord struct {
	Commodity   commodityRecord `msgpack:"commodity"`
	Currency    string          `msgpack:"currency"`
	QuoteSource string          `msgpack:"quote_source,omitempty"`
	ISIN        string          `msgpack:"isin,omitempty"`
	History     []historyRecord `msgpack:"history,omitempty"`
	Events      []eventRecord   `msgpack:"events,omitempty"`
}

type rateNodeRecord struct {
	Date string `msgpack:"date"`
	Rate string `msgpack:"rate"`
}

type rateRecord struct {
	ID      string           `msgpack:"id"`
	RateID  string           `msgpack:"rate_id"`
	History []rateNodeRecord `msgpack:"history,omitempty"`
}

type accountRecord struct {
	ID                 string            `msgpack:"id"`
	Parent             string            `msgpack:"parent,omitempty"`
	Name               string            `msgpack:"name"`
	Description        string            `msgpack:"description,omitempty"`
	Notes              string            `msgpack:"notes,omitempty"`
	AccountNumber      string            `msgpack:"account_number,omitempty"`
	BankID             string            `msgpack:"bank_id,omitempty"`
	AccountCode        int               `msgpack:"account_code,omitempty"`
	Type               string            `msgpack:"type"`
	Currency           string            `msgpack:"currency"`
	Locked             bool              `msgpack:"locked,omitempty"`
	Placeholder        bool              `msgpack:"placeholder,omitempty"`
	Visible            bool              `msgpack:"visible"`
	ExcludedFromBudget bool              `msgpack:"excluded_from_budget,omitempty"`
	Securities         []string          `msgpack:"securities,omitempty"`
	Attributes         map[string]string `msgpack:"attributes,omitempty"`
}

type investmentRecord struct {
	Type     string `msgpack:"type"`
	Security string `msgpack:"security"`
	Price    string `msgpack:"price"`
	Quantity string `msgpack:"quantity"`
}

type entryRecord struct {
	ID               string            `msgpack:"id"`
	Tag              string            `msgpack:"tag"`
	Credit           string            `msgpack:"credit"`
	Debit            string            `msgpack:"debit"`
	CreditAmount     string            `msgpack:"credit_amount"`
	DebitAmount      string            `msgpack:"debit_amount"`
	CreditReconciled string            `msgpack:"credit_reconciled"`
	DebitReconciled  string            `msgpack:"debit_reconciled"`
	Memo             string            `msgpack:"memo,omitempty"`
	Tags             []string          `msgpack:"tags,omitempty"`
	Investment       *investmentRecord `msgpack:"investment,omitempty"`
}

type transactionRecord struct {
	ID         string        `msgpack:"id"`
	Date       string        `msgpack:"date"`
	Timestamp  int64         `msgpack:"timestamp"`
	Number     string        `msgpack:"number,omitempty"`
	Payee      string        `msgpack:"payee,omitempty"`
	Memo       string        `msgpack:"memo,omitempty"`
	FitID      string        `msgpack:"fit_id,omitempty"`
	Attachment string        `msgpack:"attachment,omitempty"`
	Investment bool          `msgpack:"investment,omitempty"`
	Entries    []entryRecord `msgpack:"entries"`
}

type goalRecord struct {
	Period string   `msgpack:"period"`
	Slots  []string `msgpack:"slots"`
}

type budgetRecord struct {
	ID                  string                `msgpack:"id"`
	Name                string                `msgpack:"name"`
	Description         string                `msgpack:"description,omitempty"`
	Period              string                `msgpack:"period"`
	StartMonth          int                   `msgpack:"start_month"`
	RoundingScale       int32                 `msgpack:"rounding_scale"`
	AssetsIncluded      bool                  `msgpack:"assets_included,omitempty"`
	IncomeIncluded      bool                  `msgpack:"income_included,omitempty"`
	ExpensesIncluded    bool                  `msgpack:"expenses_included,omitempty"`
	LiabilitiesIncluded bool                  `msgpack:"liabilities_included,omitempty"`
	Goals               map[string]goalRecord `msgpack:"goals,omitempty"`
}

type reminderRecord struct {
	ID          string             `msgpack:"id"`
	Description string             `msgpack:"description"`
	Notes       string             `msgpack:"notes,omitempty"`
	Type        string             `msgpack:"type"`
	Increment   int                `msgpack:"increment"`
	Start       string             `msgpack:"start"`
	End         string             `msgpack:"end,omitempty"`
	Last        string             `msgpack:"last,omitempty"`
	DaysAdvance int                `msgpack:"days_advance,omitempty"`
	AutoCreate  bool               `msgpack:"auto_create,omitempty"`
	Enabled     bool               `msgpack:"enabled"`
	Account     string             `msgpack:"account,omitempty"`
	Transaction *transactionRecord `msgpack:"transaction,omitempty"`
}

type tagRecord struct {
	ID          string `msgpack:"id"`
	Name        string `msgpack:"name"`
	Color       string `msgpack:"color,omitempty"`
	Description string `msgpack:"description,omitempty"`
}

type configRecord struct {
	ID                      string   `msgpack:"id"`
	FileVersion             int      `msgpack:"file_version"`
	DefaultCurrency         string   `msgpack:"default_currency,omitempty"`
	AccountSeparator        string   `msgpack:"account_separator"`
	TransactionNumbers      []string `msgpack:"transaction_numbers,omitempty"`
	UpdateSecuritiesOnStart bool     `msgpack:"update_securities_on_start,omitempty"`
	UpdateRatesOnStart      bool     `msgpack:"update_rates_on_start,omitempty"`
	LastSecuritiesUpdate    string   `msgpack:"last_securities_update,omitempty"`
	LastRatesUpdate         string   `msgpack:"last_rates_update,omitempty"`
}

// encode returns the msgpack payload of o.
func encode(o stored.Object) ([]byte, error) {
	var rec any
	switch v := o.(type) {
	case *commodity.Currency:
		rec = commodityOf(&v.Commodity)
	case *commodity.Security:
		rec = securityOf(v)
	case *commodity.ExchangeRate:
		rec = rateOf(v)
	case *ledger.Account:
		rec = accountOf(v)
	case *ledger.Transaction:
		rec = transactionOf(v)
	case *budget.Budget:
		rec = budgetOf(v)
	case *reminder.Reminder:
		rec = reminderOf(v)
	case *ledger.Tag:
		rec = tagRecord{ID: v.ID.String(), Name: v.Name, Color: v.Color, Description: v.Description}
	case *ledger.Config:
		rec = configOf(v)
	default:
		return nil, fmt.Errorf("cannot encode %T", o)
	}
	return msgpack.Marshal(rec)
}

func dateString(d day.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func decString(d decimal.Decimal) string {
	return d.String()
}

func commodityOf(c *commodity.Commodity) commodityRecord {
	return commodityRecord{
		ID:          c.ID.String(),
		Symbol:      c.Symbol,
		Scale:       c.Scale,
		Prefix:      c.Prefix,
		Suffix:      c.Suffix,
		Description: c.Description,
	}
}

func securityOf(s *commodity.Security) securityRecord {
	rec := securityRecord{
		Commodity:   commodityOf(&s.Commodity),
		QuoteSource: s.QuoteSource,
		ISIN:        s.ISIN,
	}
	if s.Currency != nil {
		rec.Currency = s.Currency.ID.String()
	}
	for _, n := range s.History() {
		rec.History = append(rec.History, historyRecord{
			Date:   dateString(n.Date),
			Price:  decString(n.Price),
			High:   decString(n.High),
			Low:    decString(n.Low),
			Volume: n.Volume,
		})
	}
	for _, e := range s.Events() {
		rec.Events = append(rec.Events, eventRecord{Date: dateString(e.Date), Type: e.Type.String(), Value: decString(e.Value)})
	}
	return rec
}

func rateOf(r *commodity.ExchangeRate) rateRecord {
	rec := rateRecord{ID: r.ID.String(), RateID: r.RateID}
	for _, n := range r.History() {
		rec.History = append(rec.History, rateNodeRecord{Date: dateString(n.Date), Rate: decString(n.Rate)})
	}
	return rec
}

func accountOf(a *ledger.Account) accountRecord {
	rec := accountRecord{
		ID:                 a.ID.String(),
		Name:               a.Name(),
		Description:        a.Description(),
		Notes:              a.Notes(),
		AccountNumber:      a.AccountNumber(),
		BankID:             a.BankID(),
		AccountCode:        a.AccountCode(),
		Type:               a.Type().String(),
		Locked:             a.Locked(),
		Placeholder:        a.Placeholder(),
		Visible:            a.Visible(),
		ExcludedFromBudget: a.ExcludedFromBudget(),
		Attributes:         a.Attributes(),
	}
	if p := a.Parent(); p != nil {
		rec.Parent = p.ID.String()
	}
	if c := a.Currency(); c != nil {
		rec.Currency = c.ID.String()
	}
	for _, s := range a.Securities() {
		rec.Securities = append(rec.Securities, s.ID.String())
	}
	return rec
}

func transactionOf(t *ledger.Transaction) transactionRecord {
	rec := transactionRecord{
		ID:         t.ID.String(),
		Date:       dateString(t.Date),
		Timestamp:  t.Timestamp,
		Number:     t.Number,
		Payee:      t.Payee,
		Memo:       t.RawMemo(),
		FitID:      t.FitID,
		Attachment: t.Attachment,
		Investment: t.IsInvestment(),
	}
	for _, e := range t.Entries() {
		er := entryRecord{
			ID:               e.ID.String(),
			Tag:              e.Tag.String(),
			CreditAmount:     decString(e.CreditAmount),
			DebitAmount:      decString(e.DebitAmount),
			CreditReconciled: e.CreditReconciled.String(),
			DebitReconciled:  e.DebitReconciled.String(),
			Memo:             e.Memo,
		}
		if e.CreditAccount != nil {
			er.Credit = e.CreditAccount.ID.String()
		}
		if e.DebitAccount != nil {
			er.Debit = e.DebitAccount.ID.String()
		}
		for _, tag := range e.Tags {
			er.Tags = append(er.Tags, tag.ID.String())
		}
		if d := e.Investment; d != nil {
			er.Investment = &investmentRecord{
				Type:     d.Type.String(),
				Price:    decString(d.Price),
				Quantity: decString(d.Quantity),
			}
			if d.Security != nil {
				er.Investment.Security = d.Security.ID.String()
			}
		}
		rec.Entries = append(rec.Entries, er)
	}
	return rec
}

func budgetOf(b *budget.Budget) budgetRecord {
	rec := budgetRecord{
		ID:                  b.ID.String(),
		Name:                b.Name,
		Description:         b.Description,
		Period:              b.Period.String(),
		StartMonth:          int(b.StartMonth),
		RoundingScale:       b.RoundingScale,
		AssetsIncluded:      b.AssetsIncluded,
		IncomeIncluded:      b.IncomeIncluded,
		ExpensesIncluded:    b.ExpensesIncluded,
		LiabilitiesIncluded: b.LiabilitiesIncluded,
		Goals:               make(map[string]goalRecord),
	}
	for _, acct := range b.GoalAccounts() {
		g := b.Goal(acct)
		gr := goalRecord{Period: g.Period.String()}
		for _, s := range g.Slots() {
			gr.Slots = append(gr.Slots, decString(s))
		}
		rec.Goals[acct.String()] = gr
	}
	return rec
}

func reminderOf(r *reminder.Reminder) reminderRecord {
	rec := reminderRecord{
		ID:          r.ID.String(),
		Description: r.Description,
		Notes:       r.Notes,
		Type:        r.Type.String(),
		Increment:   r.Increment,
		Start:       dateString(r.Start),
		End:         dateString(r.End),
		Last:        dateString(r.Last),
		DaysAdvance: r.DaysAdvance,
		AutoCreate:  r.AutoCreate,
		Enabled:     r.Enabled,
	}
	if r.Account != nil {
		rec.Account = r.Account.ID.String()
	}
	if r.Transaction != nil {
		tr := transactionOf(r.Transaction)
		rec.Transaction = &tr
	}
	return rec
}

func configOf(c *ledger.Config) configRecord {
	rec := configRecord{
		ID:                      c.ID.String(),
		FileVersion:             c.FileVersion,
		AccountSeparator:        c.AccountSeparator,
		TransactionNumbers:      c.TransactionNumbers,
		UpdateSecuritiesOnStart: c.UpdateSecuritiesOnStart,
		UpdateRatesOnStart:      c.UpdateRatesOnStart,
		LastSecuritiesUpdate:    dateString(c.LastSecuritiesUpdate),
		LastRatesUpdate:         dateString(c.LastRatesUpdate),
	}
	if c.DefaultCurrency != nil {
		rec.DefaultCurrency = c.DefaultCurrency.ID.String()
	}
	return rec
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
