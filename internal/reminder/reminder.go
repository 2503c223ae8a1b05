// Package reminder schedules recurring transaction templates.
package reminder

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Type is the recurrence unit.
type Type int

const (
	Once Type = iota
	Daily
	Weekly
	Monthly
	Yearly
)

var typeNames = [...]string{"ONETIME", "DAILY", "WEEKLY", "MONTHLY", "YEARLY"}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses the name produced by String.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(n, s) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reminder type %q", s)
}

// maxOccurrences bounds the dates NextDates produces in one call.
const maxOccurrences = 1000

// Reminder recurs every Increment units of Type from Start, optionally
// until End. Last is the most recent occurrence acted upon.
type Reminder struct {
	stored.Marker

	ID          id.ID
	Description string
	Notes       string
	Type        Type
	Increment   int
	Start       day.Date
	End         day.Date
	Last        day.Date
	DaysAdvance int
	AutoCreate  bool
	Enabled     bool
	Account     *ledger.Account
	Transaction *ledger.Transaction
}

// New returns an enabled reminder recurring every unit of t from start.
func New(description string, t Type, start day.Date) *Reminder {
	return &Reminder{
		ID:          id.New(),
		Description: description,
		Type:        t,
		Increment:   1,
		Start:       start,
		Enabled:     true,
	}
}

// StoredID implements stored.Object.
func (r *Reminder) StoredID() id.ID { return r.ID }

func (r *Reminder) String() string { return r.Description }

// Validate checks the fields a stored reminder must have.
func (r *Reminder) Validate() error {
	switch {
	case strings.TrimSpace(r.Description) == "":
		return errors.New("reminder description is empty")
	case r.Start.IsZero():
		return errors.New("reminder has no start date")
	case !r.End.IsZero() && r.End.Before(r.Start):
		return errors.New("reminder ends before it starts")
	case r.DaysAdvance < 0:
		return errors.New("reminder days advance is negative")
	}
	return nil
}

// occurrence returns the n-th date of the schedule, counting from zero.
func (r *Reminder) occurrence(n int) day.Date {
	inc := max(r.Increment, 1) * n
	switch r.Type {
	case Daily:
		return r.Start.AddDays(inc)
	case Weekly:
		return r.Start.AddDays(7 * inc)
	case Monthly:
		return r.Start.AddMonths(inc)
	case Yearly:
		return r.Start.AddMonths(12 * inc)
	}
	return r.Start
}

// NextDates returns the occurrences after Last, or from Start when nothing
// was acted upon yet, up to and including until and End.
func (r *Reminder) NextDates(until day.Date) []day.Date {
	var out []day.Date
	for n := 0; n < maxOccurrences; n++ {
		d := r.occurrence(n)
		if d.After(until) || (!r.End.IsZero() && d.After(r.End)) {
			break
		}
		if r.Last.IsZero() || d.After(r.Last) {
			out = append(out, d)
		}
		if r.Type == Once {
			break
		}
	}
	return out
}

// Next returns the first occurrence not yet acted upon.
func (r *Reminder) Next() (day.Date, bool) {
	for n := 0; n < maxOccurrences; n++ {
		d := r.occurrence(n)
		if !r.End.IsZero() && d.After(r.End) {
			return day.Date{}, false
		}
		if r.Last.IsZero() || d.After(r.Last) {
			return d, true
		}
		if r.Type == Once {
			break
		}
	}
	return day.Date{}, false
}

// Pending returns the occurrences due on now, counting DaysAdvance ahead.
// Disabled reminders have none.
func (r *Reminder) Pending(now day.Date) []day.Date {
	if !r.Enabled {
		return nil
	}
	return r.NextDates(now.AddDays(r.DaysAdvance))
}

// Advance marks the next occurrence as acted upon.
func (r *Reminder) Advance() bool {
	d, ok := r.Next()
	if ok {
		r.Last = d
	}
	return ok
}

// Template returns a copy of the transaction to book, dated date.
func (r *Reminder) Template(date day.Date) *ledger.Transaction {
	if r.Transaction == nil {
		return nil
	}
	t := r.Transaction.Clone()
	t.Date = date
	return t
}

// Compare orders reminders by description, type, then id.
func Compare(a, b *Reminder) int {
	if r := cmp.Compare(a.Description, b.Description); r != 0 {
		return r
	}
	if r := cmp.Compare(a.Type, b.Type); r != 0 {
		return r
	}
	return id.Compare(a.ID, b.ID)
}
