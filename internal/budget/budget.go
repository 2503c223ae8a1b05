// Package budget holds budgets and their per-account goals.
package budget

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/ledger"
	"github.com/cleared-dev/homeledger/internal/money"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// Periods is the number of daily goal slots kept per account, one per day
// of a leap year.
const Periods = 366

// Period is the reporting granularity of a budget.
type Period int

const (
	Weekly Period = iota
	BiWeekly
	Monthly
	Quarterly
	Yearly
)

var periodNames = [...]string{"WEEKLY", "BI_WEEKLY", "MONTHLY", "QUARTERLY", "YEARLY"}

func (p Period) String() string {
	if p >= 0 && int(p) < len(periodNames) {
		return periodNames[p]
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// ParsePeriod parses the name produced by String.
func ParsePeriod(s string) (Period, error) {
	for i, n := range periodNames {
		if strings.EqualFold(n, s) {
			return Period(i), nil
		}
	}
	return 0, fmt.Errorf("unknown budget period %q", s)
}

// ErrGoalLength is returned when a goal slice is not Periods long.
var ErrGoalLength = errors.New("budget goals must cover every period")

// Goal spreads an account's budget over the days of a year.
type Goal struct {
	Period Period
	slots  [Periods]decimal.Decimal
}

// NewGoal returns an all-zero goal.
func NewGoal(p Period) *Goal {
	return &Goal{Period: p}
}

// Slots returns the daily amounts.
func (g *Goal) Slots() []decimal.Decimal {
	return slices.Clone(g.slots[:])
}

// SetSlots replaces every daily amount.
func (g *Goal) SetSlots(s []decimal.Decimal) error {
	if len(s) != Periods {
		return fmt.Errorf("got %d: %w", len(s), ErrGoalLength)
	}
	copy(g.slots[:], s)
	return nil
}

// Set spreads amount evenly over the days start..end inclusive. When start
// is after end the range wraps around the year end.
func (g *Goal) Set(start, end int, amount decimal.Decimal, leapYear bool) {
	if start <= end {
		portion := money.Div(amount, decimal.NewFromInt(int64(end-start+1)), money.BudgetPrecision)
		for i := start; i <= end && i < Periods; i++ {
			g.slots[i] = portion
		}
		return
	}
	days := Periods - start + end
	if leapYear {
		days--
	}
	portion := money.Div(amount, decimal.NewFromInt(int64(days)), money.BudgetPrecision)
	for i := start; i < g.lastSlot(leapYear); i++ {
		g.slots[i] = portion
	}
	for i := 0; i <= end && i < Periods; i++ {
		g.slots[i] = portion
	}
}

// Amount sums the days start..end inclusive, wrapping like Set.
func (g *Goal) Amount(start, end int, leapYear bool) decimal.Decimal {
	sum := money.Zero
	if start <= end {
		for i := start; i <= end && i < Periods; i++ {
			sum = sum.Add(g.slots[i])
		}
		return sum
	}
	for i := start; i < g.lastSlot(leapYear); i++ {
		sum = sum.Add(g.slots[i])
	}
	for i := 0; i <= end && i < Periods; i++ {
		sum = sum.Add(g.slots[i])
	}
	return sum
}

func (g *Goal) lastSlot(leapYear bool) int {
	if leapYear {
		return Periods
	}
	return Periods - 1
}

// Clone returns an independent copy.
func (g *Goal) Clone() *Goal {
	c := *g
	return &c
}

// Budget is a named set of account goals.
type Budget struct {
	stored.Marker

	ID            id.ID
	Name          string
	Description   string
	Period        Period
	StartMonth    time.Month
	RoundingScale int32

	AssetsIncluded      bool
	IncomeIncluded      bool
	ExpensesIncluded    bool
	LiabilitiesIncluded bool

	mu    sync.RWMutex
	goals map[id.ID]*Goal
}

// New returns a monthly budget covering income and expense accounts.
func New(name string) *Budget {
	return &Budget{
		ID:               id.New(),
		Name:             name,
		Period:           Monthly,
		StartMonth:       time.January,
		RoundingScale:    2,
		IncomeIncluded:   true,
		ExpensesIncluded: true,
		goals:            make(map[id.ID]*Goal),
	}
}

// StoredID implements stored.Object.
func (b *Budget) StoredID() id.ID { return b.ID }

func (b *Budget) String() string { return b.Name }

// Validate checks the fields a stored budget must have.
func (b *Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("budget name is empty")
	}
	return nil
}

// Includes reports whether accounts of group g take part in the budget.
func (b *Budget) Includes(g ledger.AccountGroup) bool {
	switch g {
	case ledger.GroupAsset:
		return b.AssetsIncluded
	case ledger.GroupIncome:
		return b.IncomeIncluded
	case ledger.GroupExpense:
		return b.ExpensesIncluded
	case ledger.GroupLiability:
		return b.LiabilitiesIncluded
	}
	return false
}

// Goal returns the goal for account, creating an empty one on first use.
func (b *Budget) Goal(account id.ID) *Goal {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[account]
	if !ok {
		g = NewGoal(b.Period)
		b.goals[account] = g
	}
	return g
}

// HasGoal reports whether a goal was recorded for account.
func (b *Budget) HasGoal(account id.ID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.goals[account]
	return ok
}

// SetGoal records g for account.
func (b *Budget) SetGoal(account id.ID, g *Goal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.goals[account] = g
}

// RemoveGoal drops the goal of account. It reports whether one existed.
func (b *Budget) RemoveGoal(account id.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.goals[account]
	delete(b.goals, account)
	return ok
}

// GoalAccounts returns the ids of accounts with goals, in id order.
func (b *Budget) GoalAccounts() []id.ID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []id.ID
	for k := range b.goals {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, id.Compare)
	return keys
}

// Clone returns a deep copy with a fresh id and "(Copy)" appended to the name.
func (b *Budget) Clone() *Budget {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := &Budget{
		ID:                  id.New(),
		Name:                b.Name + " (Copy)",
		Description:         b.Description,
		Period:              b.Period,
		StartMonth:          b.StartMonth,
		RoundingScale:       b.RoundingScale,
		AssetsIncluded:      b.AssetsIncluded,
		IncomeIncluded:      b.IncomeIncluded,
		ExpensesIncluded:    b.ExpensesIncluded,
		LiabilitiesIncluded: b.LiabilitiesIncluded,
		goals:               make(map[id.ID]*Goal, len(b.goals)),
	}
	for k, g := range b.goals {
		c.goals[k] = g.Clone()
	}
	return c
}

// Compare orders budgets by name, description, then id.
func Compare(a, b *Budget) int {
	if r := cmp.Compare(a.Name, b.Name); r != 0 {
		return r
	}
	if r := cmp.Compare(a.Description, b.Description); r != 0 {
		return r
	}
	return id.Compare(a.ID, b.ID)
}
