package ledger

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/id"
	"github.com/cleared-dev/homeledger/internal/money"
	"github.com/cleared-dev/homeledger/internal/stored"
)

// MaxAttributeLength is the longest value SetAttribute accepts, in characters.
const MaxAttributeLength = 8192

// Attribute keys written by the reconcile workflow.
const (
	AttrReconcileLastAttemptDate   = "Reconcile.LastAttemptDate"
	AttrReconcileLastSuccessDate   = "Reconcile.LastSuccessDate"
	AttrReconcileLastStatementDate = "Reconcile.LastStatementDate"
	AttrReconcileLastOpeningBal    = "Reconcile.LastOpeningBalance"
	AttrReconcileLastClosingBal    = "Reconcile.LastClosingBalance"
)

// Account is a node in the account tree. Its transactions, children,
// securities and attributes are each guarded by their own lock; callers
// that need a consistent view across accounts hold the engine lock first.
type Account struct {
	stored.Marker

	ID id.ID

	mu                 sync.RWMutex
	name               string
	description        string
	notes              string
	accountNumber      string
	bankID             string
	accountCode        int
	typ                AccountType
	currency           *commodity.Currency
	locked             bool
	placeholder        bool
	visible            bool
	excludedFromBudget bool
	parent             *Account

	txMu         sync.RWMutex
	transactions []*Transaction
	txIndex      map[id.ID]*Transaction

	childMu  sync.RWMutex
	children []*Account

	secMu      sync.RWMutex
	securities []*commodity.Security

	attrMu     sync.RWMutex
	attributes map[string]string

	balance    atomic.Pointer[decimal.Decimal]
	reconciled atomic.Pointer[decimal.Decimal]
}

// NewAccount returns a visible account of type t denominated in currency.
func NewAccount(t AccountType, currency *commodity.Currency) *Account {
	return &Account{
		ID:         id.New(),
		typ:        t,
		currency:   currency,
		visible:    true,
		txIndex:    make(map[id.ID]*Transaction),
		attributes: make(map[string]string),
	}
}

// NewRootAccount returns the parentless root of an account tree.
func NewRootAccount(currency *commodity.Currency) *Account {
	a := NewAccount(TypeRoot, currency)
	a.name = "Root"
	return a
}

// StoredID implements stored.Object.
func (a *Account) StoredID() id.ID { return a.ID }

func (a *Account) String() string { return a.Name() }

// CompareAccounts orders accounts by case-folded name, then id.
func CompareAccounts(a, b *Account) int {
	if r := cmp.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())); r != 0 {
		return r
	}
	return id.Compare(a.ID, b.ID)
}

func (a *Account) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// SetName renames the account and keeps the parent's children ordered.
func (a *Account) SetName(name string) {
	a.mu.Lock()
	a.name = name
	parent := a.parent
	a.mu.Unlock()
	if parent != nil {
		parent.sortChildren()
	}
}

func (a *Account) Description() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.description
}

func (a *Account) SetDescription(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.description = s
}

func (a *Account) Notes() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.notes
}

func (a *Account) SetNotes(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes = s
}

func (a *Account) AccountNumber() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.accountNumber
}

func (a *Account) SetAccountNumber(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accountNumber = s
}

func (a *Account) BankID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bankID
}

func (a *Account) SetBankID(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bankID = s
}

func (a *Account) AccountCode() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.accountCode
}

func (a *Account) SetAccountCode(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accountCode = code
}

func (a *Account) Type() AccountType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.typ
}

// SetType changes the account type. Types that select the investment
// strategy, and ROOT, cannot be changed to or from.
func (a *Account) SetType(t AccountType) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t == a.typ {
		return nil
	}
	if !a.typ.Mutable() || !t.Mutable() {
		return fmt.Errorf("%s to %s: %w", a.typ, t, ErrImmutableType)
	}
	a.typ = t
	a.clearCachedBalances()
	return nil
}

// Group returns the group of the account type.
func (a *Account) Group() AccountGroup { return a.Type().Group() }

// MemberOf reports whether the account belongs to g.
func (a *Account) MemberOf(g AccountGroup) bool { return a.Group() == g }

// IsRoot reports whether a is the root of its tree.
func (a *Account) IsRoot() bool { return a.Type() == TypeRoot }

func (a *Account) Currency() *commodity.Currency {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currency
}

// SetCurrency changes the denomination and drops cached balances.
func (a *Account) SetCurrency(c *commodity.Currency) {
	a.mu.Lock()
	a.currency = c
	a.mu.Unlock()
	a.ClearCachedBalances()
}

// Round rounds d to the scale of the account currency.
func (a *Account) Round(d decimal.Decimal) decimal.Decimal {
	if c := a.Currency(); c != nil {
		return c.Round(d)
	}
	return d
}

func (a *Account) Locked() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.locked
}

func (a *Account) SetLocked(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = v
}

func (a *Account) Placeholder() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.placeholder
}

func (a *Account) SetPlaceholder(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.placeholder = v
}

func (a *Account) Visible() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.visible
}

func (a *Account) SetVisible(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.visible = v
}

func (a *Account) ExcludedFromBudget() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.excludedFromBudget
}

func (a *Account) SetExcludedFromBudget(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.excludedFromBudget = v
}

// Parent returns the parent account, nil for the root or a detached account.
func (a *Account) Parent() *Account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.parent
}

// SetParent moves a under parent, detaching it from its previous parent.
func (a *Account) SetParent(parent *Account) error {
	if parent == a {
		return ErrSelfParent
	}
	if old := a.Parent(); old != nil && old != parent {
		old.RemoveChild(a)
	}
	if parent == nil {
		return nil
	}
	if parent.Contains(a) {
		return nil
	}
	return parent.AddChild(a)
}

// AddChild attaches child and keeps the children ordered by name.
func (a *Account) AddChild(child *Account) error {
	if child == a {
		return ErrSelfParent
	}
	a.childMu.Lock()
	if slices.Contains(a.children, child) {
		a.childMu.Unlock()
		return ErrDuplicateChild
	}
	i, _ := slices.BinarySearchFunc(a.children, child, CompareAccounts)
	a.children = slices.Insert(a.children, i, child)
	a.childMu.Unlock()

	if old := child.Parent(); old != nil && old != a {
		old.RemoveChild(child)
	}
	child.mu.Lock()
	child.parent = a
	child.mu.Unlock()
	return nil
}

// RemoveChild detaches child. It reports whether child was present.
func (a *Account) RemoveChild(child *Account) bool {
	a.childMu.Lock()
	i := slices.Index(a.children, child)
	if i < 0 {
		a.childMu.Unlock()
		return false
	}
	a.children = slices.Delete(a.children, i, i+1)
	a.childMu.Unlock()

	child.mu.Lock()
	if child.parent == a {
		child.parent = nil
	}
	child.mu.Unlock()
	return true
}

func (a *Account) sortChildren() {
	a.childMu.Lock()
	defer a.childMu.Unlock()
	slices.SortFunc(a.children, CompareAccounts)
}

// Children returns the direct children ordered by name.
func (a *Account) Children() []*Account {
	a.childMu.RLock()
	defer a.childMu.RUnlock()
	return slices.Clone(a.children)
}

func (a *Account) ChildCount() int {
	a.childMu.RLock()
	defer a.childMu.RUnlock()
	return len(a.children)
}

// IsParent reports whether a has children.
func (a *Account) IsParent() bool { return a.ChildCount() > 0 }

// Contains reports whether child is a direct child of a.
func (a *Account) Contains(child *Account) bool {
	a.childMu.RLock()
	defer a.childMu.RUnlock()
	return slices.Contains(a.children, child)
}

// IsDescendantOf reports whether ancestor lies on the path from a to the root.
// An account is not its own descendant.
func (a *Account) IsDescendantOf(ancestor *Account) bool {
	for p := a.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Descendants returns every account below a, depth first in name order.
func (a *Account) Descendants() []*Account {
	var out []*Account
	for _, c := range a.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Ancestors returns the parents of a from the nearest up to the root.
func (a *Account) Ancestors() []*Account {
	var out []*Account
	for p := a.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// Depth is the number of ancestors.
func (a *Account) Depth() int { return len(a.Ancestors()) }

// PathName joins the names from below the root down to a with sep.
func (a *Account) PathName(sep string) string {
	parts := []string{a.Name()}
	for p := a.Parent(); p != nil && !p.IsRoot(); p = p.Parent() {
		parts = append(parts, p.Name())
	}
	slices.Reverse(parts)
	return strings.Join(parts, sep)
}

// AddTransaction adds t in sort order. It reports false, and logs, when the
// account is a placeholder or already holds t.
func (a *Account) AddTransaction(t *Transaction) bool {
	if a.Placeholder() {
		log().Warn().Str("account", a.Name()).Str("transaction", t.ID.String()).Msg("refusing transaction on placeholder account")
		return false
	}
	name := a.Name()
	a.txMu.Lock()
	defer a.txMu.Unlock()
	if _, ok := a.txIndex[t.ID]; ok {
		log().Warn().Str("account", name).Str("transaction", t.ID.String()).Msg("transaction already added")
		return false
	}
	i, _ := slices.BinarySearchFunc(a.transactions, t, Compare)
	a.transactions = slices.Insert(a.transactions, i, t)
	a.txIndex[t.ID] = t
	a.clearCachedBalances()
	return true
}

// RemoveTransaction removes t. It reports false, and logs, when t is absent.
func (a *Account) RemoveTransaction(t *Transaction) bool {
	a.txMu.Lock()
	defer a.txMu.Unlock()
	if _, ok := a.txIndex[t.ID]; !ok {
		log().Warn().Str("transaction", t.ID.String()).Msg("removing transaction the account does not hold")
		return false
	}
	delete(a.txIndex, t.ID)
	if i := a.indexOf(t); i >= 0 {
		a.transactions = slices.Delete(a.transactions, i, i+1)
	}
	a.clearCachedBalances()
	return true
}

func (a *Account) indexOf(t *Transaction) int {
	i, ok := slices.BinarySearchFunc(a.transactions, t, Compare)
	if ok && a.transactions[i] == t {
		return i
	}
	return slices.Index(a.transactions, t)
}

// ContainsTransaction reports whether a holds t.
func (a *Account) ContainsTransaction(t *Transaction) bool {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	_, ok := a.txIndex[t.ID]
	return ok
}

// Transactions returns the transactions in sort order.
func (a *Account) Transactions() []*Transaction {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return slices.Clone(a.transactions)
}

func (a *Account) TransactionCount() int {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return len(a.transactions)
}

// TransactionAt returns the i-th transaction in sort order.
func (a *Account) TransactionAt(i int) *Transaction {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return a.transactions[i]
}

// IndexOf returns the sort position of t, or -1.
func (a *Account) IndexOf(t *Transaction) int {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return a.indexOf(t)
}

// TransactionsBetween returns the transactions dated within [start, end].
func (a *Account) TransactionsBetween(start, end day.Date) []*Transaction {
	var out []*Transaction
	for _, t := range a.Transactions() {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// NextTransactionNumber returns one more than the largest purely numeric
// transaction number, or "" when no number is numeric.
func (a *Account) NextTransactionNumber() string {
	highest := 0
	for _, t := range a.Transactions() {
		if !isDigits(t.Number) {
			continue
		}
		if n, err := strconv.Atoi(t.Number); err == nil && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return ""
	}
	return strconv.Itoa(highest + 1)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Securities returns the securities the account may trade, by symbol.
func (a *Account) Securities() []*commodity.Security {
	a.secMu.RLock()
	defer a.secMu.RUnlock()
	return slices.Clone(a.securities)
}

// ContainsSecurity reports whether s is held by the account.
func (a *Account) ContainsSecurity(s *commodity.Security) bool {
	a.secMu.RLock()
	defer a.secMu.RUnlock()
	return slices.Contains(a.securities, s)
}

// AddSecurity lets the account trade s. Only investment accounts hold securities.
func (a *Account) AddSecurity(s *commodity.Security) error {
	if a.Group() != GroupInvest {
		return fmt.Errorf("%s: %w", a.Name(), ErrNotInvestment)
	}
	a.secMu.Lock()
	defer a.secMu.Unlock()
	if slices.Contains(a.securities, s) {
		return nil
	}
	i, _ := slices.BinarySearchFunc(a.securities, s, func(x, y *commodity.Security) int {
		return commodity.Compare(x, y)
	})
	a.securities = slices.Insert(a.securities, i, s)
	return nil
}

// RemoveSecurity stops the account trading s. A security used by any of the
// account's transactions stays.
func (a *Account) RemoveSecurity(s *commodity.Security) error {
	if slices.Contains(a.UsedSecurities(), s) {
		return fmt.Errorf("%s: %w", s.Symbol, ErrSecurityInUse)
	}
	a.secMu.Lock()
	defer a.secMu.Unlock()
	if i := slices.Index(a.securities, s); i >= 0 {
		a.securities = slices.Delete(a.securities, i, i+1)
	}
	return nil
}

// UsedSecurities returns the securities referenced by the account's transactions.
func (a *Account) UsedSecurities() []*commodity.Security {
	var out []*commodity.Security
	for _, t := range a.Transactions() {
		if s := t.Security(); s != nil && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// SetAttribute stores value under key.
func (a *Account) SetAttribute(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyAttributeKey
	}
	if utf8.RuneCountInString(value) > MaxAttributeLength {
		return fmt.Errorf("%s: %w", key, ErrAttributeTooLong)
	}
	a.attrMu.Lock()
	defer a.attrMu.Unlock()
	a.attributes[key] = value
	return nil
}

func (a *Account) RemoveAttribute(key string) {
	a.attrMu.Lock()
	defer a.attrMu.Unlock()
	delete(a.attributes, key)
}

// Attribute returns the value under key.
func (a *Account) Attribute(key string) (string, bool) {
	a.attrMu.RLock()
	defer a.attrMu.RUnlock()
	v, ok := a.attributes[key]
	return v, ok
}

// Attributes returns a copy of every attribute.
func (a *Account) Attributes() map[string]string {
	a.attrMu.RLock()
	defer a.attrMu.RUnlock()
	return maps.Clone(a.attributes)
}

// ClearCachedBalances drops the memoized balances.
func (a *Account) ClearCachedBalances() {
	a.txMu.Lock()
	defer a.txMu.Unlock()
	a.clearCachedBalances()
}

func (a *Account) clearCachedBalances() {
	a.balance.Store(nil)
	a.reconciled.Store(nil)
}

func (a *Account) strategy() balanceStrategy { return strategyFor(a.Group()) }

// Balance returns the memoized balance of all transactions.
func (a *Account) Balance() decimal.Decimal {
	if b := a.balance.Load(); b != nil {
		return *b
	}
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	b := a.strategy().balance(a, a.transactions)
	a.balance.Store(&b)
	return b
}

// ReconciledBalance returns the memoized balance of reconciled entries.
func (a *Account) ReconciledBalance() decimal.Decimal {
	if b := a.reconciled.Load(); b != nil {
		return *b
	}
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	b := a.strategy().reconciledBalance(a, a.transactions)
	a.reconciled.Store(&b)
	return b
}

// BalanceAt returns the balance through the i-th transaction inclusive.
func (a *Account) BalanceAt(i int) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	if i < 0 || len(a.transactions) == 0 {
		return money.Zero
	}
	if i >= len(a.transactions) {
		i = len(a.transactions) - 1
	}
	return a.strategy().balanceAt(a, a.transactions, i)
}

// BalanceAtTransaction returns the balance through t inclusive.
func (a *Account) BalanceAtTransaction(t *Transaction) decimal.Decimal {
	return a.BalanceAt(a.IndexOf(t))
}

// BalanceOn returns the balance of every transaction dated on or before date.
func (a *Account) BalanceOn(date day.Date) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	if len(a.transactions) == 0 {
		return money.Zero
	}
	return a.strategy().balanceBetween(a, a.transactions, a.transactions[0].Date, date)
}

// BalanceBetween returns the balance of transactions dated within [start, end].
func (a *Account) BalanceBetween(start, end day.Date) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return a.strategy().balanceBetween(a, a.transactions, start, end)
}

// BalanceIn returns Balance converted into currency.
func (a *Account) BalanceIn(currency *commodity.Currency) decimal.Decimal {
	return a.convert(a.Balance(), currency)
}

// BalanceOnIn returns BalanceOn converted into currency.
func (a *Account) BalanceOnIn(date day.Date, currency *commodity.Currency) decimal.Decimal {
	return a.convert(a.BalanceOn(date), currency)
}

// BalanceBetweenIn returns BalanceBetween converted into currency.
func (a *Account) BalanceBetweenIn(start, end day.Date, currency *commodity.Currency) decimal.Decimal {
	return a.convert(a.BalanceBetween(start, end), currency)
}

func (a *Account) convert(d decimal.Decimal, to *commodity.Currency) decimal.Decimal {
	from := a.Currency()
	if from == nil || to == nil {
		return d
	}
	return from.Convert(d, to)
}

// CashBalance sums entry amounts without any market value.
func (a *Account) CashBalance() decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return standard.balance(a, a.transactions)
}

// CashBalanceBetween sums entry amounts dated within [start, end].
func (a *Account) CashBalanceBetween(start, end day.Date) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	return standard.balanceBetween(a, a.transactions, start, end)
}

// MarketValue returns the value of the holdings at today's prices. Zero for
// accounts that do not hold securities.
func (a *Account) MarketValue() decimal.Decimal {
	return a.MarketValueOn(day.Today())
}

// MarketValueOn values holdings acquired up to date at date's prices.
func (a *Account) MarketValueOn(date day.Date) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	if len(a.transactions) == 0 || a.Group() != GroupInvest {
		return money.Zero
	}
	return investment.marketValue(a, a.transactions, a.transactions[0].Date, date)
}

// MarketValueBetween values holdings acquired within [start, end] at end's prices.
func (a *Account) MarketValueBetween(start, end day.Date) decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	if a.Group() != GroupInvest {
		return money.Zero
	}
	return investment.marketValue(a, a.transactions, start, end)
}

// OpeningBalanceForReconcile returns the balance immediately before the
// first transaction not yet reconciled for a.
func (a *Account) OpeningBalanceForReconcile() decimal.Decimal {
	a.txMu.RLock()
	defer a.txMu.RUnlock()
	txs := a.transactions
	if len(txs) == 0 {
		return money.Zero
	}
	date := txs[len(txs)-1].Date
	for _, t := range txs {
		if t.Reconciled(a) != Reconciled {
			date = t.Date
			break
		}
	}
	for i, t := range txs {
		if t.Date.Compare(date) == 0 {
			if i == 0 {
				return money.Zero
			}
			return a.strategy().balanceAt(a, txs, i-1)
		}
	}
	return money.Zero
}

// FirstUnreconciledTransactionDate returns the date of the first transaction
// not reconciled for a, or the last transaction date when all are.
func (a *Account) FirstUnreconciledTransactionDate() (day.Date, bool) {
	txs := a.Transactions()
	if len(txs) == 0 {
		return day.Date{}, false
	}
	for _, t := range txs {
		if t.Reconciled(a) != Reconciled {
			return t.Date, true
		}
	}
	return txs[len(txs)-1].Date, true
}

// TreeBalance returns Balance plus every descendant's tree balance,
// converted into a's currency.
func (a *Account) TreeBalance() decimal.Decimal {
	return a.treeSum(a.Currency(), (*Account).Balance)
}

// TreeBalanceIn returns the tree balance in currency.
func (a *Account) TreeBalanceIn(currency *commodity.Currency) decimal.Decimal {
	return a.treeSum(currency, (*Account).Balance)
}

// TreeBalanceOn returns the tree balance as of date in currency.
func (a *Account) TreeBalanceOn(date day.Date, currency *commodity.Currency) decimal.Decimal {
	return a.treeSum(currency, func(x *Account) decimal.Decimal { return x.BalanceOn(date) })
}

// TreeBalanceBetween returns the tree balance within [start, end] in currency.
func (a *Account) TreeBalanceBetween(start, end day.Date, currency *commodity.Currency) decimal.Decimal {
	return a.treeSum(currency, func(x *Account) decimal.Decimal { return x.BalanceBetween(start, end) })
}

// ReconciledTreeBalance returns the reconciled tree balance in a's currency.
func (a *Account) ReconciledTreeBalance() decimal.Decimal {
	return a.treeSum(a.Currency(), (*Account).ReconciledBalance)
}

func (a *Account) treeSum(currency *commodity.Currency, own func(*Account) decimal.Decimal) decimal.Decimal {
	sum := a.convert(own(a), currency)
	for _, c := range a.Children() {
		sum = sum.Add(c.treeSum(currency, own))
	}
	return sum
}
