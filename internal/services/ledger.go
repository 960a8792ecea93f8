package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the ledger: the authoritative in-memory transactions, categories,
// budgets, savings goal and recurring definitions. It is constructed once per
// process and handed to whatever presents it.
//
// Every mutation runs to completion under the store lock and then writes the
// full snapshot of what it changed. Validation failures leave state untouched.
// A failed write is reported as *core.PersistenceError after the in-memory
// change has been applied; Persist retries the write.
type Store struct {
	mu sync.Mutex

	persistence ports.Persistence
	notifier    ports.Notifier
	monitor     *BudgetMonitor
	recurring   *RecurringProcessor
	now         func() time.Time
	newID       func() string

	transactions []core.Transaction // newest first by insertion
	categories   core.Categories
	budgets      core.Budgets
	savingsGoal  decimal.Decimal
	definitions  []core.RecurringDefinition

	// recurringUnsaved is set while the stored recurring list lags memory.
	recurringUnsaved bool
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid.NewString for new transactions and definitions.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithBudgetWindow selects the spend window used by the budget monitor.
func WithBudgetWindow(w BudgetWindow) Option {
	return func(s *Store) { s.monitor = NewBudgetMonitor(s.notifier, w) }
}

func NewStore(persistence ports.Persistence, notifier ports.Notifier, opts ...Option) *Store {
	s := &Store{
		persistence: persistence,
		notifier:    notifier,
		now:         time.Now,
		newID:       uuid.NewString,
		categories:  core.DefaultCategories(),
		budgets:     core.Budgets{},
		savingsGoal: core.DefaultSavingsGoal,
	}
	s.monitor = NewBudgetMonitor(notifier, BudgetWindowLifetime)
	for _, opt := range opts {
		opt(s)
	}
	s.recurring = NewRecurringProcessor(s, notifier)
	return s
}

// Initialize hydrates the store from persistence, materializes due recurring
// transactions and checks budgets, in that order. It is called once after
// construction.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	count, err := s.ProcessRecurring(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Recurring processing finished with errors", "created", count, "error", err)
	}

	s.CheckBudgets(ctx)
	return nil
}

func (s *Store) hydrate(ctx context.Context) error {
	txs, err := s.persistence.LoadTransactions(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "load transactions", Err: err}
	}
	cats, err := s.persistence.LoadCategories(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "load categories", Err: err}
	}
	budgets, err := s.persistence.LoadBudgets(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "load budgets", Err: err}
	}
	goal, ok, err := s.persistence.LoadSavingsGoal(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "load savings goal", Err: err}
	}
	defs, err := s.persistence.LoadRecurring(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "load recurring", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction{}, txs...)
	s.categories = cats.Clone()
	s.budgets = core.Budgets{}
	if budgets != nil {
		s.budgets = budgets.Clone()
	}
	if ok {
		s.savingsGoal = goal
	}
	s.definitions = append([]core.RecurringDefinition{}, defs...)

	slog.InfoContext(ctx, "Ledger hydrated",
		"transactions", len(s.transactions),
		"income_categories", len(s.categories.Income),
		"expense_categories", len(s.categories.Expense),
		"budgets", len(s.budgets),
		"recurring", len(s.definitions))
	return nil
}

// AddTransaction inserts tx at the head of the ledger. An empty category is
// inferred from the note when the classifier has a suggestion. Missing IDs and
// dates are filled in.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	tx, err := s.prepareLocked(tx)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.insertLocked(tx)

	err = s.saveTransactionsLocked(ctx)
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID,
		"type", tx.Type,
		"category", tx.Category,
		"amount", tx.Amount.String())

	s.monitor.Check(ctx, txs, budgets, s.now())
	return tx, err
}

// DeleteTransaction removes the transaction with the given id. Deleting an
// unknown id is a no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		slog.DebugContext(ctx, "Delete of unknown transaction ignored", "id", id)
		return nil
	}

	next := make([]core.Transaction, 0, len(s.transactions)-1)
	next = append(next, s.transactions[:i]...)
	next = append(next, s.transactions[i+1:]...)
	s.transactions = next

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return s.saveTransactionsLocked(ctx)
}

// UpdateTransaction merges patch into the transaction with the given id.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, &core.NotFoundError{Kind: "transaction", ID: id}
	}
	merged := s.transactions[i].Apply(patch)
	if err := merged.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}

	next := append([]core.Transaction{}, s.transactions...)
	next[i] = merged
	s.transactions = next

	err := s.saveTransactionsLocked(ctx)
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	s.monitor.Check(ctx, txs, budgets, s.now())
	return merged, err
}

// AddCategory appends name to the list for typ. Duplicates are kept.
func (s *Store) AddCategory(ctx context.Context, typ core.TxType, name string) error {
	if err := typ.Validate(); err != nil {
		return err
	}
	if err := core.ValidateCategoryName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.categories.Clone()
	if typ == core.Income {
		next.Income = append(next.Income, name)
	} else {
		next.Expense = append(next.Expense, name)
	}
	s.categories = next

	slog.InfoContext(ctx, "Category added", "type", typ, "name", name)
	if err := s.persistence.SaveCategories(ctx, next.Clone()); err != nil {
		return &core.PersistenceError{Op: "categories", Err: err}
	}
	return nil
}

// SetBudget creates or replaces the budget for category and re-checks budgets.
func (s *Store) SetBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	if err := core.ValidateCategoryName(category); err != nil {
		return err
	}
	if err := core.ValidateAmount("budget", amount); err != nil {
		return err
	}

	s.mu.Lock()
	next := s.budgets.Clone()
	next[category] = amount
	s.budgets = next

	var err error
	if werr := s.persistence.SaveBudgets(ctx, next.Clone()); werr != nil {
		err = &core.PersistenceError{Op: "budgets", Err: werr}
	}
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "Budget set", "category", category, "amount", amount.String())
	s.monitor.Check(ctx, txs, budgets, s.now())
	return err
}

func (s *Store) SetSavingsGoal(ctx context.Context, amount decimal.Decimal) error {
	if err := core.ValidateAmount("savings goal", amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.savingsGoal = amount

	if err := s.persistence.SaveSavingsGoal(ctx, amount); err != nil {
		return &core.PersistenceError{Op: "savings goal", Err: err}
	}
	return nil
}

// AddRecurringDefinition appends def to the recurring list. It does not fire
// until the next ProcessRecurring.
func (s *Store) AddRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.RecurringDefinition{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if def.ID == "" {
		def.ID = s.newID()
	} else if s.definitionIndex(def.ID) >= 0 {
		return core.RecurringDefinition{}, &core.ValidationError{Field: "id", Reason: "duplicate recurring id " + def.ID}
	}

	next := make([]core.RecurringDefinition, 0, len(s.definitions)+1)
	next = append(next, s.definitions...)
	next = append(next, def)
	s.definitions = next

	slog.InfoContext(ctx, "Recurring definition added", "id", def.ID, "recurrence", def.Recurrence, "category", def.Category)
	return def, s.saveRecurringLocked(ctx)
}

// MarkMaterialized records that the definition fired for period p.
func (s *Store) MarkMaterialized(ctx context.Context, id string, p core.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.definitionIndex(id)
	if i < 0 {
		return &core.NotFoundError{Kind: "recurring definition", ID: id}
	}
	next := append([]core.RecurringDefinition{}, s.definitions...)
	next[i].LastMaterialized = p
	s.definitions = next
	return s.saveRecurringLocked(ctx)
}

// Materialize inserts tx on behalf of the recurring definition defID and
// records period as its last materialization. It reports false, and changes
// nothing, when the definition already fired in period. The check and both
// changes happen under one lock, so concurrent runs insert at most one
// transaction per definition and period.
//
// The marker is saved before the transaction; if it cannot be saved the
// transaction snapshot is not written either, so a stored transaction always
// has its stored marker.
func (s *Store) Materialize(ctx context.Context, defID string, period core.Period, tx core.Transaction) (core.Transaction, bool, error) {
	s.mu.Lock()
	i := s.definitionIndex(defID)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, &core.NotFoundError{Kind: "recurring definition", ID: defID}
	}
	if !s.definitions[i].LastMaterialized.Before(period) {
		s.mu.Unlock()
		return core.Transaction{}, false, nil
	}
	tx, err := s.prepareLocked(tx)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, false, err
	}

	defs := append([]core.RecurringDefinition{}, s.definitions...)
	defs[i].LastMaterialized = period
	s.definitions = defs
	s.insertLocked(tx)

	err = s.saveRecurringLocked(ctx)
	if err == nil {
		err = s.saveTransactionsLocked(ctx)
	}
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()

	s.monitor.Check(ctx, txs, budgets, s.now())
	return tx, true, err
}

// ProcessRecurring materializes due recurring definitions as of now.
func (s *Store) ProcessRecurring(ctx context.Context) (int, error) {
	return s.recurring.ProcessDue(ctx, s.now())
}

// CheckBudgets runs the budget monitor over the current state.
func (s *Store) CheckBudgets(ctx context.Context) []core.BudgetAlert {
	s.mu.Lock()
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()
	return s.monitor.Check(ctx, txs, budgets, s.now())
}

// Persist writes the complete current state. Use it to retry after a
// *core.PersistenceError.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.saveRecurringLocked(ctx); err != nil {
		errs = append(errs, err)
	} else if err := s.saveTransactionsLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.persistence.SaveCategories(ctx, s.categories.Clone()); err != nil {
		errs = append(errs, &core.PersistenceError{Op: "categories", Err: err})
	}
	if err := s.persistence.SaveBudgets(ctx, s.budgets.Clone()); err != nil {
		errs = append(errs, &core.PersistenceError{Op: "budgets", Err: err})
	}
	if err := s.persistence.SaveSavingsGoal(ctx, s.savingsGoal); err != nil {
		errs = append(errs, &core.PersistenceError{Op: "savings goal", Err: err})
	}
	return errors.Join(errs...)
}

// Transactions returns a copy of the ledger, newest first by insertion.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.transactions...)
}

// Transaction returns the transaction with the given id.
func (s *Store) Transaction(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, &core.NotFoundError{Kind: "transaction", ID: id}
	}
	return s.transactions[i], nil
}

func (s *Store) Categories() core.Categories {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories.Clone()
}

func (s *Store) Budgets() core.Budgets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Clone()
}

func (s *Store) SavingsGoal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savingsGoal
}

func (s *Store) RecurringDefinitions() []core.RecurringDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringDefinition{}, s.definitions...)
}

// Totals is recomputed from the transaction sequence on every call.
func (s *Store) Totals() core.Totals {
	return core.ComputeTotals(s.Transactions())
}

func (s *Store) TotalIncome() decimal.Decimal  { return s.Totals().Income }
func (s *Store) TotalExpense() decimal.Decimal { return s.Totals().Expense }
func (s *Store) Balance() decimal.Decimal      { return s.Totals().Balance }

func (s *Store) MonthlySeries() []core.MonthlyTotal {
	return core.MonthlySeries(s.Transactions())
}

func (s *Store) SpendByCategory() []core.CategoryAmount {
	return core.SpendByCategory(s.Transactions())
}

// BudgetStatus reports spend against each budget within the monitor's window.
func (s *Store) BudgetStatus() []core.BudgetStatus {
	s.mu.Lock()
	txs, budgets := s.snapshotForMonitorLocked()
	s.mu.Unlock()
	return s.monitor.Status(txs, budgets, s.now())
}

// GoalStatus compares the current balance with the savings goal.
func (s *Store) GoalStatus() core.GoalStatus {
	s.mu.Lock()
	goal := s.savingsGoal
	txs := append([]core.Transaction{}, s.transactions...)
	s.mu.Unlock()

	balance := core.ComputeTotals(txs).Balance
	return core.GoalStatus{Goal: goal, Saved: balance, Progress: core.GoalProgress(balance, goal)}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) definitionIndex(id string) int {
	for i, d := range s.definitions {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// prepareLocked classifies, validates and fills in the ID and date of a
// transaction about to be inserted.
func (s *Store) prepareLocked(tx core.Transaction) (core.Transaction, error) {
	if tx.Category == "" {
		if guess := Classify(tx.Note, s.categories); guess != "" {
			tx.Category = guess
		}
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = s.newID()
	} else if s.indexOf(tx.ID) >= 0 {
		return core.Transaction{}, &core.ValidationError{Field: "id", Reason: "duplicate transaction id " + tx.ID}
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	return tx, nil
}

func (s *Store) insertLocked(tx core.Transaction) {
	next := make([]core.Transaction, 0, len(s.transactions)+1)
	next = append(next, tx)
	next = append(next, s.transactions...)
	s.transactions = next
}

// saveTransactionsLocked refuses to write while the recurring markers are
// behind, so materialized transactions never reach storage without them.
func (s *Store) saveTransactionsLocked(ctx context.Context) error {
	if s.recurringUnsaved {
		if err := s.saveRecurringLocked(ctx); err != nil {
			return err
		}
	}
	snapshot := append([]core.Transaction{}, s.transactions...)
	if err := s.persistence.SaveTransactions(ctx, snapshot); err != nil {
		slog.ErrorContext(ctx, "Failed to persist transactions", "count", len(snapshot), "error", err)
		return &core.PersistenceError{Op: "transactions", Err: err}
	}
	return nil
}

func (s *Store) saveRecurringLocked(ctx context.Context) error {
	snapshot := append([]core.RecurringDefinition{}, s.definitions...)
	if err := s.persistence.SaveRecurring(ctx, snapshot); err != nil {
		s.recurringUnsaved = true
		slog.ErrorContext(ctx, "Failed to persist recurring definitions", "count", len(snapshot), "error", err)
		return &core.PersistenceError{Op: "recurring", Err: err}
	}
	s.recurringUnsaved = false
	return nil
}

func (s *Store) snapshotForMonitorLocked() ([]core.Transaction, core.Budgets) {
	return append([]core.Transaction{}, s.transactions...), s.budgets.Clone()
}
