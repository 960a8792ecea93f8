// Package memory is an in-process ports.Persistence. Nothing survives a
// restart; it backs DATA_BACKEND=memory and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	categories   *core.Categories
	budgets      core.Budgets
	goal         *decimal.Decimal
	recurring    []core.RecurringDefinition
	saves        int
}

// New returns an empty store. LoadCategories yields the defaults until
// categories are saved.
func New() *Store {
	return &Store{}
}

// NewFromFiles seeds categories from the files under base, see SeedFromFiles.
func NewFromFiles(base string) *Store {
	cats, ok := SeedFromFiles(base)
	if !ok {
		return New()
	}
	return &Store{categories: &cats}
}

// SeedFromFiles reads seed_income_categories.txt and
// seed_expense_categories.txt under base, one name per line, # for comments.
// A missing or empty file keeps the default list for that type; ok is false
// when neither file provided anything.
func SeedFromFiles(base string) (cats core.Categories, ok bool) {
	income := readLines(filepath.Join(base, "seed_income_categories.txt"))
	expense := readLines(filepath.Join(base, "seed_expense_categories.txt"))
	if len(income) == 0 && len(expense) == 0 {
		return core.DefaultCategories(), false
	}
	cats = core.DefaultCategories()
	if len(income) > 0 {
		cats.Income = income
	}
	if len(expense) > 0 {
		cats.Expense = expense
	}
	return cats, true
}

func (s *Store) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.transactions...), nil
}

func (s *Store) SaveTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction{}, txs...)
	s.saves++
	return nil
}

func (s *Store) LoadCategories(_ context.Context) (core.Categories, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categories == nil {
		return core.DefaultCategories(), nil
	}
	return s.categories.Clone(), nil
}

func (s *Store) SaveCategories(_ context.Context, c core.Categories) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c.Clone()
	s.categories = &cp
	s.saves++
	return nil
}

func (s *Store) LoadBudgets(_ context.Context) (core.Budgets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Clone(), nil
}

func (s *Store) SaveBudgets(_ context.Context, b core.Budgets) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = b.Clone()
	s.saves++
	return nil
}

func (s *Store) LoadSavingsGoal(_ context.Context) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goal == nil {
		return decimal.Zero, false, nil
	}
	return *s.goal, true, nil
}

func (s *Store) SaveSavingsGoal(_ context.Context, goal decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = &goal
	s.saves++
	return nil
}

func (s *Store) LoadRecurring(_ context.Context) ([]core.RecurringDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringDefinition{}, s.recurring...), nil
}

func (s *Store) SaveRecurring(_ context.Context, defs []core.RecurringDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring = append([]core.RecurringDefinition{}, defs...)
	s.saves++
	return nil
}

// Saves counts completed Save calls of any kind.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
