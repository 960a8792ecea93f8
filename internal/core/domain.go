package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

type (
	TxType string

	Recurrence string

	Transaction struct {
		ID       string          `json:"id"`
		Type     TxType          `json:"type"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Note     string          `json:"note,omitempty"`
		Date     time.Time       `json:"date"`
	}

	// TransactionPatch holds the fields to merge into an existing transaction.
	// Nil fields are left untouched.
	TransactionPatch struct {
		Type     *TxType          `json:"type,omitempty"`
		Category *string          `json:"category,omitempty"`
		Amount   *decimal.Decimal `json:"amount,omitempty"`
		Note     *string          `json:"note,omitempty"`
		Date     *time.Time       `json:"date,omitempty"`
	}

	Categories struct {
		Income  []string `json:"income"`
		Expense []string `json:"expense"`
	}

	// Budgets maps a category name to its spending limit.
	Budgets map[string]decimal.Decimal

	RecurringDefinition struct {
		ID         string          `json:"id"`
		Type       TxType          `json:"type"`
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Note       string          `json:"note,omitempty"`
		Recurrence Recurrence      `json:"recurrence"`
		// LastMaterialized is the zero Period until the definition first fires.
		LastMaterialized Period `json:"last_materialized"`
	}

	// BudgetAlert is raised when a category's spend enters the [90%, 100%) band.
	BudgetAlert struct {
		Category string
		Spent    decimal.Decimal
		Limit    decimal.Decimal
	}
)

// DefaultSavingsGoal is the goal used until the user sets one.
var DefaultSavingsGoal = decimal.NewFromInt(1000)

// DefaultCategories returns the category lists used when nothing is stored yet.
func DefaultCategories() Categories {
	return Categories{
		Income:  []string{"Salary", "Freelance", "Investments"},
		Expense: []string{"Food", "Transport", "Rent", "Shopping", "Utilities"},
	}
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %q or %q, got %q", Income, Expense, t)}
	}
}

func (r Recurrence) Validate() error {
	switch r {
	case Monthly, Yearly:
		return nil
	default:
		return &ValidationError{Field: "recurrence", Reason: fmt.Sprintf("must be %q or %q, got %q", Monthly, Yearly, r)}
	}
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	return ValidateAmount("amount", t.Amount)
}

// Apply returns a copy of t with the non-nil patch fields merged in.
func (t Transaction) Apply(p TransactionPatch) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

func (d RecurringDefinition) Validate() error {
	if err := d.Type.Validate(); err != nil {
		return err
	}
	if err := ValidateAmount("amount", d.Amount); err != nil {
		return err
	}
	return d.Recurrence.Validate()
}

// Transaction builds the concrete transaction a definition produces at the given instant.
func (d RecurringDefinition) Transaction(id string, at time.Time) Transaction {
	return Transaction{
		ID:       id,
		Type:     d.Type,
		Category: d.Category,
		Amount:   d.Amount,
		Note:     d.Note,
		Date:     at,
	}
}

// List returns the category list for the given transaction type.
func (c Categories) List(t TxType) []string {
	if t == Income {
		return c.Income
	}
	return c.Expense
}

// Contains reports whether name appears in either list.
func (c Categories) Contains(name string) bool {
	for _, list := range [][]string{c.Income, c.Expense} {
		for _, v := range list {
			if v == name {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	return Categories{
		Income:  append([]string{}, c.Income...),
		Expense: append([]string{}, c.Expense...),
	}
}

// Clone returns a copy of the budget map.
func (b Budgets) Clone() Budgets {
	out := make(Budgets, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ValidateCategoryName rejects empty or blank names.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "category", Reason: "cannot be empty"}
	}
	return nil
}
