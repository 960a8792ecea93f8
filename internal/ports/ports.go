// Package ports declares the collaborators the ledger consumes: somewhere to
// keep its state and somewhere to send notifications.
package ports

import (
	"context"
	"time"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
)

// Ports for outbound adapters.
type (
	TransactionStore interface {
		// LoadTransactions returns an empty slice when nothing is stored.
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
		// SaveTransactions replaces the stored sequence with txs.
		SaveTransactions(ctx context.Context, txs []core.Transaction) error
	}

	CategoryStore interface {
		// LoadCategories returns core.DefaultCategories when nothing is stored.
		LoadCategories(ctx context.Context) (core.Categories, error)
		SaveCategories(ctx context.Context, c core.Categories) error
	}

	BudgetStore interface {
		LoadBudgets(ctx context.Context) (core.Budgets, error)
		SaveBudgets(ctx context.Context, b core.Budgets) error
	}

	GoalStore interface {
		// LoadSavingsGoal reports ok=false when no goal has been stored.
		LoadSavingsGoal(ctx context.Context) (goal decimal.Decimal, ok bool, err error)
		SaveSavingsGoal(ctx context.Context, goal decimal.Decimal) error
	}

	RecurringStore interface {
		LoadRecurring(ctx context.Context) ([]core.RecurringDefinition, error)
		SaveRecurring(ctx context.Context, defs []core.RecurringDefinition) error
	}

	// Persistence is everything the ledger keeps between runs. Every Save
	// receives the full authoritative snapshot, never a diff.
	Persistence interface {
		TransactionStore
		CategoryStore
		BudgetStore
		GoalStore
		RecurringStore
	}

	// Trigger delays delivery of a notification. A nil trigger means "now".
	Trigger struct {
		Delay time.Duration `json:"delay"`
	}

	// Notifier delivers best-effort notifications. There is no acknowledgement
	// that the user saw them.
	Notifier interface {
		ScheduleNotification(ctx context.Context, title, body string, trigger *Trigger) error
	}
)
