package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	settingSavingsGoal     = "savings_goal"
	settingCategoriesSaved = "categories_saved"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside one SQL transaction so that every Save replaces its
// collection atomically.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse amount %q: %w", row.ID, row.Amount, err)
		}
		date, err := time.Parse(time.RFC3339Nano, row.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse date %q: %w", row.ID, row.Date, err)
		}
		out = append(out, core.Transaction{
			ID:       row.ID,
			Type:     core.TxType(row.Type),
			Category: row.Category,
			Amount:   amount,
			Note:     row.Note,
			Date:     date,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllTransactions(ctx); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		for i, t := range txs {
			if err := q.InsertTransaction(ctx, TransactionRow{
				ID:       t.ID,
				Position: int64(i),
				Type:     string(t.Type),
				Category: t.Category,
				Amount:   t.Amount.String(),
				Note:     t.Note,
				Date:     t.Date.Format(time.RFC3339Nano),
			}); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}

// LoadCategories returns the default lists until categories have been saved
// at least once.
func (r *SQLiteRepository) LoadCategories(ctx context.Context) (core.Categories, error) {
	if _, err := r.queries.GetSetting(ctx, settingCategoriesSaved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DefaultCategories(), nil
		}
		return core.Categories{}, fmt.Errorf("get categories marker: %w", err)
	}
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return core.Categories{}, fmt.Errorf("list categories: %w", err)
	}
	cats := core.Categories{Income: []string{}, Expense: []string{}}
	for _, row := range rows {
		switch core.TxType(row.Kind) {
		case core.Income:
			cats.Income = append(cats.Income, row.Name)
		case core.Expense:
			cats.Expense = append(cats.Expense, row.Name)
		}
	}
	return cats, nil
}

func (r *SQLiteRepository) SaveCategories(ctx context.Context, c core.Categories) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllCategories(ctx); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for _, t := range []core.TxType{core.Income, core.Expense} {
			for i, name := range c.List(t) {
				if err := q.InsertCategory(ctx, CategoryRow{Kind: string(t), Position: int64(i), Name: name}); err != nil {
					return fmt.Errorf("insert category %s: %w", name, err)
				}
			}
		}
		return q.UpsertSetting(ctx, settingCategoriesSaved, "1")
	})
}

// SeedCategories stores c only when categories have never been saved and
// reports whether it did.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, c core.Categories) (bool, error) {
	_, err := r.queries.GetSetting(ctx, settingCategoriesSaved)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("get categories marker: %w", err)
	}
	if err := r.SaveCategories(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteRepository) LoadBudgets(ctx context.Context) (core.Budgets, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make(core.Budgets, len(rows))
	for _, row := range rows {
		limit, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget %s: parse amount %q: %w", row.Category, row.Amount, err)
		}
		out[row.Category] = limit
	}
	return out, nil
}

func (r *SQLiteRepository) SaveBudgets(ctx context.Context, b core.Budgets) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllBudgets(ctx); err != nil {
			return fmt.Errorf("clear budgets: %w", err)
		}
		for cat, limit := range b {
			if err := q.InsertBudget(ctx, BudgetRow{Category: cat, Amount: limit.String()}); err != nil {
				return fmt.Errorf("insert budget %s: %w", cat, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) LoadSavingsGoal(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := r.queries.GetSetting(ctx, settingSavingsGoal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get savings goal: %w", err)
	}
	goal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse savings goal %q: %w", raw, err)
	}
	return goal, true, nil
}

func (r *SQLiteRepository) SaveSavingsGoal(ctx context.Context, goal decimal.Decimal) error {
	if err := r.queries.UpsertSetting(ctx, settingSavingsGoal, goal.String()); err != nil {
		return fmt.Errorf("save savings goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadRecurring(ctx context.Context) ([]core.RecurringDefinition, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	out := make([]core.RecurringDefinition, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("recurring %s: parse amount %q: %w", row.ID, row.Amount, err)
		}
		out = append(out, core.RecurringDefinition{
			ID:         row.ID,
			Type:       core.TxType(row.Type),
			Category:   row.Category,
			Amount:     amount,
			Note:       row.Note,
			Recurrence: core.Recurrence(row.Recurrence),
			LastMaterialized: core.Period{
				Year:  int(row.LastYear),
				Month: int(row.LastMonth),
			},
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveRecurring(ctx context.Context, defs []core.RecurringDefinition) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllRecurring(ctx); err != nil {
			return fmt.Errorf("clear recurring definitions: %w", err)
		}
		for i, d := range defs {
			if err := q.InsertRecurring(ctx, RecurringRow{
				ID:         d.ID,
				Position:   int64(i),
				Type:       string(d.Type),
				Category:   d.Category,
				Amount:     d.Amount.String(),
				Note:       d.Note,
				Recurrence: string(d.Recurrence),
				LastYear:   int64(d.LastMaterialized.Year),
				LastMonth:  int64(d.LastMaterialized.Month),
			}); err != nil {
				return fmt.Errorf("insert recurring %s: %w", d.ID, err)
			}
		}
		return nil
	})
}
