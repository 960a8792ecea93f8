package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the tables one to one.
type (
	TransactionRow struct {
		ID       string
		Position int64
		Type     string
		Category string
		Amount   string
		Note     string
		Date     string
	}

	CategoryRow struct {
		Kind     string
		Position int64
		Name     string
	}

	BudgetRow struct {
		Category string
		Amount   string
	}

	RecurringRow struct {
		ID         string
		Position   int64
		Type       string
		Category   string
		Amount     string
		Note       string
		Recurrence string
		LastYear   int64
		LastMonth  int64
	}
)

const listTransactions = `SELECT id, position, type, category, amount, note, date FROM transactions ORDER BY position`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Position, &i.Type, &i.Category, &i.Amount, &i.Note, &i.Date); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteAllTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTransactions)
	return err
}

const insertTransaction = `INSERT INTO transactions (id, position, type, category, amount, note, date) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction, r.ID, r.Position, r.Type, r.Category, r.Amount, r.Note, r.Date)
	return err
}

const listCategories = `SELECT kind, position, name FROM categories ORDER BY kind, position`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.Kind, &i.Position, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllCategories = `DELETE FROM categories`

func (q *Queries) DeleteAllCategories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllCategories)
	return err
}

const insertCategory = `INSERT INTO categories (kind, position, name) VALUES (?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, r CategoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory, r.Kind, r.Position, r.Name)
	return err
}

const listBudgets = `SELECT category, amount FROM budgets ORDER BY category`

func (q *Queries) ListBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var i BudgetRow
		if err := rows.Scan(&i.Category, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllBudgets = `DELETE FROM budgets`

func (q *Queries) DeleteAllBudgets(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllBudgets)
	return err
}

const insertBudget = `INSERT INTO budgets (category, amount) VALUES (?, ?)`

func (q *Queries) InsertBudget(ctx context.Context, r BudgetRow) error {
	_, err := q.db.ExecContext(ctx, insertBudget, r.Category, r.Amount)
	return err
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&value)
	return value, err
}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value)
	return err
}

const listRecurring = `SELECT id, position, type, category, amount, note, recurrence, last_year, last_month FROM recurring_definitions ORDER BY position`

func (q *Queries) ListRecurring(ctx context.Context) ([]RecurringRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringRow
	for rows.Next() {
		var i RecurringRow
		if err := rows.Scan(&i.ID, &i.Position, &i.Type, &i.Category, &i.Amount, &i.Note, &i.Recurrence, &i.LastYear, &i.LastMonth); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllRecurring = `DELETE FROM recurring_definitions`

func (q *Queries) DeleteAllRecurring(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRecurring)
	return err
}

const insertRecurring = `INSERT INTO recurring_definitions (id, position, type, category, amount, note, recurrence, last_year, last_month) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecurring(ctx context.Context, r RecurringRow) error {
	_, err := q.db.ExecContext(ctx, insertRecurring, r.ID, r.Position, r.Type, r.Category, r.Amount, r.Note, r.Recurrence, r.LastYear, r.LastMonth)
	return err
}
