package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	txs, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	cats, err := s.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategories(), cats)

	in := []core.Transaction{
		{ID: "b", Type: core.Expense, Category: "Food", Amount: decimal.RequireFromString("12.5"), Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "a", Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(1000), Note: "jan", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, s.SaveTransactions(ctx, in))
	in[0].Category = "mutated after save"

	got, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Category, "store must keep its own copy")
	assert.Equal(t, "a", got[1].ID)

	newCats := core.Categories{Income: []string{"Salary"}, Expense: []string{"Food", "Food"}}
	require.NoError(t, s.SaveCategories(ctx, newCats))
	cats, err = s.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, newCats, cats)

	_, ok, err := s.LoadSavingsGoal(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.SaveSavingsGoal(ctx, decimal.NewFromInt(5000)))
	goal, ok, _ := s.LoadSavingsGoal(ctx)
	assert.True(t, ok)
	assert.Equal(t, "5000", goal.String())

	assert.Equal(t, 3, s.Saves())
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.LoadCategories(context.Background())
	assert.Equal(t, core.DefaultCategories(), cats, "expected defaults when files missing")

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_expense_categories.txt", "# header\nGroceries\nPets\n\n")

	s = NewFromFiles(dir)
	cats, _ = s.LoadCategories(context.Background())
	assert.Equal(t, []string{"Groceries", "Pets"}, cats.Expense)
	assert.Equal(t, core.DefaultCategories().Income, cats.Income)
}
