package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(typ TxType, category string, amount string, date time.Time) Transaction {
	return Transaction{
		ID:       category + amount + date.Format(time.RFC3339),
		Type:     typ,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Date:     date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeTotals(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := ComputeTotals(nil)
		assert.True(t, got.Income.IsZero())
		assert.True(t, got.Expense.IsZero())
		assert.True(t, got.Balance.IsZero())
	})

	t.Run("salary and food", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, "Food", "300", day(2024, 1, 2)),
			tx(Income, "Salary", "1000", day(2024, 1, 1)),
		}
		got := ComputeTotals(txs)
		assert.Equal(t, "1000", got.Income.String())
		assert.Equal(t, "300", got.Expense.String())
		assert.Equal(t, "700", got.Balance.String())
	})

	t.Run("balance identity", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, "Food", "12.34", day(2024, 1, 2)),
			tx(Expense, "Rent", "900", day(2024, 1, 3)),
			tx(Income, "Salary", "0.01", day(2024, 1, 1)),
			tx(Income, "Freelance", "250.5", day(2024, 2, 1)),
		}
		got := ComputeTotals(txs)
		assert.True(t, got.Balance.Equal(got.Income.Sub(got.Expense)))
	})
}

func TestCategorySpend(t *testing.T) {
	txs := []Transaction{
		tx(Expense, "Food", "10", day(2024, 1, 1)),
		tx(Expense, "food", "99", day(2024, 1, 1)),
		tx(Income, "Food", "1000", day(2024, 1, 1)),
		tx(Expense, "Food", "5.5", day(2024, 2, 1)),
	}
	assert.Equal(t, "15.5", CategorySpend(txs, "Food").String())
	assert.True(t, CategorySpend(txs, "Rent").IsZero())

	feb := Period{Year: 2024, Month: 2}
	got := CategorySpendBetween(txs, "Food", feb.Start(time.UTC), feb.End(time.UTC))
	assert.Equal(t, "5.5", got.String())
}

func TestMonthlySeries(t *testing.T) {
	t.Run("cross-year ordering", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, "Food", "20", day(2024, 1, 10)),
			tx(Expense, "Food", "30", day(2023, 12, 5)),
		}
		got := MonthlySeries(txs)
		require.Len(t, got, 2)
		assert.Equal(t, Period{Year: 2023, Month: 12}, got[0].Period)
		assert.Equal(t, Period{Year: 2024, Month: 1}, got[1].Period)
	})

	t.Run("groups and skips income", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, "Food", "1", day(2024, 10, 1)),
			tx(Expense, "Rent", "2", day(2024, 10, 30)),
			tx(Income, "Salary", "100", day(2024, 10, 2)),
			tx(Expense, "Food", "4", day(2024, 2, 1)),
			tx(Expense, "Food", "8", day(2022, 11, 1)),
		}
		got := MonthlySeries(txs)
		require.Len(t, got, 3)
		assert.Equal(t, "2022-11", got[0].Period.String())
		assert.Equal(t, "2024-02", got[1].Period.String())
		assert.Equal(t, "2024-10", got[2].Period.String())
		assert.Equal(t, "3", got[2].Total.String())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, MonthlySeries(nil))
	})
}

func TestSpendByCategory(t *testing.T) {
	txs := []Transaction{
		tx(Expense, "Food", "10", day(2024, 1, 1)),
		tx(Expense, "Rent", "900", day(2024, 1, 1)),
		tx(Expense, "Food", "15", day(2024, 1, 2)),
	}
	got := SpendByCategory(txs)
	require.Len(t, got, 2)
	assert.Equal(t, "Rent", got[0].Name)
	assert.Equal(t, "25", got[1].Amount.String())
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.5, BudgetProgress(decimal.NewFromInt(50), decimal.NewFromInt(100)))
	assert.Equal(t, 1.0, BudgetProgress(decimal.NewFromInt(150), decimal.NewFromInt(100)))
	assert.Equal(t, 0.0, BudgetProgress(decimal.NewFromInt(50), decimal.Zero))

	assert.Equal(t, 0.25, GoalProgress(decimal.NewFromInt(250), decimal.NewFromInt(1000)))
	assert.Equal(t, 0.0, GoalProgress(decimal.NewFromInt(-10), decimal.NewFromInt(1000)))
	assert.Equal(t, 1.0, GoalProgress(decimal.NewFromInt(2000), decimal.NewFromInt(1000)))
}

func TestPeriodOrdering(t *testing.T) {
	dec := Period{Year: 2023, Month: 12}
	jan := Period{Year: 2024, Month: 1}
	assert.True(t, dec.Before(jan))
	assert.False(t, jan.Before(dec))
	assert.False(t, jan.Before(jan))
	assert.True(t, Period{}.IsZero())
	assert.Equal(t, "2024", YearOf(day(2024, 6, 1)).String())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), YearOf(day(2024, 6, 1)).End(time.UTC))
}
