package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name: "income ok",
			tx:   Transaction{ID: "a", Type: Income, Amount: decimal.NewFromInt(10)},
		},
		{
			name: "zero amount is allowed",
			tx:   Transaction{ID: "a", Type: Expense, Amount: decimal.Zero},
		},
		{
			name:    "negative amount",
			tx:      Transaction{ID: "a", Type: Expense, Amount: decimal.NewFromInt(-1)},
			wantErr: true,
		},
		{
			name:    "unknown type",
			tx:      Transaction{ID: "a", Type: "transfer", Amount: decimal.NewFromInt(1)},
			wantErr: true,
		},
		{
			name:    "empty type",
			tx:      Transaction{ID: "a", Amount: decimal.NewFromInt(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransactionApply(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orig := Transaction{ID: "x", Type: Expense, Category: "Food", Amount: decimal.NewFromInt(5), Note: "lunch", Date: date}

	cat := "Transport"
	amount := decimal.NewFromInt(7)
	got := orig.Apply(TransactionPatch{Category: &cat, Amount: &amount})

	assert.Equal(t, "x", got.ID)
	assert.Equal(t, "Transport", got.Category)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "lunch", got.Note)
	assert.Equal(t, date, got.Date)
	assert.Equal(t, "Food", orig.Category, "original must not change")
}

func TestRecurringDefinitionValidate(t *testing.T) {
	good := RecurringDefinition{ID: "r", Type: Expense, Category: "Rent", Amount: decimal.NewFromInt(900), Recurrence: Monthly}
	require.NoError(t, good.Validate())

	bad := good
	bad.Recurrence = "weekly"
	assert.ErrorIs(t, bad.Validate(), ErrValidation)

	bad = good
	bad.Amount = decimal.NewFromInt(-5)
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestCategoriesHelpers(t *testing.T) {
	c := DefaultCategories()
	assert.Equal(t, []string{"Salary", "Freelance", "Investments"}, c.List(Income))
	assert.Equal(t, []string{"Food", "Transport", "Rent", "Shopping", "Utilities"}, c.List(Expense))
	assert.True(t, c.Contains("Rent"))
	assert.False(t, c.Contains("rent"))

	clone := c.Clone()
	clone.Expense[0] = "changed"
	assert.Equal(t, "Food", c.Expense[0])
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("disk full")
	perr := &PersistenceError{Op: "transactions", Err: cause}
	assert.ErrorIs(t, perr, ErrPersistence)
	assert.ErrorIs(t, perr, cause)
	assert.NotErrorIs(t, perr, ErrValidation)

	nf := &NotFoundError{Kind: "transaction", ID: "abc"}
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Contains(t, nf.Error(), `"abc"`)
}
