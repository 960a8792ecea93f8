package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals are always recomputed from the transaction sequence, never cached.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthlyTotal is the expense total of a single calendar month.
type MonthlyTotal struct {
	Period Period          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BudgetStatus is the spend of a budgeted category against its limit.
type BudgetStatus struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Spent    decimal.Decimal `json:"spent"`
	Progress float64         `json:"progress"`
}

// GoalStatus compares the current balance with the savings goal.
type GoalStatus struct {
	Goal     decimal.Decimal `json:"goal"`
	Saved    decimal.Decimal `json:"saved"`
	Progress float64         `json:"progress"`
}

func ComputeTotals(txs []Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// CategorySpend sums expense amounts whose category matches exactly (case-sensitive).
func CategorySpend(txs []Transaction, category string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Type == Expense && t.Category == category {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// CategorySpendBetween is CategorySpend restricted to dates in [from, to).
func CategorySpendBetween(txs []Transaction, category string, from, to time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Type != Expense || t.Category != category {
			continue
		}
		if t.Date.Before(from) || !t.Date.Before(to) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum
}

// SpendByCategory returns expense totals per category, largest first.
func SpendByCategory(txs []Transaction) []CategoryAmount {
	sums := map[string]decimal.Decimal{}
	for _, t := range txs {
		if t.Type == Expense {
			sums[t.Category] = sums[t.Category].Add(t.Amount)
		}
	}
	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlySeries groups expenses by the calendar month of their date and returns
// the groups in ascending chronological order. Ordering uses the numeric
// (year, month) pair, never a formatted label.
func MonthlySeries(txs []Transaction) []MonthlyTotal {
	groups := map[Period]decimal.Decimal{}
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		p := MonthOf(t.Date)
		groups[p] = groups[p].Add(t.Amount)
	}
	out := make([]MonthlyTotal, 0, len(groups))
	for p, total := range groups {
		out = append(out, MonthlyTotal{Period: p, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// BudgetProgress is spent/limit capped at 1; 0 when there is no positive limit.
func BudgetProgress(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return capRatio(spent.Div(limit))
}

// GoalProgress is balance/goal capped at 1; 0 when either is not positive.
func GoalProgress(balance, goal decimal.Decimal) float64 {
	if !goal.IsPositive() || !balance.IsPositive() {
		return 0
	}
	return capRatio(balance.Div(goal))
}

func capRatio(r decimal.Decimal) float64 {
	if r.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	f, _ := r.Float64()
	return f
}
