package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ports"

	"github.com/shopspring/decimal"
)

// BudgetWindow selects which transactions count towards a budget.
type BudgetWindow string

const (
	// BudgetWindowLifetime compares budgets with all-time category spend.
	BudgetWindowLifetime BudgetWindow = "lifetime"
	// BudgetWindowMonthly compares budgets with spend in the current calendar month.
	BudgetWindowMonthly BudgetWindow = "monthly"
)

const (
	budgetAlertTitle = "Budget Alert"
)

// budgetAlertRatio is the lower bound of the alert band [ratio*limit, limit).
var budgetAlertRatio = decimal.RequireFromString("0.9")

// BudgetMonitor compares category spend with budgets and raises "nearing
// limit" notifications. It holds no state: running it twice with the same
// input sends the same notifications twice.
type BudgetMonitor struct {
	notifier ports.Notifier
	window   BudgetWindow
}

func NewBudgetMonitor(notifier ports.Notifier, window BudgetWindow) *BudgetMonitor {
	if window == "" {
		window = BudgetWindowLifetime
	}
	return &BudgetMonitor{notifier: notifier, window: window}
}

// Window returns the spend window the monitor evaluates.
func (m *BudgetMonitor) Window() BudgetWindow {
	return m.window
}

// Spend returns the category spend that counts against its budget at now.
func (m *BudgetMonitor) Spend(txs []core.Transaction, category string, now time.Time) decimal.Decimal {
	if m.window == BudgetWindowMonthly {
		p := core.MonthOf(now)
		return core.CategorySpendBetween(txs, category, p.Start(now.Location()), p.End(now.Location()))
	}
	return core.CategorySpend(txs, category)
}

// Alerts returns the categories whose spend sits in the [90%, 100%) band,
// sorted by category name. Spend at or above the limit is not reported.
func (m *BudgetMonitor) Alerts(txs []core.Transaction, budgets core.Budgets, now time.Time) []core.BudgetAlert {
	var alerts []core.BudgetAlert
	for category, limit := range budgets {
		if !limit.IsPositive() {
			continue
		}
		spent := m.Spend(txs, category, now)
		threshold := limit.Mul(budgetAlertRatio)
		if spent.GreaterThanOrEqual(threshold) && spent.LessThan(limit) {
			alerts = append(alerts, core.BudgetAlert{Category: category, Spent: spent, Limit: limit})
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Category < alerts[j].Category })
	return alerts
}

// Check computes the alerts and requests a notification for each one.
// Notification failures are logged and never returned.
func (m *BudgetMonitor) Check(ctx context.Context, txs []core.Transaction, budgets core.Budgets, now time.Time) []core.BudgetAlert {
	alerts := m.Alerts(txs, budgets, now)
	for _, a := range alerts {
		body := fmt.Sprintf("You are nearing your budget limit for %s.", a.Category)
		notify(ctx, m.notifier, budgetAlertTitle, body, nil)
		slog.InfoContext(ctx, "Budget threshold reached",
			"category", a.Category,
			"spent", a.Spent.String(),
			"limit", a.Limit.String(),
			"window", m.window)
	}
	return alerts
}

// Status reports spend against every budget, sorted by category name.
func (m *BudgetMonitor) Status(txs []core.Transaction, budgets core.Budgets, now time.Time) []core.BudgetStatus {
	out := make([]core.BudgetStatus, 0, len(budgets))
	for category, limit := range budgets {
		spent := m.Spend(txs, category, now)
		out = append(out, core.BudgetStatus{
			Category: category,
			Limit:    limit,
			Spent:    spent,
			Progress: core.BudgetProgress(spent, limit),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// notify sends a best-effort notification; failures are logged only.
func notify(ctx context.Context, n ports.Notifier, title, body string, trigger *ports.Trigger) {
	if n == nil {
		return
	}
	if err := n.ScheduleNotification(ctx, title, body, trigger); err != nil {
		nerr := &core.NotificationError{Title: title, Err: err}
		slog.WarnContext(ctx, "Failed to schedule notification", "error", nerr)
	}
}
