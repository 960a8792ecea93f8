package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ports"
)

const (
	billReminderTitle = "Bill Reminder"
	billReminderDelay = 5 * time.Second
)

// RecurringLedger is the part of the ledger the processor drives.
type RecurringLedger interface {
	RecurringDefinitions() []core.RecurringDefinition
	// Materialize inserts tx and marks defID as fired in period in one step.
	// It reports false when the definition already fired in period.
	Materialize(ctx context.Context, defID string, period core.Period, tx core.Transaction) (core.Transaction, bool, error)
}

// RecurringProcessor turns recurring definitions into concrete transactions,
// at most once per definition per calendar period.
type RecurringProcessor struct {
	ledger   RecurringLedger
	notifier ports.Notifier
}

// NewRecurringProcessor creates a new recurring transaction processor
func NewRecurringProcessor(ledger RecurringLedger, notifier ports.Notifier) *RecurringProcessor {
	return &RecurringProcessor{
		ledger:   ledger,
		notifier: notifier,
	}
}

// ProcessDue materializes every definition that has not fired in the period
// containing now and returns how many transactions were created. Running it
// again within the same period is a no-op. Persistence failures do not stop
// the run; they are joined into the returned error.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	defs := p.ledger.RecurringDefinitions()
	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_definitions", len(defs),
		"processing_date", now.Format("2006-01-02"))

	var (
		processedCount int
		reminders      []core.RecurringDefinition
		errs           []error
	)

	for _, def := range defs {
		checker, err := GetPeriodChecker(def.Recurrence)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring definition", "recurring_id", def.ID, "error", err)
			continue
		}
		if !checker.IsDue(def.LastMaterialized, now) {
			continue
		}

		period := checker.Period(now)
		created, inserted, err := p.ledger.Materialize(ctx, def.ID, period, def.Transaction("", now))
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring definition",
				"recurring_id", def.ID,
				"category", def.Category,
				"error", err)
			continue
		}
		if !inserted {
			// Another run materialized it first.
			continue
		}
		if err != nil {
			// The transaction is in the ledger; only its write failed.
			errs = append(errs, err)
		}

		processedCount++
		if def.Recurrence == core.Monthly {
			reminders = append(reminders, def)
		}
		slog.InfoContext(ctx, "Created transaction from recurring definition",
			"recurring_id", def.ID,
			"transaction_id", created.ID,
			"category", def.Category,
			"amount", def.Amount.String(),
			"recurrence", def.Recurrence,
			"period", period.String())
	}

	for _, def := range reminders {
		body := fmt.Sprintf("Your %s bill is due this month.", def.Category)
		notify(ctx, p.notifier, billReminderTitle, body, &ports.Trigger{Delay: billReminderDelay})
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processedCount,
		"total_checked", len(defs))

	return processedCount, errors.Join(errs...)
}
