// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction dueness.
// Each recurrence (monthly, yearly) maps the current instant onto its own
// calendar period; a definition is due when it has not fired in that period yet.

package services

import (
	"fmt"
	"time"

	"budgetbook/internal/core"
)

// PeriodChecker is the strategy interface for recurring dueness.
type PeriodChecker interface {
	// Period returns the calendar period containing now.
	Period(now time.Time) core.Period
	// IsDue reports whether a definition last materialized in last must fire at now.
	IsDue(last core.Period, now time.Time) bool
}

// MonthlyChecker fires once per calendar month.
type MonthlyChecker struct{}

func (MonthlyChecker) Period(now time.Time) core.Period {
	return core.MonthOf(now)
}

// IsDue returns true if the last materialization happened in an earlier month.
func (c MonthlyChecker) IsDue(last core.Period, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return last.Before(c.Period(now))
}

// YearlyChecker fires once per calendar year.
type YearlyChecker struct{}

func (YearlyChecker) Period(now time.Time) core.Period {
	return core.YearOf(now)
}

// IsDue returns true if the last materialization happened in an earlier year.
func (c YearlyChecker) IsDue(last core.Period, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return last.Year < now.Year()
}

// periodStrategies maps recurrences to their checkers.
var periodStrategies = map[core.Recurrence]PeriodChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetPeriodChecker returns the checker for a recurrence.
func GetPeriodChecker(r core.Recurrence) (PeriodChecker, error) {
	checker, ok := periodStrategies[r]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence: %s", r)
	}
	return checker, nil
}
