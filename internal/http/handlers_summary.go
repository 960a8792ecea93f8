package http

import (
	"net/http"

	"budgetbook/internal/core"
)

type summaryResponse struct {
	Totals          core.Totals           `json:"totals"`
	SpendByCategory []core.CategoryAmount `json:"spend_by_category"`
	Budgets         []core.BudgetStatus   `json:"budgets"`
	SavingsGoal     core.GoalStatus       `json:"savings_goal"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summaryResponse{
		Totals:          s.ledger.Totals(),
		SpendByCategory: s.ledger.SpendByCategory(),
		Budgets:         s.ledger.BudgetStatus(),
		SavingsGoal:     s.ledger.GoalStatus(),
	})
}

// handleSeries returns monthly expense totals, oldest month first.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.MonthlySeries())
}
