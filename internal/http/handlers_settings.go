package http

import (
	"net/http"
	"strings"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
)

type categoryRequest struct {
	Type core.TxType `json:"type"`
	Name string      `json:"name"`
}

type amountRequest struct {
	Amount amountField `json:"amount"`
}

func (req amountRequest) required() (decimal.Decimal, error) {
	if !req.Amount.set {
		return decimal.Zero, &core.ValidationError{Field: "amount", Reason: "is required"}
	}
	return req.Amount.value, nil
}

type budgetAlertResponse struct {
	Category string          `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	Limit    decimal.Decimal `json:"limit"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Categories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, "add_category", err)
		return
	}
	typ := core.TxType(strings.ToLower(string(req.Type)))
	if err := s.ledger.AddCategory(r.Context(), typ, strings.TrimSpace(req.Name)); err != nil {
		s.writeLedgerError(w, r, "add_category", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.ledger.Categories())
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Budgets())
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, "set_budget", err)
		return
	}
	amount, err := req.required()
	if err == nil {
		err = s.ledger.SetBudget(r.Context(), r.PathValue("category"), amount)
	}
	if err != nil {
		s.writeLedgerError(w, r, "set_budget", err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Budgets())
}

// handleCheckBudgets runs the monitor now and returns the alerts it raised.
func (s *Server) handleCheckBudgets(w http.ResponseWriter, r *http.Request) {
	alerts := s.ledger.CheckBudgets(r.Context())
	out := make([]budgetAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, budgetAlertResponse{Category: a.Category, Spent: a.Spent, Limit: a.Limit})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GoalStatus())
}

func (s *Server) handleSetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, "set_savings_goal", err)
		return
	}
	amount, err := req.required()
	if err == nil {
		err = s.ledger.SetSavingsGoal(r.Context(), amount)
	}
	if err != nil {
		s.writeLedgerError(w, r, "set_savings_goal", err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.GoalStatus())
}
