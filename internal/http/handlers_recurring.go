package http

import (
	"net/http"
	"strings"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
)

type recurringRequest struct {
	ID         string          `json:"id"`
	Type       core.TxType     `json:"type"`
	Category   string          `json:"category"`
	Amount     amountField     `json:"amount"`
	Note       string          `json:"note"`
	Recurrence core.Recurrence `json:"recurrence"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.RecurringDefinitions())
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, applog.OpRecur, err)
		return
	}
	if !req.Amount.set {
		s.writeLedgerError(w, r, applog.OpRecur, &core.ValidationError{Field: "amount", Reason: "is required"})
		return
	}
	def, err := s.ledger.AddRecurringDefinition(r.Context(), core.RecurringDefinition{
		ID:         strings.TrimSpace(req.ID),
		Type:       core.TxType(strings.ToLower(string(req.Type))),
		Category:   strings.TrimSpace(req.Category),
		Amount:     req.Amount.value,
		Note:       strings.TrimSpace(req.Note),
		Recurrence: core.Recurrence(strings.ToLower(string(req.Recurrence))),
	})
	if err != nil && !s.acceptUnsaved(w, r, applog.OpRecur, err) {
		s.writeLedgerError(w, r, applog.OpRecur, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// handleRunRecurring materializes every due definition now.
func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.ProcessRecurring(r.Context())
	if err != nil && !s.acceptUnsaved(w, r, applog.OpRecur, err) {
		s.writeLedgerError(w, r, applog.OpRecur, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"materialized": n})
}
