package http

import (
	"net/http"
	"strings"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
)

type transactionRequest struct {
	ID       string      `json:"id"`
	Type     core.TxType `json:"type"`
	Category string      `json:"category"`
	Amount   amountField `json:"amount"`
	Note     string      `json:"note"`
	Date     dateField   `json:"date"`
}

type transactionPatchRequest struct {
	Type     *core.TxType `json:"type"`
	Category *string      `json:"category"`
	Amount   amountField  `json:"amount"`
	Note     *string      `json:"note"`
	Date     dateField    `json:"date"`
}

func (p transactionPatchRequest) patch() core.TransactionPatch {
	out := core.TransactionPatch{Type: p.Type, Category: p.Category, Note: p.Note}
	if p.Amount.set {
		out.Amount = &p.Amount.value
	}
	if p.Date.set {
		out.Date = &p.Date.value
	}
	return out
}

// handleListTransactions supports optional ?type= and ?category= filters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	typ := core.TxType(strings.ToLower(r.URL.Query().Get("type")))
	if typ != "" {
		if err := typ.Validate(); err != nil {
			s.writeLedgerError(w, r, applog.OpList, err)
			return
		}
	}
	category := r.URL.Query().Get("category")

	txs := s.ledger.Transactions()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if typ != "" && tx.Type != typ {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		out = append(out, tx)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.Transaction(r.PathValue("id"))
	if err != nil {
		s.writeLedgerError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, applog.OpCreate, err)
		return
	}
	if !req.Amount.set {
		s.writeLedgerError(w, r, applog.OpCreate, &core.ValidationError{Field: "amount", Reason: "is required"})
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), core.Transaction{
		ID:       strings.TrimSpace(req.ID),
		Type:     core.TxType(strings.ToLower(string(req.Type))),
		Category: strings.TrimSpace(req.Category),
		Amount:   req.Amount.value,
		Note:     strings.TrimSpace(req.Note),
		Date:     req.Date.value,
	})
	if err != nil && !s.acceptUnsaved(w, r, applog.OpCreate, err) {
		s.writeLedgerError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogTransaction(r.Context(), applog.OpCreate, tx)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}
	tx, err := s.ledger.UpdateTransaction(r.Context(), r.PathValue("id"), req.patch())
	if err != nil {
		s.writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogTransaction(r.Context(), applog.OpUpdate, tx)
	writeJSON(w, http.StatusOK, tx)
}

// handleDeleteTransaction answers 204 for unknown ids too.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.writeLedgerError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
