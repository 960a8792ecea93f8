package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budgetbook/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	// Applied is set when the change took effect in memory but was not saved.
	// Clients must not retry such a request.
	Applied bool `json:"applied,omitempty"`
}

const unsavedWarning = `199 - "change applied but not saved"`

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeLedgerError maps the core error kinds onto status codes: validation
// 400, not found 404, applied-but-unsaved 503, everything else 500.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrPersistence):
		s.events.LogError(r.Context(), "Ledger change kept in memory but not persisted", err, op, nil)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "change applied but not saved", Applied: true})
	default:
		s.events.LogError(r.Context(), "Ledger operation failed", err, op, nil)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// acceptUnsaved reports whether err only means the change was not saved. In
// that case the change is live, so the handler answers with its normal
// success body and a Warning header instead of an error a client would retry.
func (s *Server) acceptUnsaved(w http.ResponseWriter, r *http.Request, op string, err error) bool {
	if !errors.Is(err, core.ErrPersistence) {
		return false
	}
	s.events.LogError(r.Context(), "Ledger change kept in memory but not persisted", err, op, nil)
	w.Header().Set("Warning", unsavedWarning)
	return true
}
