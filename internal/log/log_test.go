package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	assert.Equal(t, ComponentLedger, l.Component())

	l.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "component=ledger")
	assert.Contains(t, buf.String(), "k=v")

	child := l.WithComponent(ComponentStorage)
	assert.Equal(t, ComponentStorage, child.Component())
}

func TestMiddlewareCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP})
	sl := NewStructuredLogger(base)

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sl.LogTransaction(r.Context(), OpCreate, core.Transaction{ID: "t1", Type: core.Expense, Category: "Food", Amount: decimal.NewFromInt(5)})
			sl.LogHTTPEnd(r.Context(), r, http.StatusNotFound, 3, "10.0.0.1")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/transactions?x=1", nil))

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "tx_id=t1")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status_code=404")
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, "unknown", l.Component())

	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogError(context.Background(), "write failed", errors.New("disk full"), OpPersist, nil)
	assert.Contains(t, buf.String(), `error="disk full"`)
	assert.Contains(t, buf.String(), "operation=persist")
}
