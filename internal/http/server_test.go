package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/ports"
	"budgetbook/internal/services"
	"budgetbook/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedNotification struct{ title, body string }

type captureNotifier struct {
	mu   sync.Mutex
	sent []capturedNotification
}

func (n *captureNotifier) ScheduleNotification(_ context.Context, title, body string, _ *ports.Trigger) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedNotification{title, body})
	return nil
}

func (n *captureNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.title)
	}
	return out
}

type testEnv struct {
	handler  http.Handler
	store    *services.Store
	notifier *captureNotifier
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	notifier := &captureNotifier{}
	store := services.NewStore(memory.New(), notifier, services.WithClock(func() time.Time { return now }))
	require.NoError(t, store.Initialize(context.Background()))

	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Output: io.Discard})
	}
	srv := NewServer(":0", store, opts)
	return &testEnv{handler: srv.Handler, store: store, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "203.0.113.10:4000"
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", "").Code)

	down := newTestEnv(t, Options{Ready: func(context.Context) error { return errors.New("db gone") }})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestTransactionsLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","category":"Food","amount":"12,50","note":"lunch","date":"2024-03-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Transaction](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "12.5", created.Amount.String())
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), created.Date.UTC())

	rec = env.do(t, http.MethodPost, "/api/transactions", `{"type":"income","category":"Salary","amount":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	list := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	require.Len(t, list, 2)
	assert.Equal(t, core.Income, list[0].Type, "newest first")

	expenses := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions?type=expense", ""))
	require.Len(t, expenses, 1)
	assert.Equal(t, created.ID, expenses[0].ID)

	rec = env.do(t, http.MethodPatch, "/api/transactions/"+created.ID, `{"amount":"20","note":"dinner"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[core.Transaction](t, rec)
	assert.Equal(t, "20", updated.Amount.String())
	assert.Equal(t, "dinner", updated.Note)
	assert.Equal(t, "Food", updated.Category)

	got := decode[core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions/"+created.ID, ""))
	assert.Equal(t, "dinner", got.Note)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/transactions/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/transactions/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, "/api/transactions/missing", `{"note":"x"}`).Code)
	assert.Len(t, env.store.Transactions(), 1)
}

func TestCreateTransaction_Validation(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "negative amount", body: `{"type":"expense","amount":"-5"}`, field: "amount"},
		{name: "missing amount", body: `{"type":"expense","category":"Food"}`, field: "amount"},
		{name: "bad type", body: `{"type":"transfer","amount":"5"}`, field: "type"},
		{name: "bad date", body: `{"type":"expense","amount":"5","date":"yesterday"}`, field: "date"},
		{name: "unknown field", body: `{"type":"expense","amount":"5","colour":"red"}`, field: "body"},
		{name: "empty body", body: ``, field: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/transactions", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[errorResponse](t, rec).Field)
		})
	}
	assert.Empty(t, env.store.Transactions())
}

func TestSummaryAndSeries(t *testing.T) {
	env := newTestEnv(t, Options{})
	for _, body := range []string{
		`{"type":"income","category":"Salary","amount":"1000","date":"2024-01-05"}`,
		`{"type":"expense","category":"Rent","amount":"300","date":"2023-12-20"}`,
	} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", body).Code)
	}

	summary := decode[summaryResponse](t, env.do(t, http.MethodGet, "/api/summary", ""))
	assert.Equal(t, "1000", summary.Totals.Income.String())
	assert.Equal(t, "300", summary.Totals.Expense.String())
	assert.Equal(t, "700", summary.Totals.Balance.String())
	require.Len(t, summary.SpendByCategory, 1)
	assert.Equal(t, "Rent", summary.SpendByCategory[0].Name)
	assert.Equal(t, "1000", summary.SavingsGoal.Goal.String())

	series := decode[[]core.MonthlyTotal](t, env.do(t, http.MethodGet, "/api/series", ""))
	require.Len(t, series, 1)
	assert.Equal(t, core.Period{Year: 2023, Month: 12}, series[0].Period)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/categories", `{"type":"expense","name":"Pets"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cats := decode[core.Categories](t, rec)
	assert.Contains(t, cats.Expense, "Pets")
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/categories", `{"type":"expense","name":"  "}`).Code)

	rec = env.do(t, http.MethodPut, "/api/budgets/Food", `{"amount":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	budgets := decode[core.Budgets](t, env.do(t, http.MethodGet, "/api/budgets", ""))
	assert.Equal(t, "100", budgets["Food"].String())
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/budgets/Food", `{"amount":"-1"}`).Code)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","category":"Food","amount":"95"}`).Code)
	assert.Contains(t, env.notifier.titles(), "Budget Alert")

	alerts := decode[[]budgetAlertResponse](t, env.do(t, http.MethodPost, "/api/budgets/check", ""))
	require.Len(t, alerts, 1)
	assert.Equal(t, "Food", alerts[0].Category)

	rec = env.do(t, http.MethodPut, "/api/savings-goal", `{"amount":"2000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	goal := decode[core.GoalStatus](t, env.do(t, http.MethodGet, "/api/savings-goal", ""))
	assert.Equal(t, "2000", goal.Goal.String())
}

func TestRecurring(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/recurring",
		`{"type":"expense","category":"Rent","amount":"900","note":"flat","recurrence":"monthly"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	def := decode[core.RecurringDefinition](t, rec)
	assert.True(t, def.LastMaterialized.IsZero())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/recurring",
		`{"type":"expense","amount":"1","recurrence":"weekly"}`).Code)

	run := decode[map[string]int](t, env.do(t, http.MethodPost, "/api/recurring/run", ""))
	assert.Equal(t, 1, run["materialized"])
	run = decode[map[string]int](t, env.do(t, http.MethodPost, "/api/recurring/run", ""))
	assert.Equal(t, 0, run["materialized"], "already materialized this month")

	defs := decode[[]core.RecurringDefinition](t, env.do(t, http.MethodGet, "/api/recurring", ""))
	require.Len(t, defs, 1)
	assert.Equal(t, core.Period{Year: 2024, Month: 3}, defs[0].LastMaterialized)
	assert.Len(t, env.store.Transactions(), 1)
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	env := newTestEnv(t, Options{RequestsPerMinute: 2})

	body := `{"type":"income","category":"Salary","amount":"1"}`
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", body).Code)
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", body).Code)
	rec := env.do(t, http.MethodPost, "/api/transactions", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/transactions", "").Code)
	assert.Len(t, env.store.Transactions(), 2)
}

var errDiskFull = errors.New("disk full")

// unsavedPersistence accepts reads but fails transaction and budget writes.
type unsavedPersistence struct{ *memory.Store }

func (unsavedPersistence) SaveTransactions(context.Context, []core.Transaction) error {
	return errDiskFull
}

func (unsavedPersistence) SaveBudgets(context.Context, core.Budgets) error { return errDiskFull }

func TestUnsavedChangesAreNotReportedAsFailures(t *testing.T) {
	store := services.NewStore(unsavedPersistence{memory.New()}, nil)
	require.NoError(t, store.Initialize(context.Background()))
	srv := NewServer(":0", store, Options{Logger: applog.New(applog.Config{Output: io.Discard})})
	env := &testEnv{handler: srv.Handler, store: store}

	rec := env.do(t, http.MethodPost, "/api/transactions", `{"type":"expense","category":"Food","amount":"5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Warning"), "not saved")
	created := decode[core.Transaction](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, env.store.Transactions(), 1)

	rec = env.do(t, http.MethodPut, "/api/budgets/Food", `{"amount":"100"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	body := decode[errorResponse](t, rec)
	assert.True(t, body.Applied)
	assert.Equal(t, "100", env.store.Budgets()["Food"].String())
}
