// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/middleware/ratelimit"
	"budgetbook/internal/middleware/security"
	"budgetbook/internal/middleware/trace"

	"github.com/shopspring/decimal"
)

// Ledger is the part of services.Store the API serves.
type Ledger interface {
	AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Transactions() []core.Transaction
	Transaction(id string) (core.Transaction, error)

	AddCategory(ctx context.Context, typ core.TxType, name string) error
	Categories() core.Categories
	SetBudget(ctx context.Context, category string, amount decimal.Decimal) error
	Budgets() core.Budgets
	SetSavingsGoal(ctx context.Context, amount decimal.Decimal) error
	SavingsGoal() decimal.Decimal

	AddRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error)
	RecurringDefinitions() []core.RecurringDefinition
	ProcessRecurring(ctx context.Context) (int, error)
	CheckBudgets(ctx context.Context) []core.BudgetAlert

	Totals() core.Totals
	MonthlySeries() []core.MonthlyTotal
	SpendByCategory() []core.CategoryAmount
	BudgetStatus() []core.BudgetStatus
	GoalStatus() core.GoalStatus
}

type Options struct {
	Logger *applog.Logger
	// Ready backs /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// RequestsPerMinute limits mutating requests per client IP.
	RequestsPerMinute int
}

type Server struct {
	http.Server
	ledger  Ledger
	ready   func(ctx context.Context) error
	logger  *applog.Logger
	events  *applog.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
}

func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		ledger:  ledger,
		ready:   opts.Ready,
		logger:  logger,
		events:  applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:  trace.NewMiddleware(logger, security.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/series", s.handleSeries)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)
	mux.HandleFunc("POST /api/budgets/check", s.handleCheckBudgets)
	mux.HandleFunc("GET /api/savings-goal", s.handleGetSavingsGoal)
	mux.HandleFunc("PUT /api/savings-goal", s.handleSetSavingsGoal)

	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring", s.handleAddRecurring)
	mux.HandleFunc("POST /api/recurring/run", s.handleRunRecurring)

	limited := s.limiter.Middleware(security.ClientIP, ratelimit.MutatingOnly, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, security.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limited(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// RunCleanup drops idle rate-limit entries until ctx is done.
func (s *Server) RunCleanup(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

// ListenAndServe treats a graceful shutdown as success.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
