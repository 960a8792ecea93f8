package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/core"
	apphttp "budgetbook/internal/http"
	applog "budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/worker"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 30 * time.Second
	cacheSweepInterval = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	logger.Info("Starting budgetbook", "port", cfg.Port, "backend", cfg.DataBackend)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	be, err := cli.InitBackend(ctx, logger.WithComponent(applog.ComponentStorage).Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store := services.NewStore(be.Persistence, be.Notifier,
		services.WithBudgetWindow(services.BudgetWindow(cfg.BudgetWindow)))

	g, gctx := errgroup.WithContext(ctx)
	if be.Worker != nil {
		g.Go(func() error { return be.Worker.Run(gctx) })
	}

	// Initialize may write through the worker, so it runs after the worker starts.
	if err := store.Initialize(ctx); err != nil {
		if !errors.Is(err, core.ErrPersistence) {
			logger.Error("Failed to initialize ledger", "error", err)
			_ = shutdown(logger, nil, be.Worker, g, be.Cleanup)
			os.Exit(1)
		}
		logger.Warn("Ledger initialized with unsaved changes", "error", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.Options{
		Logger: logger,
		Ready:  be.Ready,
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		return srv.ListenAndServe()
	})
	g.Go(func() error { return srv.RunCleanup(gctx) })
	g.Go(func() error { return be.Caches.Run(gctx, cacheSweepInterval) })
	g.Go(func() error {
		runRecurring(gctx, logger.WithComponent(applog.ComponentLedger), store, cfg.RecurringInterval)
		return nil
	})

	<-gctx.Done()
	logger.Info("Shutting down", "reason", context.Cause(gctx))
	if err := shutdown(logger, srv, be.Worker, g, be.Cleanup); err != nil {
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// shutdown stops accepting requests, drains queued writes and releases the
// backend, in that order.
func shutdown(logger *applog.Logger, srv *apphttp.Server, w *worker.PersistWorker, g *errgroup.Group, cleanup backend.CleanupFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}
	if w != nil {
		if err := w.Flush(ctx); err != nil {
			logger.Error("Queued writes failed before shutdown", "error", err)
		}
		_ = w.Close()
	}
	err := g.Wait()
	if err != nil {
		logger.Error("Background task failed", "error", err)
	}
	if cerr := cleanup(); cerr != nil {
		logger.Error("Backend cleanup failed", "error", cerr)
	}
	return err
}

// runRecurring materializes due recurring transactions and re-checks budgets
// on every tick.
func runRecurring(ctx context.Context, logger *applog.Logger, store *services.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.ProcessRecurring(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Recurring run failed", "error", err, slog.Int("materialized", n))
			} else if n > 0 {
				logger.InfoContext(ctx, "Recurring transactions materialized", "count", n)
			}
			store.CheckBudgets(ctx)
		}
	}
}
