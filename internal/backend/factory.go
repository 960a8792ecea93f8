package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/notify"
	"budgetbook/internal/ports"
	"budgetbook/internal/storage"
	"budgetbook/internal/storage/memory"
	"budgetbook/internal/worker"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend builds persistence and notifier for config. On error every
// resource opened so far has already been released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res      = &BackendResult{}
		cleanups []CleanupFunc
		err      error
	)
	switch config.Type {
	case SQLiteBackend:
		cleanups, err = f.createSQLiteBackend(ctx, config, res)
	case MemoryBackend:
		err = f.createMemoryBackend(config, res)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.PersistQueueSize > 0 {
		w := worker.NewPersistWorker(res.Persistence, config.PersistQueueSize,
			worker.WithErrorHandler(func(op string, err error) {
				f.logger.Error("Queued write failed", "op", op, "error", err)
			}))
		res.Worker = w
		res.Persistence = w
		// Callers stop the worker and wait for Run before Cleanup; Close is idempotent.
		cleanups = append([]CleanupFunc{w.Close}, cleanups...)
		f.logger.Info("Writes queued on persist worker", "queue_size", config.PersistQueueSize)
	}

	notifier, cleanup := f.createNotifier(config)
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}
	res.Notifier = notify.NewDeduper(notifier, config.NotifyDedupeTTL)
	res.Caches = cache.NewManager()
	if d, ok := res.Notifier.(*notify.Deduper); ok {
		res.Caches.Register(d.Cache())
	}

	res.Cleanup = func() error {
		var errs []error
		for _, c := range cleanups {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, res *BackendResult) ([]CleanupFunc, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedDir != "" {
		if cats, ok := memory.SeedFromFiles(config.SeedDir); ok {
			seeded, err := repo.SeedCategories(ctx, cats)
			if err != nil {
				repo.Close()
				return nil, fmt.Errorf("seed categories: %w", err)
			}
			if seeded {
				f.logger.Info("Seeded categories", "seed_dir", config.SeedDir,
					"income", len(cats.Income), "expense", len(cats.Expense))
			}
		}
	}

	res.Persistence = repo
	res.Ready = repo.Ping
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return []CleanupFunc{repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config, res *BackendResult) error {
	var store *memory.Store
	if config.SeedDir != "" {
		store = memory.NewFromFiles(config.SeedDir)
	} else {
		store = memory.New()
	}
	res.Persistence = store
	res.Ready = func(context.Context) error { return nil }
	f.logger.Info("Initialized memory backend", "seed_dir", config.SeedDir)
	return nil
}

// createNotifier publishes over AMQP when configured and falls back to the
// log notifier if the broker is unreachable.
func (f *DefaultFactory) createNotifier(config Config) (ports.Notifier, CleanupFunc) {
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err == nil {
			f.logger.Info("Initialized AMQP notifier",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			return client, client.Close
		}
		f.logger.Warn("Failed to initialize AMQP client, notifications will only be logged", "error", err)
	}
	n := notify.NewLogNotifier(f.logger)
	return n, func() error { n.Stop(); return nil }
}
