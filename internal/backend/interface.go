package backend

import (
	"context"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/ports"
	"budgetbook/internal/worker"
)

type CleanupFunc func() error

// BackendResult is everything the ledger needs from the outside world.
type BackendResult struct {
	Persistence ports.Persistence
	Notifier    ports.Notifier
	// Worker is set when writes are queued; the caller must Run it.
	Worker *worker.PersistWorker
	// Ready reports whether the storage can serve requests.
	Ready func(ctx context.Context) error
	// Caches holds the expiring caches the caller should sweep.
	Caches  *cache.Manager
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	// SeedDir holds optional category seed files for a fresh store.
	SeedDir string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// PersistQueueSize > 0 moves writes onto a PersistWorker.
	PersistQueueSize int
	NotifyDedupeTTL  time.Duration
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
