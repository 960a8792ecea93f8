// Package worker moves snapshot writes off the request path.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"budgetbook/internal/core"
	"budgetbook/internal/ports"

	"github.com/shopspring/decimal"
)

var (
	ErrClosed = errors.New("persist worker closed")
	// ErrRecurringBehind is reported for transaction writes skipped while the
	// last recurring write has failed.
	ErrRecurringBehind = errors.New("recurring definitions not saved")
)

const (
	opTransactions = "transactions"
	opRecurring    = "recurring"
)

type job struct {
	op    string
	write func(ctx context.Context) error
	// flush is set on barrier jobs only.
	flush chan error
}

// PersistWorker is a ports.Persistence that queues every Save and applies
// them in submission order on a single goroutine. Loads go straight to the
// wrapped backend, so call Flush first when a read must observe earlier
// writes.
type PersistWorker struct {
	next    ports.Persistence
	jobs    chan job
	onError func(op string, err error)

	mu     sync.RWMutex
	closed bool

	errMu   sync.Mutex
	pending []error
}

type Option func(*PersistWorker)

// WithErrorHandler is called on the worker goroutine for every failed write.
func WithErrorHandler(fn func(op string, err error)) Option {
	return func(w *PersistWorker) { w.onError = fn }
}

func NewPersistWorker(next ports.Persistence, queueSize int, opts ...Option) *PersistWorker {
	if queueSize < 1 {
		queueSize = 1
	}
	w := &PersistWorker{
		next: next,
		jobs: make(chan job, queueSize),
		onError: func(op string, err error) {
			slog.Error("Background write failed", "op", op, "error", err)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run applies queued writes until Close is called and the queue is drained.
// Writes use a context detached from ctx's cancellation so that shutdown
// does not abort the final snapshots.
//
// After a failed recurring write, transaction snapshots are skipped until a
// recurring write succeeds, so stored transactions never run ahead of the
// stored recurring markers.
func (w *PersistWorker) Run(ctx context.Context) error {
	writeCtx := context.WithoutCancel(ctx)
	slog.InfoContext(ctx, "Persist worker started", "queue_size", cap(w.jobs))
	recurringBehind := false
	for j := range w.jobs {
		if j.flush != nil {
			j.flush <- w.takeErrors()
			continue
		}
		var err error
		if j.op == opTransactions && recurringBehind {
			err = ErrRecurringBehind
		} else {
			err = j.write(writeCtx)
		}
		if j.op == opRecurring {
			recurringBehind = err != nil
		}
		if err != nil {
			perr := &core.PersistenceError{Op: j.op, Err: err}
			w.errMu.Lock()
			w.pending = append(w.pending, perr)
			w.errMu.Unlock()
			if w.onError != nil {
				w.onError(j.op, err)
			}
		}
	}
	slog.InfoContext(ctx, "Persist worker drained")
	return nil
}

// Flush waits until every write submitted before it has been applied and
// returns the write errors collected since the previous Flush.
func (w *PersistWorker) Flush(ctx context.Context) error {
	done := make(chan error, 1)
	if err := w.enqueue(ctx, job{op: "flush", flush: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes. Run returns once the queue is empty.
func (w *PersistWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	return nil
}

func (w *PersistWorker) takeErrors() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	err := errors.Join(w.pending...)
	w.pending = nil
	return err
}

func (w *PersistWorker) enqueue(ctx context.Context, j job) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return &core.PersistenceError{Op: j.op, Err: ErrClosed}
	}
	select {
	case w.jobs <- j:
		return nil
	case <-ctx.Done():
		return &core.PersistenceError{Op: j.op, Err: ctx.Err()}
	}
}

func (w *PersistWorker) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	return w.next.LoadTransactions(ctx)
}

func (w *PersistWorker) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	snapshot := append([]core.Transaction(nil), txs...)
	return w.enqueue(ctx, job{op: opTransactions, write: func(ctx context.Context) error {
		return w.next.SaveTransactions(ctx, snapshot)
	}})
}

func (w *PersistWorker) LoadCategories(ctx context.Context) (core.Categories, error) {
	return w.next.LoadCategories(ctx)
}

func (w *PersistWorker) SaveCategories(ctx context.Context, c core.Categories) error {
	snapshot := c.Clone()
	return w.enqueue(ctx, job{op: "categories", write: func(ctx context.Context) error {
		return w.next.SaveCategories(ctx, snapshot)
	}})
}

func (w *PersistWorker) LoadBudgets(ctx context.Context) (core.Budgets, error) {
	return w.next.LoadBudgets(ctx)
}

func (w *PersistWorker) SaveBudgets(ctx context.Context, b core.Budgets) error {
	snapshot := b.Clone()
	return w.enqueue(ctx, job{op: "budgets", write: func(ctx context.Context) error {
		return w.next.SaveBudgets(ctx, snapshot)
	}})
}

func (w *PersistWorker) LoadSavingsGoal(ctx context.Context) (decimal.Decimal, bool, error) {
	return w.next.LoadSavingsGoal(ctx)
}

func (w *PersistWorker) SaveSavingsGoal(ctx context.Context, goal decimal.Decimal) error {
	return w.enqueue(ctx, job{op: "savings_goal", write: func(ctx context.Context) error {
		return w.next.SaveSavingsGoal(ctx, goal)
	}})
}

func (w *PersistWorker) LoadRecurring(ctx context.Context) ([]core.RecurringDefinition, error) {
	return w.next.LoadRecurring(ctx)
}

func (w *PersistWorker) SaveRecurring(ctx context.Context, defs []core.RecurringDefinition) error {
	snapshot := append([]core.RecurringDefinition(nil), defs...)
	return w.enqueue(ctx, job{op: opRecurring, write: func(ctx context.Context) error {
		return w.next.SaveRecurring(ctx, snapshot)
	}})
}
