// Package notify holds the local ports.Notifier implementations.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/ports"
)

// LogNotifier "delivers" notifications by logging them, after the trigger
// delay when there is one. It stands in for a device push channel.
type LogNotifier struct {
	logger *slog.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger, timers: make(map[*time.Timer]struct{})}
}

func (n *LogNotifier) ScheduleNotification(ctx context.Context, title, body string, trigger *ports.Trigger) error {
	if trigger == nil || trigger.Delay <= 0 {
		n.deliver(ctx, title, body)
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	var t *time.Timer
	t = time.AfterFunc(trigger.Delay, func() {
		n.deliver(context.WithoutCancel(ctx), title, body)
		n.mu.Lock()
		delete(n.timers, t)
		n.mu.Unlock()
	})
	n.timers[t] = struct{}{}
	n.logger.DebugContext(ctx, "Notification scheduled", "title", title, "delay", trigger.Delay)
	return nil
}

func (n *LogNotifier) deliver(ctx context.Context, title, body string) {
	n.logger.InfoContext(ctx, "Notification", "title", title, "body", body)
}

// Pending reports how many delayed notifications have not fired yet.
func (n *LogNotifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.timers)
}

// Stop cancels every notification that has not fired yet.
func (n *LogNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for t := range n.timers {
		t.Stop()
		delete(n.timers, t)
	}
}

// Deduper drops a notification when an identical title and body went out
// within the TTL.
type Deduper struct {
	next ports.Notifier
	seen *cache.LRUCache[struct{}]
}

const dedupeCapacity = 1024

// NewDeduper wraps next. A ttl of zero or less disables deduplication and
// returns next unchanged.
func NewDeduper(next ports.Notifier, ttl time.Duration, opts ...cache.Option[struct{}]) ports.Notifier {
	if ttl <= 0 {
		return next
	}
	return &Deduper{next: next, seen: cache.NewLRUCache[struct{}](dedupeCapacity, ttl, opts...)}
}

// Cache exposes the underlying cache so it can be swept by a cache.Manager.
func (d *Deduper) Cache() *cache.LRUCache[struct{}] {
	return d.seen
}

func (d *Deduper) ScheduleNotification(ctx context.Context, title, body string, trigger *ports.Trigger) error {
	key := title + "\x00" + body
	if !d.seen.SetIfAbsent(key, struct{}{}) {
		slog.DebugContext(ctx, "Duplicate notification suppressed", "title", title)
		return nil
	}
	if err := d.next.ScheduleNotification(ctx, title, body, trigger); err != nil {
		d.seen.Delete(key)
		return err
	}
	return nil
}
