// Package cache holds small in-process caches with TTL expiry.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store whose entries may expire.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is a cache that can drop its expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on a fixed interval.
type Manager struct {
	caches []Cleaner
}

func NewManager(caches ...Cleaner) *Manager {
	return &Manager{caches: caches}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
