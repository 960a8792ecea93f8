package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	_, _ = c.Get("key1") // key2 becomes the oldest
	c.Set("key4", "value4")

	_, found := c.Get("key2")
	assert.False(t, found, "least recently used entry should be evicted")
	v, found := c.Get("key1")
	assert.True(t, found)
	assert.Equal(t, "value1", v)
	assert.Equal(t, 3, c.Size())
}

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clock.now))

	c.Set("a", 1)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clock.t = clock.t.Add(45 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "a expired")
	_, ok = c.Get("b")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_SetIfAbsent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[struct{}](10, time.Minute, WithClock[struct{}](clock.now))

	assert.True(t, c.SetIfAbsent("k", struct{}{}))
	assert.False(t, c.SetIfAbsent("k", struct{}{}))

	clock.t = clock.t.Add(2 * time.Minute)
	assert.True(t, c.SetIfAbsent("k", struct{}{}), "expired entries count as absent")

	c.Delete("k")
	assert.True(t, c.SetIfAbsent("k", struct{}{}))
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewLRUCache[int](10, time.Second, WithClock[int](clock.now))
	b := NewLRUCache[string](10, time.Second, WithClock[string](clock.now))
	a.Set("x", 1)
	a.Set("y", 2)
	b.Set("z", "z")

	m := NewManager(a)
	m.Register(b)
	assert.Equal(t, 0, m.Sweep())

	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, 3, m.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, m.Run(ctx, time.Hour))
}
