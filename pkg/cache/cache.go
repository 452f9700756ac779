package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a thread-safe in-memory cache whose entries expire after a fixed TTL.
// A background goroutine sweeps expired entries until Stop is called.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// New creates a cache with the given entry TTL. A cleanupInterval <= 0 disables
// the background sweep; expired entries are then only dropped on access.
func New[V any](ttl, cleanupInterval time.Duration) *TTLCache[V] {
	c := &TTLCache[V]{
		items: make(map[string]entry[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.sweep(cleanupInterval)
	}
	return c
}

// Get returns the cached value and true when present and not expired
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetOrSet returns the cached value or computes, stores and returns it.
// compute runs under the write lock so concurrent misses for a key compute once.
// Errors are returned and never cached.
func (c *TTLCache[V]) GetOrSet(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok && c.now().Before(e.expiresAt) {
		return e.value, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.items[key] = entry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
	return v, nil
}

// Delete removes key from the cache
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, including expired ones not yet swept
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stop ends the background sweep. It is safe to call more than once.
func (c *TTLCache[V]) Stop() {
	c.stopped.Do(func() { close(c.stop) })
}

func (c *TTLCache[V]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, key)
		}
	}
}
