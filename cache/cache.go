package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// entry holds a cached value with its creation timestamp.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a small in-memory cache with a per-entry TTL.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu         sync.RWMutex
	store      map[string]*entry[V]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries values, each valid for ttl.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[V]{
		store:      make(map[string]*entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Key generates a cache key from a URL. Scheme and host case and a trailing
// slash do not produce distinct keys.
func Key(rawURL string) string {
	u := strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
	if i := strings.Index(u, "://"); i >= 0 {
		rest := u[i+3:]
		host, path, _ := strings.Cut(rest, "/")
		u = strings.ToLower(u[:i+3]+host) + pathSuffix(path)
	}
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

func pathSuffix(path string) string {
	if path == "" {
		return ""
	}
	return "/" + path
}

// Get returns the cached value for key if it exists and has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value. If the cache is at capacity, expired entries are
// pruned first and then a random entry is evicted to make room.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		c.pruneLocked()
		// Evict one random entry if still at capacity (map iteration is random in Go).
		if len(c.store) >= c.maxEntries {
			for k := range c.store {
				delete(c.store, k)
				break
			}
		}
	}

	c.store[key] = &entry[V]{value: v, createdAt: c.now()}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache[V]) pruneLocked() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
