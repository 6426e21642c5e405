package data

import (
	"fmt"
	"sync"
)

// Handle is a reference to one cache entry. A handle outlives eviction: once
// the entry is dropped and reloaded its generation moves on and the old
// handle no longer resolves.
type Handle[K comparable] struct {
	Key K
	Gen uint32
}

type cacheEntry[V any] struct {
	value V
	gen   uint32
	refs  int
	pins  int
	used  uint64 // last access tick, for eviction order
}

// Cache is a generation-indexed, reference-counted resource cache. Entries
// with outstanding references or pins are never evicted. Safe for concurrent
// use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	load    func(K) (V, error)
	limit   int
	entries map[K]*cacheEntry[V]
	gens    map[K]uint32 // survives eviction so stale handles stay stale
	clock   uint64
}

// NewCache creates a cache holding up to limit unreferenced entries.
// limit <= 0 disables eviction.
func NewCache[K comparable, V any](limit int, load func(K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		load:    load,
		limit:   limit,
		entries: make(map[K]*cacheEntry[V]),
		gens:    make(map[K]uint32),
	}
}

// Get returns the resource for key, loading it on a miss, and takes a
// reference that the caller gives back with Release.
func (c *Cache[K, V]) Get(key K) (V, Handle[K], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entry(key)
	if err != nil {
		var zero V
		return zero, Handle[K]{}, err
	}
	e.refs++
	c.evict()
	return e.value, Handle[K]{Key: key, Gen: e.gen}, nil
}

// Peek returns the resource without taking a reference.
func (c *Cache[K, V]) Peek(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entry(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.evict()
	return e.value, nil
}

// Lookup resolves a handle without loading. ok is false once the entry was
// evicted, even if it has been reloaded since.
func (c *Cache[K, V]) Lookup(h Handle[K]) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[h.Key]
	if !ok || e.gen != h.Gen {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Release drops the reference taken by Get. Stale handles are ignored.
func (c *Cache[K, V]) Release(h Handle[K]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[h.Key]
	if !ok || e.gen != h.Gen || e.refs == 0 {
		return
	}
	e.refs--
	c.evict()
}

// Pin loads key if needed and keeps it resident until Unpin.
func (c *Cache[K, V]) Pin(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entry(key)
	if err != nil {
		return err
	}
	e.pins++
	c.evict()
	return nil
}

func (c *Cache[K, V]) Unpin(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.pins == 0 {
		return
	}
	e.pins--
	c.evict()
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry that is neither referenced nor pinned.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.refs == 0 && e.pins == 0 {
			delete(c.entries, k)
		}
	}
}

func (c *Cache[K, V]) entry(key K) (*cacheEntry[V], error) {
	c.clock++
	if e, ok := c.entries[key]; ok {
		e.used = c.clock
		return e, nil
	}
	v, err := c.load(key)
	if err != nil {
		return nil, fmt.Errorf("load %v: %w", key, err)
	}
	gen := c.gens[key] + 1
	c.gens[key] = gen
	e := &cacheEntry[V]{value: v, gen: gen, used: c.clock}
	c.entries[key] = e
	return e, nil
}

// evict drops the least recently used idle entries until the cache is back
// under its limit. Only unpinned entries without references are candidates.
func (c *Cache[K, V]) evict() {
	if c.limit <= 0 || len(c.entries) <= c.limit {
		return
	}
	for len(c.entries) > c.limit {
		var (
			victim K
			oldest uint64
			found  bool
		)
		for k, e := range c.entries {
			if e.refs > 0 || e.pins > 0 {
				continue
			}
			if !found || e.used < oldest {
				victim, oldest, found = k, e.used, true
			}
		}
		if !found {
			return
		}
		delete(c.entries, victim)
	}
}
