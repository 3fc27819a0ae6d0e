package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// BoundedCache is an in-memory store with LRU eviction and TTL expiry.
//
// Capacity is a hard bound: once MaxSize entries are resident, inserting
// a new key evicts the least-recently-used entry first. Expired entries
// are purged by the Get that observes them, so a full-but-stale cache
// still frees its memory under read traffic.
type BoundedCache[V any] struct {
	maxSize int

	mu    sync.Mutex
	order *list.List // front = most recently used
	items map[string]*list.Element
}

type boundedEntry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// NewBoundedCache creates a cache holding at most maxSize entries.
// Non-positive sizes fail fast with ErrInvalidSize.
func NewBoundedCache[V any](maxSize int) (*BoundedCache[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, maxSize)
	}
	return &BoundedCache[V]{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}, nil
}

// Get retrieves a value and moves it to the most-recently-used end.
// Returns (zero, false) on miss; an expired entry is removed, not
// returned.
func (c *BoundedCache[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*boundedEntry[V])
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// Put stores a value with the given TTL. The inserted key becomes the
// most recently used; at capacity the least-recently-used entry is
// evicted first. TTL<=0 means don't cache.
func (c *BoundedCache[V]) Put(_ context.Context, key string, value V, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*boundedEntry[V])
		entry.value = value
		entry.createdAt = now
		entry.expiresAt = now.Add(ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	if c.order.Len() >= c.maxSize {
		if tail := c.order.Back(); tail != nil {
			c.removeLocked(tail)
		}
	}

	elem := c.order.PushFront(&boundedEntry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	})
	c.items[key] = elem
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *BoundedCache[V]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeLocked(elem)
	}
	return nil
}

// InvalidateFunc removes every entry whose key matches the predicate
// and returns how many were removed. Idempotent by construction.
func (c *BoundedCache[V]) InvalidateFunc(pred func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if pred(key) {
			c.removeLocked(elem)
			removed++
		}
	}
	return removed
}

// InvalidateEntity removes every entry whose key references the entity,
// so a caller can never observe stale cached output for data it just
// changed.
func (c *BoundedCache[V]) InvalidateEntity(entityID string) int {
	return c.InvalidateFunc(EntityMatcher(entityID))
}

// Len returns the number of resident entries, including any whose TTL
// has lapsed but which no Get has purged yet.
func (c *BoundedCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity.
func (c *BoundedCache[V]) Cap() int {
	return c.maxSize
}

// Purge removes all entries.
func (c *BoundedCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
}

func (c *BoundedCache[V]) removeLocked(elem *list.Element) {
	entry := elem.Value.(*boundedEntry[V])
	c.order.Remove(elem)
	delete(c.items, entry.key)
}

// Ensure BoundedCache implements Store
var _ Store[any] = (*BoundedCache[any])(nil)
