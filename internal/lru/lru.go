package lru

import (
	"container/list"
	"sync"
)

type item[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a size bounded least recently used cache
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	limit   int
	index   map[K]*list.Element
	recency *list.List
	evicted int
}

// New creates a cache holding up to limit entries, non positive limit defaults to 128
func New[K comparable, V any](limit int) *Cache[K, V] {
	if limit <= 0 {
		limit = 128
	}
	return &Cache[K, V]{limit: limit, index: make(map[K]*list.Element, limit), recency: list.New()}
}

// Get returns cached value and marks it as recently used
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.recency.MoveToFront(elem)
	return elem.Value.(*item[K, V]).value, true
}

// Set stores value, the least recently used entry is dropped once limit is exceeded
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		elem.Value.(*item[K, V]).value = value
		c.recency.MoveToFront(elem)
		return
	}
	c.index[key] = c.recency.PushFront(&item[K, V]{key: key, value: value})
	for c.recency.Len() > c.limit {
		oldest := c.recency.Back()
		c.recency.Remove(oldest)
		delete(c.index, oldest.Value.(*item[K, V]).key)
		c.evicted++
	}
}

// Len returns number of cached entries
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}

// Evicted returns number of evicted entries
func (c *Cache[K, V]) Evicted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evicted
}
