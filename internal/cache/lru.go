// Package cache provides a small in-process LRU cache with TTL.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts the least recently used entry once maxSize is exceeded.
// Expired entries are dropped lazily on Get.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
