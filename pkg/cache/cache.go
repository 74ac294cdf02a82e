// Package cache provides a small in-memory LRU cache.
package cache

import (
	"sync"
	"time"
)

// Entry represents a cache entry with metadata.
type Entry[K comparable, V any] struct {
	Key        K
	Value      V
	AccessedAt time.Time
	CreatedAt  time.Time
	Size       int // estimated size in bytes
}

// LRU is an in-memory least recently used cache, safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu           sync.Mutex
	items        map[K]*listItem[K, V]
	lru          list[K, V] // most recent at front
	maxSize      int
	maxBytes     int64
	currentBytes int64
	sizeOf       func(K, V) int
	onEvict      func(K, V)
	now          func() time.Time
}

// listItem is an item in the doubly-linked list.
type listItem[K comparable, V any] struct {
	Entry[K, V]
	prev *listItem[K, V]
	next *listItem[K, V]
}

// list is a doubly-linked list of entries.
type list[K comparable, V any] struct {
	head *listItem[K, V] // most recently accessed
	tail *listItem[K, V] // least recently accessed
	len  int
}

func (l *list[K, V]) unlink(item *listItem[K, V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list[K, V]) pushFront(item *listItem[K, V]) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list[K, V]) moveToFront(item *listItem[K, V]) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

// Options configures the LRU cache.
type Options[K comparable, V any] struct {
	// MaxSize is the maximum number of entries.
	// 0 means unlimited.
	MaxSize int

	// MaxBytes is the approximate maximum size in bytes, measured with SizeOf.
	// 0 means unlimited.
	MaxBytes int64
	SizeOf   func(K, V) int

	// OnEvict is called when an entry is evicted or deleted.
	OnEvict func(K, V)
}

// New creates a new LRU cache with the given options.
func New[K comparable, V any](opts Options[K, V]) *LRU[K, V] {
	return &LRU[K, V]{
		items:    make(map[K]*listItem[K, V]),
		maxSize:  opts.MaxSize,
		maxBytes: opts.MaxBytes,
		sizeOf:   opts.SizeOf,
		onEvict:  opts.OnEvict,
		now:      time.Now,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		var zero V
		return zero, false
	}
	item.AccessedAt = c.now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores a value, evicting the least recently used entries past the limits.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := 0
	if c.sizeOf != nil {
		size = c.sizeOf(key, value)
	}
	now := c.now()

	if item, exists := c.items[key]; exists {
		c.currentBytes += int64(size - item.Size)
		item.Value = value
		item.Size = size
		item.AccessedAt = now
		c.lru.moveToFront(item)
		c.evictIfNeeded()
		return
	}

	item := &listItem[K, V]{Entry: Entry[K, V]{
		Key:        key,
		Value:      value,
		AccessedAt: now,
		CreatedAt:  now,
		Size:       size,
	}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.currentBytes += int64(size)
	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	c.remove(item)
}

// Clear removes all entries without calling OnEvict.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*listItem[K, V])
	c.lru = list[K, V]{}
	c.currentBytes = 0
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CurrentBytes returns the approximate current size in bytes.
func (c *LRU[K, V]) CurrentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBytes
}

func (c *LRU[K, V]) remove(item *listItem[K, V]) {
	c.lru.unlink(item)
	delete(c.items, item.Key)
	c.currentBytes -= int64(item.Size)
	if c.onEvict != nil {
		c.onEvict(item.Key, item.Value)
	}
}

// evictIfNeeded evicts entries while the cache exceeds its limits. The most
// recent entry is always kept.
func (c *LRU[K, V]) evictIfNeeded() {
	for c.lru.len > 1 && c.shouldEvict() {
		c.remove(c.lru.tail)
	}
}

func (c *LRU[K, V]) shouldEvict() bool {
	if c.maxSize > 0 && c.lru.len > c.maxSize {
		return true
	}
	if c.maxBytes > 0 && c.currentBytes > c.maxBytes {
		return true
	}
	return false
}
