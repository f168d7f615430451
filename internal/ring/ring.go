// Package ring provides a fixed-capacity, thread-safe ring buffer. It backs
// the per-rule evaluation windows and the engine's live event/alert buffers.
package ring

import "sync"

// Buffer is a fixed-capacity ring buffer. When full, the oldest entry is
// evicted to make room for new ones. All methods are safe for concurrent
// use.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
	cap   int
	head  int // index of the oldest element
	count int // number of elements currently stored
}

// New creates a Buffer with the given capacity. Capacity must be at least 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items: make([]T, capacity),
		cap:   capacity,
	}
}

// Add inserts an item. If the buffer is full, the oldest item is
// overwritten.
func (b *Buffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writePos := (b.head + b.count) % b.cap
	if b.count == b.cap {
		b.items[b.head] = item
		b.head = (b.head + 1) % b.cap
	} else {
		b.items[writePos] = item
		b.count++
	}
}

// All returns every item in arrival order (oldest first).
func (b *Buffer[T]) All() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	result := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.items[(b.head+i)%b.cap]
	}
	return result
}

// Last returns up to n of the most recent items in arrival order.
func (b *Buffer[T]) Last(n int) []T {
	all := b.All()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of items currently stored.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.cap
}
