// Package ringbuffer provides a fixed-capacity buffer of timestamped
// entries. When the buffer is full the newest entry displaces the oldest,
// so it always holds the most recent window.
package ringbuffer

import "sync"

// Entry is one stored value together with the timestamp it was pushed under.
type Entry[T any] struct {
	Timestamp int64
	Value     T
}

// RingBuffer keeps the latest entries up to a fixed capacity. Timestamps are
// expected to be pushed in non-decreasing order.
type RingBuffer[T any] struct {
	mu      sync.RWMutex
	entries []Entry[T]
	head    int
	size    int
}

// New creates a buffer with the given capacity. A non-positive capacity is
// clamped to one.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &RingBuffer[T]{entries: make([]Entry[T], capacity)}
}

// Push appends an entry, evicting the oldest one when the buffer is full.
func (b *RingBuffer[T]) Push(timestamp int64, value T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := (b.head + b.size) % len(b.entries)
	b.entries[pos] = Entry[T]{Timestamp: timestamp, Value: value}

	if b.size < len(b.entries) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.entries)
	}
}

// Range visits entries from oldest to newest until fn returns false.
func (b *RingBuffer[T]) Range(fn func(timestamp int64, value T) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := 0; i < b.size; i++ {
		entry := b.entries[(b.head+i)%len(b.entries)]
		if !fn(entry.Timestamp, entry.Value) {
			return
		}
	}
}

// CleanupBefore drops entries with timestamps before cutoff and returns how
// many were removed.
func (b *RingBuffer[T]) CleanupBefore(cutoff int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for b.size > 0 && b.entries[b.head].Timestamp < cutoff {
		b.head = (b.head + 1) % len(b.entries)
		b.size--
		removed++
	}

	return removed
}

// Len returns the number of stored entries.
func (b *RingBuffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.size
}

// Capacity returns the fixed capacity.
func (b *RingBuffer[T]) Capacity() int {
	return len(b.entries)
}
