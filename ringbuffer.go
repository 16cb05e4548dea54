// Package boundedbuffer provides a fixed-capacity buffer shared by any number of
// producer and consumer goroutines, with two interchangeable synchronization
// backends: counting semaphores plus a mutex, or a mutex plus two condition
// variables.
package boundedbuffer

import "errors"

var (
	ErrFull            = errors.New("buffer is full")
	ErrEmpty           = errors.New("buffer is empty")
	ErrClosed          = errors.New("buffer is closed")
	ErrInvalidCapacity = errors.New("capacity must be > 0")
)

// Order is the removal policy of a Buffer.
type Order int

const (
	// LIFO removes the most recently inserted item. The occupancy counter doubles
	// as the next free slot index.
	LIFO Order = iota
	// FIFO removes the oldest item.
	FIFO
)

func (o Order) String() string {
	switch o {
	case LIFO:
		return "lifo"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// Buffer is a fixed-capacity run of slots.
// It is NOT safe for concurrent use: callers must hold exclusive access.
type Buffer[T any] struct {
	slots []T
	order Order
	size  int // occupied slots, the only occupancy counter
	head  int // index of the oldest item (FIFO only)
}

// NewBuffer creates a buffer holding at most capacity items.
func NewBuffer[T any](capacity int, order Order) *Buffer[T] {
	if capacity <= 0 {
		panic("capacity must be > 0")
	}
	return &Buffer[T]{
		slots: make([]T, capacity),
		order: order,
	}
}

// Insert stores item.
// Returns ErrFull without touching the buffer if no slot is free.
func (b *Buffer[T]) Insert(item T) error {
	if b.size == len(b.slots) {
		return ErrFull
	}

	pos := b.size
	if b.order == FIFO {
		pos = (b.head + b.size) % len(b.slots)
	}
	b.slots[pos] = item
	b.size++
	return nil
}

// Remove takes one item out of the buffer.
// Returns (zero, ErrEmpty) if nothing is stored.
func (b *Buffer[T]) Remove() (T, error) {
	var zero T
	if b.size == 0 {
		return zero, ErrEmpty
	}

	pos := b.size - 1
	if b.order == FIFO {
		pos = b.head
		b.head = (b.head + 1) % len(b.slots)
	}
	v := b.slots[pos]
	// drop the reference, ownership moved to the caller
	b.slots[pos] = zero
	b.size--
	return v, nil
}

// Len returns the number of occupied slots.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the fixed buffer capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

// Order returns the removal policy chosen at construction.
func (b *Buffer[T]) Order() Order {
	return b.order
}
