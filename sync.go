package boundedbuffer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrUnknownBackend = errors.New("unknown backend")

// Strategy is a Buffer shared by any number of producer and consumer goroutines.
//
// Produce blocks until a slot is free and Consume blocks until an item is stored,
// so neither ever reports ErrFull or ErrEmpty. Both return early only when ctx ends
// or the strategy is closed while they are still waiting; in that case the buffer
// is left untouched. Once past the wait point an operation always completes.
type Strategy[T any] interface {
	Produce(ctx context.Context, item T) error
	Consume(ctx context.Context) (T, error)

	Len() int
	Cap() int
	Backend() Backend
	Stats() Stats

	// Close wakes every waiter. Later Produce/Consume calls return ErrClosed.
	Close() error
}

// Backend selects the synchronization primitives behind a Strategy.
type Backend int

const (
	// SemaphoreBackend guards the buffer with a mutex and paces it with two
	// counting semaphores (free slots, occupied slots).
	SemaphoreBackend Backend = iota
	// CondBackend guards the buffer with a mutex and two condition variables.
	CondBackend
)

func (b Backend) String() string {
	switch b {
	case SemaphoreBackend:
		return "semaphore"
	case CondBackend:
		return "cond"
	default:
		return "unknown"
	}
}

// ParseBackend converts a backend name ("semaphore", "sem", "cond") into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "semaphore", "sem":
		return SemaphoreBackend, nil
	case "cond", "condvar":
		return CondBackend, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// ParseOrder converts "lifo" or "fifo" into an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lifo", "stack":
		return LIFO, nil
	case "fifo", "queue":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown order %q", s)
	}
}

// Option configures a Strategy built by New.
type Option func(*options)

type options struct {
	backend    Backend
	order      Order
	registerer prometheus.Registerer
	name       string
}

// WithBackend selects the synchronization backend. Defaults to SemaphoreBackend.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithOrder selects the removal policy. Defaults to LIFO.
func WithOrder(order Order) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithMetrics exports the strategy counters as Prometheus metrics.
// Ignored if registerer is nil.
func WithMetrics(registerer prometheus.Registerer, name string) Option {
	return func(o *options) {
		if registerer != nil {
			o.registerer = registerer
			o.name = name
		}
	}
}

// New creates a Strategy holding at most capacity items.
func New[T any](capacity int, opts ...Option) (Strategy[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	o := options{
		backend: SemaphoreBackend,
		order:   LIFO,
		name:    "default",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.backend != SemaphoreBackend && o.backend != CondBackend {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(o.backend))
	}

	c := &counters{}
	if o.registerer != nil {
		m, err := newBufferMetrics(o.registerer, o.name, o.backend)
		if err != nil {
			return nil, fmt.Errorf("register metrics for buffer %q: %w", o.name, err)
		}
		c.metrics = m
	}

	buf := NewBuffer[T](capacity, o.order)
	if o.backend == CondBackend {
		return newCondBuffer(buf, c), nil
	}
	return newSemaphoreBuffer(buf, c), nil
}
