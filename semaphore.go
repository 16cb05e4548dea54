package boundedbuffer

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// semaphoreBuffer paces producers and consumers with two counting semaphores and
// serializes buffer mutation with a mutex.
//
// slotsEmpty holds one unit per free slot, slotsFull one unit per stored item.
// Their sum never exceeds the capacity: every unit taken from one is given back
// to the other exactly once.
type semaphoreBuffer[T any] struct {
	mu  sync.Mutex
	buf *Buffer[T]

	slotsEmpty *semaphore.Weighted
	slotsFull  *semaphore.Weighted

	counters *counters

	// canceled on Close, aborts pending semaphore waits
	closed context.Context
	close  context.CancelFunc
}

func newSemaphoreBuffer[T any](buf *Buffer[T], c *counters) *semaphoreBuffer[T] {
	capacity := int64(buf.Cap())

	slotsFull := semaphore.NewWeighted(capacity)
	// drain it so the count starts at 0
	if !slotsFull.TryAcquire(capacity) {
		panic("unreached")
	}

	closed, cancel := context.WithCancel(context.Background())

	return &semaphoreBuffer[T]{
		buf:        buf,
		slotsEmpty: semaphore.NewWeighted(capacity),
		slotsFull:  slotsFull,
		counters:   c,
		closed:     closed,
		close:      cancel,
	}
}

// Produce waits for a free slot, then inserts item.
// May be called concurrently from many goroutines.
func (s *semaphoreBuffer[T]) Produce(ctx context.Context, item T) error {
	if s.closed.Err() != nil {
		return ErrClosed
	}
	if err := s.acquire(ctx, s.slotsEmpty, s.counters.produceWait); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.buf.Insert(item); err != nil {
		s.mu.Unlock()
		// slotsEmpty granted a slot that is not there
		panic("unreached: " + err.Error())
	}
	s.counters.produce(s.buf.Len())
	s.mu.Unlock()

	s.slotsFull.Release(1)
	return nil
}

// Consume waits for a stored item, then removes and returns it.
// May be called concurrently from many goroutines.
func (s *semaphoreBuffer[T]) Consume(ctx context.Context) (T, error) {
	var zero T
	if s.closed.Err() != nil {
		return zero, ErrClosed
	}
	if err := s.acquire(ctx, s.slotsFull, s.counters.consumeWait); err != nil {
		return zero, err
	}

	s.mu.Lock()
	v, err := s.buf.Remove()
	if err != nil {
		s.mu.Unlock()
		// slotsFull granted an item that is not there
		panic("unreached: " + err.Error())
	}
	s.counters.consume(s.buf.Len())
	s.mu.Unlock()

	s.slotsEmpty.Release(1)
	return v, nil
}

// acquire takes one unit from sem, blocking until it is available, ctx ends or the
// buffer is closed.
func (s *semaphoreBuffer[T]) acquire(ctx context.Context, sem *semaphore.Weighted, onWait func()) error {
	if sem.TryAcquire(1) {
		return nil
	}
	onWait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.closed, cancel)
	defer stop()

	if err := sem.Acquire(ctx, 1); err != nil {
		s.counters.cancel()
		if s.closed.Err() != nil {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (s *semaphoreBuffer[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

func (s *semaphoreBuffer[T]) Cap() int {
	return s.buf.Cap()
}

func (s *semaphoreBuffer[T]) Backend() Backend {
	return SemaphoreBackend
}

func (s *semaphoreBuffer[T]) Stats() Stats {
	s.mu.Lock()
	size := s.buf.Len()
	s.mu.Unlock()
	return s.counters.snapshot(size, s.buf.Cap())
}

func (s *semaphoreBuffer[T]) Close() error {
	s.close()
	return nil
}
