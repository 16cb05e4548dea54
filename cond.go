package boundedbuffer

import (
	"context"
	"sync"
)

// condBuffer guards the buffer with a single mutex and parks waiters on two
// condition variables bound to it.
type condBuffer[T any] struct {
	mu       sync.Mutex
	buf      *Buffer[T]
	notFull  *sync.Cond
	notEmpty *sync.Cond
	counters *counters
	closed   bool
}

func newCondBuffer[T any](buf *Buffer[T], c *counters) *condBuffer[T] {
	cb := &condBuffer[T]{
		buf:      buf,
		counters: c,
	}
	cb.notFull = sync.NewCond(&cb.mu)
	cb.notEmpty = sync.NewCond(&cb.mu)
	return cb
}

// Produce waits for a free slot, then inserts item.
// May be called concurrently from many goroutines.
func (cb *condBuffer[T]) Produce(ctx context.Context, item T) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err := cb.waitLocked(ctx, cb.notFull, cb.hasFreeSlot, cb.counters.produceWait); err != nil {
		return err
	}

	if err := cb.buf.Insert(item); err != nil {
		panic("unreached: " + err.Error())
	}
	cb.counters.produce(cb.buf.Len())

	cb.notEmpty.Signal()
	return nil
}

// Consume waits for a stored item, then removes and returns it.
// May be called concurrently from many goroutines.
func (cb *condBuffer[T]) Consume(ctx context.Context) (T, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if err := cb.waitLocked(ctx, cb.notEmpty, cb.hasItem, cb.counters.consumeWait); err != nil {
		return zero, err
	}

	v, err := cb.buf.Remove()
	if err != nil {
		panic("unreached: " + err.Error())
	}
	cb.counters.consume(cb.buf.Len())

	cb.notFull.Signal()
	return v, nil
}

func (cb *condBuffer[T]) hasFreeSlot() bool {
	return cb.buf.Len() < cb.buf.Cap()
}

func (cb *condBuffer[T]) hasItem() bool {
	return cb.buf.Len() > 0
}

// waitLocked blocks on cond until ready holds. cb.mu must be held.
//
// ready is checked before ctx after every wakeup: a waiter that was signaled for
// a slot it can use always takes it, so no Signal is swallowed by a waiter that
// is about to give up.
func (cb *condBuffer[T]) waitLocked(ctx context.Context, cond *sync.Cond, ready func() bool, onWait func()) error {
	if cb.closed {
		return ErrClosed
	}
	if ready() {
		return nil
	}
	onWait()

	if ctx.Done() != nil {
		// Broadcast under the mutex, so it cannot slip in between the ctx check
		// below and cond.Wait.
		stop := context.AfterFunc(ctx, func() {
			cb.mu.Lock()
			cond.Broadcast()
			cb.mu.Unlock()
		})
		defer stop()
	}

	for {
		if cb.closed {
			cb.counters.cancel()
			return ErrClosed
		}
		if ready() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			cb.counters.cancel()
			return err
		}
		cond.Wait()
	}
}

func (cb *condBuffer[T]) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.buf.Len()
}

func (cb *condBuffer[T]) Cap() int {
	return cb.buf.Cap()
}

func (cb *condBuffer[T]) Backend() Backend {
	return CondBackend
}

func (cb *condBuffer[T]) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counters.snapshot(cb.buf.Len(), cb.buf.Cap())
}

func (cb *condBuffer[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	cb.closed = true

	// wake up all waiting goroutines
	cb.notFull.Broadcast()
	cb.notEmpty.Broadcast()
	return nil
}
