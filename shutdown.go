package boundedbuffer

import (
	"context"
	"sync/atomic"
)

// Shutdown is the stop signal shared by a controller and its workers.
// The controller raises it once; workers read it before every loop iteration.
type Shutdown struct {
	raised atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

func NewShutdown() *Shutdown {
	ctx, cancel := context.WithCancel(context.Background())
	return &Shutdown{ctx: ctx, cancel: cancel}
}

// Raise sets the flag. Safe to call more than once and from any goroutine.
func (s *Shutdown) Raise() {
	s.raised.Store(true)
	s.cancel()
}

// Raised reports whether Raise has been called.
func (s *Shutdown) Raised() bool {
	return s.raised.Load()
}

// Context is canceled by Raise. Workers hand it to Produce/Consume so that a wait
// that has not reached its slot yet is abandoned on shutdown.
func (s *Shutdown) Context() context.Context {
	return s.ctx
}

// Done is closed by Raise.
func (s *Shutdown) Done() <-chan struct{} {
	return s.ctx.Done()
}
