package boundedbuffer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valyala/fastrand"
)

// Role tells what a worker does on every iteration.
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// State of a worker goroutine.
// A worker moves Started -> Running -> Stopping -> Exited and never goes back.
type State int32

const (
	StateStarted State = iota
	StateRunning
	StateStopping
	StateExited
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// WorkerConfig configures a producer or consumer loop.
type WorkerConfig[T any] struct {
	Logger *slog.Logger

	// MaxPacing bounds the random delay taken before every operation.
	// Zero disables pacing.
	MaxPacing time.Duration

	// Generate builds the next item. Required for producers.
	Generate func() T

	// OnConsume, if set, receives every item a consumer removes.
	OnConsume func(T)
}

// Worker is the handle of a running producer or consumer goroutine.
type Worker struct {
	id   int
	role Role

	state      atomic.Int32
	iterations atomic.Uint64
	done       chan struct{}
}

func (w *Worker) ID() int {
	return w.id
}

func (w *Worker) Role() Role {
	return w.role
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

// Iterations returns the number of completed Produce/Consume calls, failed ones
// included.
func (w *Worker) Iterations() uint64 {
	return w.iterations.Load()
}

// Done is closed once the worker goroutine has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Join blocks until the worker goroutine has returned.
func (w *Worker) Join() {
	<-w.done
}

// RandomInt returns a random non-negative int, the default producer payload.
func RandomInt() int {
	return int(fastrand.Uint32())
}

// StartProducer spawns a goroutine that keeps producing cfg.Generate() items into
// s until shutdown is raised.
func StartProducer[T any](id int, s Strategy[T], shutdown *Shutdown, cfg WorkerConfig[T]) *Worker {
	if cfg.Generate == nil {
		panic("producer needs a Generate func")
	}

	w := newWorker(id, RoleProducer)
	logger := workerLogger(cfg.Logger, w)

	w.start(shutdown, logger, cfg.MaxPacing, func(ctx context.Context) error {
		item := cfg.Generate()
		if err := s.Produce(ctx, item); err != nil {
			logger.Info("insert failed", "item", item, "error", err)
			return err
		}
		logger.Info("inserted", "item", item, "len", s.Len())
		return nil
	})
	return w
}

// StartConsumer spawns a goroutine that keeps consuming from s until shutdown is
// raised.
func StartConsumer[T any](id int, s Strategy[T], shutdown *Shutdown, cfg WorkerConfig[T]) *Worker {
	w := newWorker(id, RoleConsumer)
	logger := workerLogger(cfg.Logger, w)

	w.start(shutdown, logger, cfg.MaxPacing, func(ctx context.Context) error {
		item, err := s.Consume(ctx)
		if err != nil {
			logger.Info("remove failed", "error", err)
			return err
		}
		logger.Info("removed", "item", item, "len", s.Len())
		if cfg.OnConsume != nil {
			cfg.OnConsume(item)
		}
		return nil
	})
	return w
}

func newWorker(id int, role Role) *Worker {
	w := &Worker{
		id:   id,
		role: role,
		done: make(chan struct{}),
	}
	w.state.Store(int32(StateStarted))
	return w
}

func workerLogger(logger *slog.Logger, w *Worker) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With("role", w.role.String(), "id", w.id)
}

// start runs step once per iteration until shutdown is observed at the top of
// the loop. Errors never end the loop.
func (w *Worker) start(shutdown *Shutdown, logger *slog.Logger, maxPacing time.Duration, step func(ctx context.Context) error) {
	logger.Info("worker started")

	go func() {
		defer close(w.done)

		for !shutdown.Raised() {
			w.state.Store(int32(StateRunning))

			if !pace(shutdown, maxPacing) {
				continue
			}

			err := step(shutdown.Context())
			w.iterations.Add(1)

			if errors.Is(err, ErrClosed) {
				// nothing to do until the controller stops us
				<-shutdown.Done()
			}
		}

		w.state.Store(int32(StateStopping))
		logger.Info("worker exited", "iterations", w.iterations.Load())
		w.state.Store(int32(StateExited))
	}()
}

// pace sleeps a random delay in [0, maxDelay]. Returns false if shutdown was
// raised during the sleep.
func pace(shutdown *Shutdown, maxDelay time.Duration) bool {
	ms := uint32(maxDelay / time.Millisecond)
	if ms == 0 {
		return true
	}

	d := time.Duration(fastrand.Uint32n(ms+1)) * time.Millisecond
	if d == 0 {
		return true
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-shutdown.Done():
		return false
	}
}
