package boundedbuffer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config describes one producer/consumer run.
type Config struct {
	RunDuration time.Duration
	Producers   int
	Consumers   int

	Capacity int
	Backend  Backend
	Order    Order

	// MaxPacing bounds the random delay each worker takes before every operation.
	MaxPacing time.Duration

	// Registerer, if set, receives the buffer metrics.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the defaults used when no parameters are given.
func DefaultConfig() Config {
	return Config{
		RunDuration: 1000 * time.Second,
		Producers:   2,
		Consumers:   2,
		Capacity:    5,
		Backend:     SemaphoreBackend,
		Order:       LIFO,
		MaxPacing:   time.Second,
	}
}

// Report summarizes a finished run.
type Report struct {
	Stats     Stats
	Producers int
	Consumers int
	Elapsed   time.Duration
}

// Run spawns cfg.Producers producers and cfg.Consumers consumers over one shared
// buffer of random ints, lets them work for cfg.RunDuration (or until ctx ends),
// then raises the shutdown flag, joins every worker in spawn order and releases
// the buffer.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Producers < 0 {
		logger.Warn("negative producer count, spawning none", "producers", cfg.Producers)
		cfg.Producers = 0
	}
	if cfg.Consumers < 0 {
		logger.Warn("negative consumer count, spawning none", "consumers", cfg.Consumers)
		cfg.Consumers = 0
	}

	s, err := New[int](cfg.Capacity,
		WithBackend(cfg.Backend),
		WithOrder(cfg.Order),
		WithMetrics(cfg.Registerer, "prodcons"),
	)
	if err != nil {
		return Report{}, fmt.Errorf("create buffer: %w", err)
	}

	logger.Info("buffer ready",
		"capacity", s.Cap(),
		"backend", s.Backend().String(),
		"order", cfg.Order.String())

	shutdown := NewShutdown()
	started := time.Now()

	workers := make([]*Worker, 0, cfg.Producers+cfg.Consumers)
	wcfg := WorkerConfig[int]{
		Logger:    logger,
		MaxPacing: cfg.MaxPacing,
		Generate:  RandomInt,
	}
	for i := 0; i < cfg.Producers; i++ {
		workers = append(workers, StartProducer(len(workers), s, shutdown, wcfg))
	}
	for i := 0; i < cfg.Consumers; i++ {
		workers = append(workers, StartConsumer(len(workers), s, shutdown, wcfg))
	}

	t := time.NewTimer(cfg.RunDuration)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		logger.Info("run interrupted", "reason", context.Cause(ctx))
	}

	logger.Info("raising shutdown flag", "workers", len(workers))
	shutdown.Raise()

	for _, w := range workers {
		w.Join()
	}

	stats := s.Stats()
	if err := s.Close(); err != nil {
		return Report{}, fmt.Errorf("close buffer: %w", err)
	}

	report := Report{
		Stats:     stats,
		Producers: cfg.Producers,
		Consumers: cfg.Consumers,
		Elapsed:   time.Since(started),
	}
	logger.Info("all workers joined",
		"produced", stats.Produced,
		"consumed", stats.Consumed,
		"len", stats.Len,
		"elapsed", report.Elapsed)

	return report, nil
}
