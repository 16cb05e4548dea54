package boundedbuffer

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1000*time.Second, cfg.RunDuration)
	assert.Equal(t, 2, cfg.Producers)
	assert.Equal(t, 2, cfg.Consumers)
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, SemaphoreBackend, cfg.Backend)
	assert.Equal(t, LIFO, cfg.Order)
}

func TestRun(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend.String(), func(t *testing.T) {
			var out bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&out, nil))

			cfg := DefaultConfig()
			cfg.RunDuration = 100 * time.Millisecond
			cfg.Producers = 3
			cfg.Consumers = 2
			cfg.Backend = backend
			cfg.MaxPacing = 2 * time.Millisecond
			cfg.Registerer = prometheus.NewRegistry()

			report, err := Run(context.Background(), cfg, logger)
			require.NoError(t, err)

			assert.Equal(t, 3, report.Producers)
			assert.Equal(t, 2, report.Consumers)
			assert.GreaterOrEqual(t, report.Elapsed, cfg.RunDuration)
			assert.NotZero(t, report.Stats.Produced)
			assert.LessOrEqual(t, report.Stats.Len, 5)
			assert.Equal(t, int(report.Stats.Produced-report.Stats.Consumed), report.Stats.Len)

			logs := out.String()
			assert.Equal(t, 5, strings.Count(logs, "worker started"))
			assert.Equal(t, 5, strings.Count(logs, "worker exited"))
			assert.Contains(t, logs, "all workers joined")
		})
	}
}

func TestRunStopsOnContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunDuration = time.Hour
	cfg.MaxPacing = 0

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, cfg, nil)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRunWithoutWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunDuration = 0
	cfg.Producers = -1
	cfg.Consumers = 0

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Producers)
	assert.Zero(t, report.Stats.Produced)
}

func TestRunRejectsBadCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	_, err := Run(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}
