// Command prodcons runs N producers and M consumers over one bounded buffer for a
// fixed time, then stops and joins them.
//
// Usage:
//
//	prodcons [runDurationSeconds] [producerCount] [consumerCount] [flags]
//
// Missing or malformed positionals fall back to 1000, 2 and 2.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aradilov/boundedbuffer"
)

const (
	Version = "0.1.0"
	appName = "prodcons"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath string
	capacity   int
	backend    string
	order      string
	maxPacing  time.Duration
	logLevel   string
	logFormat  string
	metrics    bool
}

func newRootCmd() *cobra.Command {
	cmd, _ := newCommand()
	return cmd
}

func newCommand() (*cobra.Command, *cliOptions) {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:          appName + " [runDurationSeconds] [producerCount] [consumerCount]",
		Short:        "Producers and consumers sharing one bounded buffer",
		Version:      Version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c",
		getEnv("PRODCONS_CONFIG", ""),
		"Path to a YAML config file (env: PRODCONS_CONFIG)")
	f.IntVar(&opts.capacity, "capacity",
		getEnvInt("PRODCONS_CAPACITY", 5),
		"Number of buffer slots (env: PRODCONS_CAPACITY)")
	f.StringVar(&opts.backend, "backend",
		getEnv("PRODCONS_BACKEND", "semaphore"),
		"Synchronization backend: semaphore, cond (env: PRODCONS_BACKEND)")
	f.StringVar(&opts.order, "order",
		getEnv("PRODCONS_ORDER", "lifo"),
		"Removal order: lifo, fifo (env: PRODCONS_ORDER)")
	f.DurationVar(&opts.maxPacing, "max-pacing",
		getEnvDuration("PRODCONS_MAX_PACING", time.Second),
		"Upper bound of the random delay before each operation, 0 to disable (env: PRODCONS_MAX_PACING)")
	f.StringVar(&opts.logLevel, "log-level",
		getEnv("PRODCONS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PRODCONS_LOG_LEVEL)")
	f.StringVar(&opts.logFormat, "log-format",
		getEnv("PRODCONS_LOG_FORMAT", "text"),
		"Log format: json, text (env: PRODCONS_LOG_FORMAT)")
	f.BoolVar(&opts.metrics, "metrics",
		getEnvBool("PRODCONS_METRICS", false),
		"Log a metrics snapshot on exit (env: PRODCONS_METRICS)")

	return cmd, opts
}

func run(cmd *cobra.Command, opts *cliOptions, args []string) error {
	logger := setupLogger(cmd.OutOrStdout(), opts.logLevel, opts.logFormat)

	cfg, err := buildConfig(cmd, opts, args, logger)
	if err != nil {
		return err
	}

	var registry *prometheus.Registry
	if opts.metrics {
		registry = prometheus.NewRegistry()
		cfg.Registerer = registry
	}

	logger.Info("starting",
		"version", Version,
		"run_duration", cfg.RunDuration,
		"producers", cfg.Producers,
		"consumers", cfg.Consumers)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := boundedbuffer.Run(ctx, cfg, logger); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if registry != nil {
		if err := logMetrics(logger, registry); err != nil {
			logger.Warn("metrics snapshot failed", "error", err)
		}
	}

	logger.Info("exit the program")
	return nil
}
