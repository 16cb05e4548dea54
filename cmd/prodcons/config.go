package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aradilov/boundedbuffer"
)

// fileConfig is the YAML config file layout. Absent keys keep their defaults.
type fileConfig struct {
	RunDurationSeconds *int   `yaml:"run_duration_seconds"`
	Producers          *int   `yaml:"producers"`
	Consumers          *int   `yaml:"consumers"`
	Capacity           *int   `yaml:"capacity"`
	Backend            string `yaml:"backend"`
	Order              string `yaml:"order"`
	MaxPacing          string `yaml:"max_pacing"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc *fileConfig) apply(cfg *boundedbuffer.Config) error {
	if fc.RunDurationSeconds != nil {
		cfg.RunDuration = time.Duration(*fc.RunDurationSeconds) * time.Second
	}
	if fc.Producers != nil {
		cfg.Producers = *fc.Producers
	}
	if fc.Consumers != nil {
		cfg.Consumers = *fc.Consumers
	}
	if fc.Capacity != nil {
		cfg.Capacity = *fc.Capacity
	}
	if fc.Backend != "" {
		b, err := boundedbuffer.ParseBackend(fc.Backend)
		if err != nil {
			return err
		}
		cfg.Backend = b
	}
	if fc.Order != "" {
		o, err := boundedbuffer.ParseOrder(fc.Order)
		if err != nil {
			return err
		}
		cfg.Order = o
	}
	if fc.MaxPacing != "" {
		d, err := time.ParseDuration(fc.MaxPacing)
		if err != nil {
			return fmt.Errorf("max_pacing: %w", err)
		}
		cfg.MaxPacing = d
	}
	return nil
}

// buildConfig layers defaults, the config file, flags and positionals, in that
// order.
func buildConfig(cmd *cobra.Command, opts *cliOptions, args []string, logger *slog.Logger) (boundedbuffer.Config, error) {
	cfg := boundedbuffer.DefaultConfig()

	if opts.configPath != "" {
		fc, err := loadConfigFile(opts.configPath)
		if err != nil {
			return cfg, err
		}
		if err := fc.apply(&cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", opts.configPath, err)
		}
	}

	if flagSet(cmd, "capacity", "PRODCONS_CAPACITY") {
		cfg.Capacity = opts.capacity
	}
	if flagSet(cmd, "backend", "PRODCONS_BACKEND") {
		b, err := boundedbuffer.ParseBackend(opts.backend)
		if err != nil {
			return cfg, fmt.Errorf("invalid --backend: %w", err)
		}
		cfg.Backend = b
	}
	if flagSet(cmd, "order", "PRODCONS_ORDER") {
		o, err := boundedbuffer.ParseOrder(opts.order)
		if err != nil {
			return cfg, fmt.Errorf("invalid --order: %w", err)
		}
		cfg.Order = o
	}
	if flagSet(cmd, "max-pacing", "PRODCONS_MAX_PACING") {
		cfg.MaxPacing = opts.maxPacing
	}

	applyPositionals(&cfg, args, logger)

	if cfg.Capacity <= 0 {
		return cfg, fmt.Errorf("invalid capacity: %d", cfg.Capacity)
	}
	return cfg, nil
}

// applyPositionals reads [runDurationSeconds] [producerCount] [consumerCount].
// A missing value keeps what cfg holds; a malformed one falls back to the
// default and is reported, never fatal. Extra values are ignored.
func applyPositionals(cfg *boundedbuffer.Config, args []string, logger *slog.Logger) {
	def := boundedbuffer.DefaultConfig()

	if len(args) > 3 {
		logger.Warn("ignoring extra arguments", "args", args[3:])
	}
	if len(args) > 0 {
		secs := parseCount(args[0], int(def.RunDuration/time.Second), "runDurationSeconds", logger)
		cfg.RunDuration = time.Duration(secs) * time.Second
	}
	if len(args) > 1 {
		cfg.Producers = parseCount(args[1], def.Producers, "producerCount", logger)
	}
	if len(args) > 2 {
		cfg.Consumers = parseCount(args[2], def.Consumers, "consumerCount", logger)
	}
}

func parseCount(s string, def int, name string, logger *slog.Logger) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		logger.Warn("malformed argument, using default", "arg", name, "value", s, "default", def)
		return def
	}
	return n
}

func flagSet(cmd *cobra.Command, name, env string) bool {
	return cmd.Flags().Changed(name) || os.Getenv(env) != ""
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
