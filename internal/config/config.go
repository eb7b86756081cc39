// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and ARENA_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"regexp"
)

// Supported blob backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreCapacity bounds the number of retained replays.
	StoreCapacity int `koanf:"store_capacity"`

	// DecimationFactor keeps every n-th frame when a replay is stored.
	DecimationFactor int `koanf:"decimation_factor"`

	// SampleIntervalMS is the recorder's minimum frame spacing.
	SampleIntervalMS int64 `koanf:"sample_interval_ms"`

	// MinDamage is the smallest damage amount logged as an event.
	MinDamage float64 `koanf:"min_damage"`

	// MaxHighlights caps highlights per replay.
	MaxHighlights int `koanf:"max_highlights"`

	// PersistQueueSize bounds the in-memory persistence queue.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// DedupeSize sets how many recent replay ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// Backend selects the blob backend: memory, badger or redis.
	Backend string `koanf:"backend"`

	// BadgerPath is the badger directory. Empty runs badger in memory.
	BadgerPath string `koanf:"badger_path"`

	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string `koanf:"redis_addr"`
	RedisPrefix string `koanf:"redis_prefix"`

	// MemoryQuotaBytes bounds the memory backend. Zero means unbounded.
	MemoryQuotaBytes int64 `koanf:"memory_quota_bytes"`

	// CompressionLevel is the zstd level used for stored blobs.
	CompressionLevel int `koanf:"compression_level"`

	// DemoMatches simulates this many matches at startup.
	DemoMatches int `koanf:"demo_matches"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus series.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StoreCapacity:    10,
		DecimationFactor: 3,
		SampleIntervalMS: 100,
		MinDamage:        10,
		MaxHighlights:    8,
		PersistQueueSize: 64,
		DedupeSize:       1024,
		Backend:          BackendMemory,
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "arena:replay:",
		CompressionLevel: 3,
		MetricsNamespace: "arena",
		MetricsSubsystem: "replay",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreCapacity < 1:
		return fmt.Errorf("%w: store_capacity must be positive, got %d", ErrInvalidConfig, c.StoreCapacity)
	case c.DecimationFactor < 1:
		return fmt.Errorf("%w: decimation_factor must be positive, got %d", ErrInvalidConfig, c.DecimationFactor)
	case c.SampleIntervalMS < 1:
		return fmt.Errorf("%w: sample_interval_ms must be positive, got %d", ErrInvalidConfig, c.SampleIntervalMS)
	case c.MinDamage < 0:
		return fmt.Errorf("%w: min_damage must not be negative", ErrInvalidConfig)
	case c.MaxHighlights < 1:
		return fmt.Errorf("%w: max_highlights must be positive, got %d", ErrInvalidConfig, c.MaxHighlights)
	case c.PersistQueueSize < 1:
		return fmt.Errorf("%w: persist_queue_size must be positive, got %d", ErrInvalidConfig, c.PersistQueueSize)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MemoryQuotaBytes < 0:
		return fmt.Errorf("%w: memory_quota_bytes must not be negative", ErrInvalidConfig)
	case c.CompressionLevel < 1 || c.CompressionLevel > 22:
		return fmt.Errorf("%w: compression_level must be in [1, 22], got %d", ErrInvalidConfig, c.CompressionLevel)
	case c.DemoMatches < 0:
		return fmt.Errorf("%w: demo_matches must not be negative", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: invalid metrics_namespace %q", ErrInvalidConfig, c.MetricsNamespace)
	case !metricName.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("%w: invalid metrics_subsystem %q", ErrInvalidConfig, c.MetricsSubsystem)
	}
	switch c.Backend {
	case BackendMemory, BackendBadger:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
