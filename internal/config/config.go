// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Sequence store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

var ErrUnknownSequenceStore = errors.New("config: unknown sequence store")

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"product-projections"`
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:":50051"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	SpannerDatabase     string `env:"SPANNER_DATABASE" envDefault:"projects/test-project/instances/emulator-instance/databases/test-db"`
	SpannerEmulatorHost string `env:"SPANNER_EMULATOR_HOST"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"product-events"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"product-projections"`

	SequenceStore  string `env:"SEQUENCE_STORE" envDefault:"memory"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"seq:"`
	DatabaseURL    string `env:"DATABASE_URL"`

	DispatchWorkers  int           `env:"DISPATCH_WORKERS" envDefault:"4"`
	DispatchRetryMin time.Duration `env:"DISPATCH_RETRY_MIN" envDefault:"100ms"`
	DispatchRetryMax time.Duration `env:"DISPATCH_RETRY_MAX" envDefault:"30s"`
	MaxDrainPasses   int           `env:"MAX_DRAIN_PASSES" envDefault:"32"`
	RelayInterval    time.Duration `env:"RELAY_INTERVAL" envDefault:"2s"`
	RelayBatchSize   int           `env:"RELAY_BATCH_SIZE" envDefault:"50"`

	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.SequenceStore {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres sequence store")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSequenceStore, c.SequenceStore)
	}
	if c.DispatchWorkers < 1 {
		return errors.New("config: DISPATCH_WORKERS must be positive")
	}
	if c.DispatchRetryMin <= 0 || c.DispatchRetryMax < c.DispatchRetryMin {
		return errors.New("config: DISPATCH_RETRY_MIN must be positive and not above DISPATCH_RETRY_MAX")
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		return errors.New("config: OTEL_SAMPLING_RATIO must be within [0,1]")
	}
	return nil
}
