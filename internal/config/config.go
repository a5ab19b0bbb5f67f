// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/vmatch/internal/domain/matching"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// EligibilityPolicy is strict_majority or at_least_half.
	EligibilityPolicy string `koanf:"eligibility_policy"`

	// StoreTimeoutMS bounds every storage call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// CatalogDriver stores volunteers, events, notifications and history:
	// memory or postgres.
	CatalogDriver string `koanf:"catalog_driver"`

	// RegistryDriver stores registrations: memory, postgres or redis.
	RegistryDriver string `koanf:"registry_driver"`

	PostgresDSN string `koanf:"postgres_dsn"`
	RedisAddr   string `koanf:"redis_addr"`

	// NATSURL enables publishing delivered notifications when set.
	NATSURL string `koanf:"nats_url"`

	// SeedDemoData loads the demo volunteers and events on startup.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU(),
		EligibilityPolicy: string(matching.DefaultPolicy),
		StoreTimeoutMS:    3000,
		CatalogDriver:     DriverMemory,
		RegistryDriver:    DriverMemory,
		RedisAddr:         "localhost:6379",
		SeedDemoData:      true,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Policy returns the parsed eligibility policy.
func (c *Config) Policy() (matching.Policy, error) {
	return matching.ParsePolicy(c.EligibilityPolicy)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.StoreTimeoutMS <= 0:
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.CatalogDriver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown catalog_driver %q", ErrInvalidConfig, c.CatalogDriver)
	}
	switch c.RegistryDriver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown registry_driver %q", ErrInvalidConfig, c.RegistryDriver)
	}
	if (c.CatalogDriver == DriverPostgres || c.RegistryDriver == DriverPostgres) && c.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
	}
	if c.RegistryDriver == DriverRedis && c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr is required for the redis driver", ErrInvalidConfig)
	}
	// Registrations reference catalog rows in postgres.
	if c.RegistryDriver == DriverPostgres && c.CatalogDriver != DriverPostgres {
		return fmt.Errorf("%w: registry_driver postgres requires catalog_driver postgres", ErrInvalidConfig)
	}
	return nil
}
