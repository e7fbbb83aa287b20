package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Factor engine configuration
	Engine EngineConfig

	// Price resolver configuration
	Resolver ResolverConfig

	// Indicator pipeline defaults
	Indicators IndicatorConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// EngineConfig holds batch factor-computation configuration
type EngineConfig struct {
	BatchSize   int  // rows per upsert transaction
	Concurrency int  // instruments processed in parallel
	UpdateDaily bool // project adjusted values onto the daily bar table
}

// ResolverConfig holds adjusted-price resolver configuration
type ResolverConfig struct {
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// Load loads configuration from environment variables. When
// INDICATOR_CONFIG_FILE is set, indicator defaults are overridden from
// that YAML file.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Engine: EngineConfig{
			BatchSize:   getEnvInt("ENGINE_BATCH_SIZE", 1000),
			Concurrency: getEnvInt("ENGINE_CONCURRENCY", 4),
			UpdateDaily: getEnvBool("ENGINE_UPDATE_DAILY", true),
		},
		Resolver: ResolverConfig{
			BreakerMaxRequests: uint32(getEnvInt("RESOLVER_BREAKER_MAX_REQUESTS", 5)),
			BreakerInterval:    time.Duration(getEnvInt("RESOLVER_BREAKER_INTERVAL_SEC", 60)) * time.Second,
			BreakerTimeout:     time.Duration(getEnvInt("RESOLVER_BREAKER_TIMEOUT_SEC", 30)) * time.Second,
		},
		Indicators: DefaultIndicatorConfig(),
	}

	if path := os.Getenv("INDICATOR_CONFIG_FILE"); path != "" {
		ind, err := LoadIndicatorFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load indicator config: %w", err)
		}
		cfg.Indicators = ind
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("ENGINE_BATCH_SIZE must be positive, got %d", c.Engine.BatchSize)
	}
	if c.Engine.Concurrency <= 0 {
		return fmt.Errorf("ENGINE_CONCURRENCY must be positive, got %d", c.Engine.Concurrency)
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		Engine: EngineConfig{
			BatchSize:   1000,
			Concurrency: 4,
			UpdateDaily: true,
		},
		Resolver: ResolverConfig{
			BreakerMaxRequests: 5,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     30 * time.Second,
		},
		Indicators: DefaultIndicatorConfig(),
	}
}
