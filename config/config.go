package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"lotto/database"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Round configuration
	DrawInterval   time.Duration `env:"DRAW_INTERVAL" envDefault:"120s"`
	StartingPoints int64         `env:"STARTING_POINTS" envDefault:"100"`

	// Realtime surface
	HTTPAddr         string   `env:"HTTP_ADDR" envDefault:":3001"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"localhost:*"`
	SubscriberBuffer int      `env:"SUBSCRIBER_BUFFER" envDefault:"64"`

	// NATS configuration, empty disables the forwarder
	NATSServers string `env:"NATS_SERVERS"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// OpenTelemetry configuration
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"lotto"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"console"`
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"30000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Load parses configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DrawInterval <= 0 {
		return fmt.Errorf("DRAW_INTERVAL must be positive, got %s", c.DrawInterval)
	}
	if c.StartingPoints < 0 {
		return fmt.Errorf("STARTING_POINTS cannot be negative, got %d", c.StartingPoints)
	}
	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("SUBSCRIBER_BUFFER must be at least 1, got %d", c.SubscriberBuffer)
	}

	if c.Environment == "test" {
		return nil
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// If DatabaseName is provided, ensure it's not empty
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		DrawInterval:             2 * time.Minute,
		StartingPoints:           100,
		HTTPAddr:                 ":0",
		AllowedOrigins:           []string{"*"},
		SubscriberBuffer:         64,
		LogLevel:                 "info",
		LogFormat:                "text",
		OTelServiceName:          "lotto-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 30000,
	}
}
