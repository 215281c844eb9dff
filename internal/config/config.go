package config

import (
	"fmt"
	"time"

	"github.com/avelane/cartwish/pkg/config"
)

// Config holds all runtime settings for the cartwish service. Every field
// comes from the environment so the same binary runs unchanged across
// environments.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8086"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Backend selects the durable key-value backend: redis, postgres or
	// memory. Memory is only useful for local development and tests.
	Backend string `env:"KV_BACKEND" envDefault:"redis"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PostgresDSN string `env:"POSTGRES_DSN" envDefault:""`

	// SessionTTL bounds how long an idle session's cart and wishlist stay
	// in the backend before expiring. Zero disables expiry.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaEnabled  bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	CatalogURL    string   `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8081"`
	AllowedOrigin string   `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case "redis", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when KV_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown KV_BACKEND %q", c.Backend)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
