package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/MikkosUSN/levelup-merch/pkg/config"
	"github.com/MikkosUSN/levelup-merch/pkg/database"
)

// Config holds all configuration for the service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Postgres
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"merch"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"merch"`
	DBName     string `env:"DB_NAME" envDefault:"merch"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cart storage backend: "redis" or "memory".
	CartBackend string `env:"CART_BACKEND" envDefault:"redis"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days) and the checkout lock TTL.
	CartTTLHours        int `env:"CART_TTL_HOURS" envDefault:"168"`
	CheckoutLockSeconds int `env:"CHECKOUT_LOCK_SECONDS" envDefault:"30"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret          string `env:"JWT_SECRET,required"`
	AccessTokenExpiry  int    `env:"ACCESS_TOKEN_EXPIRY_MINUTES" envDefault:"15"`
	RefreshTokenExpiry int    `env:"REFRESH_TOKEN_EXPIRY_HOURS" envDefault:"168"`

	// Tracing. Empty disables the exporter.
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`

	// Pprof access allowlist.
	PprofCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartBackend != "redis" && c.CartBackend != "memory" {
		return fmt.Errorf("invalid cart backend: %q", c.CartBackend)
	}
	return nil
}

// Postgres builds the pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		MaxConns: c.DBMaxConns,
		MinConns: c.DBMinConns,
	}
}

// CartTTL returns the cart expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// CheckoutLockTTL returns the checkout guard expiry as a duration.
func (c *Config) CheckoutLockTTL() time.Duration {
	return time.Duration(c.CheckoutLockSeconds) * time.Second
}

// AccessExpiry returns the access token lifetime.
func (c *Config) AccessExpiry() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Minute
}

// RefreshExpiry returns the refresh token lifetime.
func (c *Config) RefreshExpiry() time.Duration {
	return time.Duration(c.RefreshTokenExpiry) * time.Hour
}
