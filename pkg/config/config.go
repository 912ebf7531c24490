// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/platinummonkey/adminpanel/pkg/observability"
	"github.com/platinummonkey/adminpanel/pkg/storage/postgres"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      postgres.Config
	Redis         RedisConfig
	Auth          AuthConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds optional Redis configuration for rate limiting
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// Enabled reports whether a Redis endpoint is configured
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// AuthConfig holds JWT validation settings
type AuthConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// AuditConfig holds audit recorder settings
type AuditConfig struct {
	// MaxConcurrentWrites bounds in-flight audit inserts so a burst of
	// mutations cannot drain the shared connection pool
	MaxConcurrentWrites int64
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("ADMINPANEL_HOST", "0.0.0.0"),
			Port:            getEnv("ADMINPANEL_PORT", "8080"),
			ReadTimeout:     getEnvDuration("ADMINPANEL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("ADMINPANEL_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("ADMINPANEL_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("ADMINPANEL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: postgres.Config{
			URL:         getEnv("ADMINPANEL_POSTGRES_URL", ""),
			MaxConns:    getEnvInt("ADMINPANEL_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("ADMINPANEL_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("ADMINPANEL_POSTGRES_TIMEOUT", 5*time.Second),
			MaxLifetime: getEnvDuration("ADMINPANEL_POSTGRES_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime: getEnvDuration("ADMINPANEL_POSTGRES_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("ADMINPANEL_REDIS_URL", ""),
			Password: getEnv("ADMINPANEL_REDIS_PASSWORD", ""),
			DB:       getEnvInt("ADMINPANEL_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SigningKey: getEnv("ADMINPANEL_JWT_SIGNING_KEY", ""),
			Issuer:     getEnv("ADMINPANEL_JWT_ISSUER", "adminpanel"),
			Audience:   getEnv("ADMINPANEL_JWT_AUDIENCE", "adminpanel-api"),
		},
		Audit: AuditConfig{
			MaxConcurrentWrites: int64(getEnvInt("ADMINPANEL_AUDIT_MAX_CONCURRENT_WRITES", 8)),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("ADMINPANEL_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("ADMINPANEL_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for required values
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("ADMINPANEL_POSTGRES_URL is required")
	}
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("ADMINPANEL_JWT_SIGNING_KEY is required")
	}
	if c.Audit.MaxConcurrentWrites < 1 {
		return fmt.Errorf("ADMINPANEL_AUDIT_MAX_CONCURRENT_WRITES must be at least 1")
	}
	return nil
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns a boolean environment variable or a default value
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvDuration returns a duration environment variable or a default value
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
