package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Forum database configuration
	Database accounts.PostgresConfig

	// Session registry configuration
	Sessions SessionsConfig

	// Provider settings file (hot-reloaded; see settings.go)
	ProviderSettingsPath string

	// Provider holds the settings loaded from ProviderSettingsPath, or
	// from environment variables when no file is configured.
	Provider provider.Config

	// Observability configuration
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

// SessionsConfig holds session registry configuration
type SessionsConfig struct {
	// Backend selects the registry implementation: "memory" or "redis".
	Backend string

	// Redis connection settings, used when Backend is "redis".
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// TTL bounds how long a granted session stays registered without
	// revalidation.
	TTL time.Duration

	// RevalidateSchedule is a cron expression for the background
	// revalidation sweep. Empty disables the sweep.
	RevalidateSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// OpenTelemetry
	OTel observability.OTelConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:               loadServerConfig(),
		Database:             loadDatabaseConfig(),
		Sessions:             loadSessionsConfig(),
		ProviderSettingsPath: getEnv("JSONAUTH_PROVIDER_SETTINGS", ""),
		Provider:             loadProviderConfig(),
		Observability:        loadObservabilityConfig(),
	}

	if cfg.ProviderSettingsPath != "" {
		settings, err := LoadProviderSettings(cfg.ProviderSettingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load provider settings: %w", err)
		}
		cfg.Provider = settings
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("JSONAUTH_HOST", "0.0.0.0"),
		Port:            getEnv("JSONAUTH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("JSONAUTH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("JSONAUTH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("JSONAUTH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("JSONAUTH_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadDatabaseConfig loads forum database configuration from environment
func loadDatabaseConfig() accounts.PostgresConfig {
	cfg := accounts.DefaultPostgresConfig()
	cfg.URL = getEnv("JSONAUTH_POSTGRES_URL", "")
	if prefix := getEnv("JSONAUTH_TABLE_PREFIX", ""); prefix != "" {
		cfg.TablePrefix = prefix
	}
	if maxConns := getEnvInt("JSONAUTH_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("JSONAUTH_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("JSONAUTH_POSTGRES_PING_TIMEOUT", 0); timeout > 0 {
		cfg.PingTimeout = timeout
	}
	return cfg
}

// loadSessionsConfig loads session registry configuration from environment
func loadSessionsConfig() SessionsConfig {
	return SessionsConfig{
		Backend:            getEnv("JSONAUTH_SESSIONS_BACKEND", "memory"),
		RedisURL:           getEnv("JSONAUTH_REDIS_URL", ""),
		RedisPassword:      getEnv("JSONAUTH_REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("JSONAUTH_REDIS_DB", 0),
		TTL:                getEnvDuration("JSONAUTH_SESSION_TTL", 24*time.Hour),
		RevalidateSchedule: getEnv("JSONAUTH_REVALIDATE_SCHEDULE", "@every 15m"),
	}
}

// loadProviderConfig loads provider settings from environment. These act
// as a fallback for deployments without a settings file.
func loadProviderConfig() provider.Config {
	return provider.Config{
		AssertionURL:          getEnv("JSONAUTH_ASSERTION_URL", ""),
		SharedCookieName:      getEnv("JSONAUTH_SHARED_COOKIE_NAME", ""),
		ProviderCookieName:    getEnv("JSONAUTH_PROVIDER_COOKIE_NAME", ""),
		LogoutURL:             getEnv("JSONAUTH_LOGOUT_URL", ""),
		LoginRedirectURL:      getEnv("JSONAUTH_LOGIN_REDIRECT_URL", ""),
		FetchTimeout:          getEnvDuration("JSONAUTH_FETCH_TIMEOUT", 0),
		InsecureSkipTLSVerify: getEnvBool("JSONAUTH_INSECURE_SKIP_TLS_VERIFY", false),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel: observability.ParseLogLevel(getEnv("JSONAUTH_LOG_LEVEL", "info")),
		OTel: observability.OTelConfig{
			Enabled:        getEnvBool("JSONAUTH_OTEL_ENABLED", false),
			Endpoint:       getEnv("JSONAUTH_OTEL_ENDPOINT", "localhost:4317"),
			ServiceName:    getEnv("JSONAUTH_OTEL_SERVICE_NAME", "jsonauthd"),
			ServiceVersion: getEnv("JSONAUTH_OTEL_SERVICE_VERSION", "1.0.0"),
			Insecure:       getEnvBool("JSONAUTH_OTEL_INSECURE", true),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Sessions.Backend {
	case "memory":
	case "redis":
		if c.Sessions.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", c.Sessions.Backend)
	}

	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider settings incomplete: %w", err)
	}

	if c.Observability.OTel.Enabled && c.Observability.OTel.Endpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
