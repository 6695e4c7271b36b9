package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	API      APIConfig
	Redis    RedisConfig
	S3       S3Config
	Pricing  PricingConfig
	Checkout CheckoutConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds the submission log database configuration.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// APIConfig points at the remote restaurant API.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// RedisConfig holds the shared ingredient price store configuration.
type RedisConfig struct {
	Enabled         bool
	Addr            string
	Password        string
	DB              int
	PriceTTLSeconds int
}

// S3Config holds AWS S3 configuration for the pricing defaults document.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "pricing/")
}

// PricingConfig locates the pricing defaults document.
type PricingConfig struct {
	DefaultsPath string
}

// CheckoutConfig bounds checkout sessions.
type CheckoutConfig struct {
	SessionIdleMinutes int
	MaxSessions        int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", true),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "checkout"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		API: APIConfig{
			BaseURL:        getEnv("RESTAURANT_API_URL", "http://localhost:3000/api"),
			TimeoutSeconds: getEnvAsInt("RESTAURANT_API_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			Enabled:         getEnvAsBool("REDIS_ENABLED", false),
			Addr:            getEnv("REDIS_ADDR", "localhost:6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			PriceTTLSeconds: getEnvAsInt("REDIS_PRICE_TTL", 900),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "pricing/"),
		},
		Pricing: PricingConfig{
			DefaultsPath: getEnv("PRICING_DEFAULTS_PATH", "config/pricing.json"),
		},
		Checkout: CheckoutConfig{
			SessionIdleMinutes: getEnvAsInt("CHECKOUT_SESSION_IDLE_MINUTES", 30),
			MaxSessions:        getEnvAsInt("CHECKOUT_MAX_SESSIONS", 10000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}

		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}

		if c.Database.MinConnections < 1 {
			return fmt.Errorf("database min connections must be at least 1")
		}

		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid restaurant API URL: %q", c.API.BaseURL)
	}

	if c.API.TimeoutSeconds < 1 {
		return fmt.Errorf("restaurant API timeout must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if c.Redis.PriceTTLSeconds < 1 {
			return fmt.Errorf("redis price TTL must be at least 1 second")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Checkout.SessionIdleMinutes < 1 {
		return fmt.Errorf("checkout session idle timeout must be at least 1 minute")
	}

	if c.Checkout.MaxSessions < 1 {
		return fmt.Errorf("checkout max sessions must be at least 1")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the remote API request timeout.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PriceTTL returns how long shared ingredient prices stay cached.
func (c *RedisConfig) PriceTTL() time.Duration {
	return time.Duration(c.PriceTTLSeconds) * time.Second
}

// SessionIdleTimeout returns how long an untouched session is kept.
func (c *CheckoutConfig) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
