package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the order API server configuration.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Catalog      CatalogConfig
	Verification VerificationConfig
}

// ClientConfig holds the shop front end configuration.
type ClientConfig struct {
	API     APIConfig
	Logger  LoggerConfig `envPrefix:"SHOP_"`
	Catalog CatalogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds database-related configuration. URL, when set,
// takes precedence over the individual connection fields.
type DatabaseConfig struct {
	URL             string `env:"DATABASE_URL"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"bookorder"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// RedisConfig holds the pending-session store configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`   // "json" or "console"
	Output string `env:"LOG_OUTPUT" envDefault:"stderr"` // "stdout" or "stderr"
}

// CatalogConfig selects where the catalogue is read from. An empty Path
// means the built-in catalogue.
type CatalogConfig struct {
	Path string `env:"CATALOG_PATH"`
	S3   S3Config
}

// S3Config holds AWS S3 configuration for the catalogue document.
type S3Config struct {
	Enabled bool   `env:"S3_ENABLED" envDefault:"false"`
	Bucket  string `env:"S3_BUCKET"`
	Region  string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix  string `env:"S3_PREFIX" envDefault:"catalog/"` // Path prefix within bucket
}

// VerificationConfig controls one-time code issuance.
type VerificationConfig struct {
	SessionTTL  time.Duration `env:"OTP_SESSION_TTL" envDefault:"120s"`
	CodeLength  int           `env:"OTP_CODE_LENGTH" envDefault:"6"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
}

// APIConfig describes how the shop reaches the order API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

// Load loads the server configuration from environment variables and an
// optional .env file in the working directory.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadClient loads the shop configuration from environment variables and an
// optional .env file in the working directory.
func LoadClient() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads .env if present. Variables already set win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}
	return nil
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.URL == "" {
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

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Verification.SessionTTL < time.Second {
		return fmt.Errorf("verification session TTL must be at least 1s")
	}

	if c.Verification.CodeLength < 4 || c.Verification.CodeLength > 8 {
		return fmt.Errorf("verification code length must be between 4 and 8")
	}

	if c.Verification.MaxAttempts < 1 {
		return fmt.Errorf("verification max attempts must be at least 1")
	}

	if err := c.Logger.Validate(); err != nil {
		return err
	}

	return c.Catalog.Validate()
}

// Validate validates the shop configuration.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	if err := c.Logger.Validate(); err != nil {
		return err
	}

	return c.Catalog.Validate()
}

// Validate validates the logger configuration.
func (c *LoggerConfig) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Format)
	}

	if c.Output != "stdout" && c.Output != "stderr" {
		return fmt.Errorf("invalid log output: %s (must be stdout or stderr)", c.Output)
	}

	return nil
}

// Validate validates the catalogue source configuration.
func (c *CatalogConfig) Validate() error {
	if c.S3.Enabled {
		if c.Path == "" {
			return fmt.Errorf("catalog path is required when S3 is enabled")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
