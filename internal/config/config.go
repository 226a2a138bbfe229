package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	App       AppConfig
	Extractor ExtractorConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	CORSOrigins     []string      `envconfig:"SERVER_CORS_ORIGINS"` // empty allows every origin
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// StoreConfig selects the link storage backend.
type StoreConfig struct {
	Driver     string `envconfig:"STORE_DRIVER" default:"memory"` // memory, postgres, sqlite
	SQLitePath string `envconfig:"SQLITE_PATH" default:"linkshelf.db"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverPostgres:
		return nil
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
		return nil
	default:
		return fmt.Errorf("invalid store driver: %s (must be one of: memory, postgres, sqlite)", c.Driver)
	}
}

// DatabaseConfig holds PostgreSQL connection configuration. It is only
// loaded and validated when the postgres driver is selected.
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" required:"true"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" required:"true"`
	Password    string `envconfig:"DB_PASSWORD" required:"true"`
	Name        string `envconfig:"DB_NAME" required:"true"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns    int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment    string `envconfig:"APP_ENV" default:"development"` // development, staging, production, test
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
	ServiceName    string `envconfig:"SERVICE_NAME" default:"linkshelf"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	return nil
}

// ExtractorConfig tunes page metadata extraction.
type ExtractorConfig struct {
	Timeout      time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"5s"`
	MaxBodyBytes int64         `envconfig:"EXTRACT_MAX_BODY_BYTES" default:"2097152"`
	UserAgent    string        `envconfig:"EXTRACT_USER_AGENT"`
}

// Validate validates the extractor configuration.
func (c *ExtractorConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("extract timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("extract max body bytes must be positive")
	}
	return nil
}

type section interface {
	Validate() error
}

func loadSection(name string, s section) error {
	if err := envconfig.Process("", s); err != nil {
		return fmt.Errorf("failed to load %s config: %w", name, err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid %s config: %w", name, err)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (.env loading happens in internal/app for development and test.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadSection("Server", &cfg.Server); err != nil {
		return nil, err
	}
	if err := loadSection("Store", &cfg.Store); err != nil {
		return nil, err
	}
	if cfg.Store.Driver == DriverPostgres {
		if err := loadSection("Database", &cfg.Database); err != nil {
			return nil, err
		}
	}
	if err := loadSection("App", &cfg.App); err != nil {
		return nil, err
	}
	if err := loadSection("Extractor", &cfg.Extractor); err != nil {
		return nil, err
	}

	return cfg, nil
}
