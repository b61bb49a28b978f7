// Package config loads the service configuration from layered YAML files
// and environment variables, and reloads the runtime-tunable parts of it in
// development.
package config

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Environment names a deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// DevelopmentJWTSecret signs tokens in development when no key is configured.
const DevelopmentJWTSecret = "maswada-development-secret"

// Config holds all application configuration
type Config struct {
	Environment Environment `yaml:"environment"`
	Server      Server      `yaml:"server"`
	Database    Database    `yaml:"database"`
	Redis       Redis       `yaml:"redis"`
	Auth        Auth        `yaml:"auth"`
	AI          AI          `yaml:"ai"`
	Events      Events      `yaml:"events"`
	Logging     Logging     `yaml:"logging"`
	Features    Features    `yaml:"features"`
	CORS        CORS        `yaml:"cors"`
	Tracing     Tracing     `yaml:"tracing"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

// Server configuration
type Server struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestSize  int64         `yaml:"max_request_size"`
}

// Database selects and addresses the note store.
type Database struct {
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	SQLitePath     string `yaml:"sqlite_path"`
	DynamoDBTable  string `yaml:"dynamodb_table"`
	AWSRegion      string `yaml:"aws_region"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// Redis is optional. When URL is empty the note cache is disabled and the
// AI rate limiter falls back to memory.
type Redis struct {
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Auth configures bearer token verification.
type Auth struct {
	JWTSecret    string `yaml:"jwt_secret"`
	JWTPublicKey string `yaml:"jwt_public_key"`
	Issuer       string `yaml:"issuer"`
	Audience     string `yaml:"audience"`
}

// AI configures the language model provider.
type AI struct {
	APIKey         string        `yaml:"api_key"`
	OrganizationID string        `yaml:"organization_id"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      int           `yaml:"rate_limit"`
	RateWindow     time.Duration `yaml:"rate_window"`
	UseMock        bool          `yaml:"use_mock"`
}

// Events configures domain event publishing. An empty bus name logs events
// instead of sending them.
type Events struct {
	BusName string `yaml:"bus_name"`
}

// Logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Features contains feature flags
type Features struct {
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
}

// CORS binds cross-origin access to the web frontend.
type CORS struct {
	FrontendOrigin string `yaml:"frontend_origin"`
}

// Tracing configures the OTLP exporter.
type Tracing struct {
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}

	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}

	switch c.Database.Driver {
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory database driver is not allowed in production")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverDynamoDB:
		if c.Database.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	if c.AI.RateLimit <= 0 || c.AI.RateWindow <= 0 {
		return fmt.Errorf("AI rate limit and window must be positive")
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY is required in production")
		}
		if c.AI.APIKey == "" || c.AI.UseMock {
			return fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		if c.CORS.FrontendOrigin == "" {
			return fmt.Errorf("FRONTEND_ORIGIN is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// applyEnvironmentDefaults fills values that depend on the environment.
func (c *Config) applyEnvironmentDefaults() {
	if c.IsDevelopment() {
		if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" {
			c.Auth.JWTSecret = DevelopmentJWTSecret
		}
		if c.AI.APIKey == "" {
			c.AI.UseMock = true
		}
		if c.CORS.FrontendOrigin == "" {
			c.CORS.FrontendOrigin = "http://localhost:3000"
		}
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "maswada-backend"
	}
}
