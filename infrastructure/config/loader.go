package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader applies configuration sources in increasing priority:
//  1. defaults
//  2. base.yaml
//  3. <environment>.yaml
//  4. local.yaml (development only)
//  5. environment variables
type Loader struct {
	basePath string
	getenv   func(string) string
}

// NewLoader reads files from basePath ("config" when empty) and variables
// from the process environment.
func NewLoader(basePath string) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	return &Loader{basePath: basePath, getenv: os.Getenv}
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// BasePath returns the directory configuration files are read from.
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load builds and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	env := Environment(strings.ToLower(l.lookup("ENVIRONMENT", "NODE_ENV")))
	if env == "" {
		env = Development
	}

	cfg := defaultConfig(env)
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	if err := l.loadFile("base", cfg); err != nil {
		return nil, err
	}
	if err := l.loadFile(string(env), cfg); err != nil {
		return nil, err
	}
	if env == Development {
		if err := l.loadFile("local", cfg); err != nil {
			return nil, err
		}
	}

	// Files may not move the environment away from the one selected.
	cfg.Environment = env

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from the CONFIG_DIR directory (default "config").
func Load() (*Config, error) {
	return NewLoader(os.Getenv("CONFIG_DIR")).Load()
}

// loadFile overlays <name>.yaml or <name>.yml. A missing file is skipped.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, ext := range []string{"yaml", "yml"} {
		path := filepath.Join(l.basePath, name+"."+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
		return nil
	}
	return nil
}

func (l *Loader) lookup(keys ...string) string {
	for _, key := range keys {
		if v := l.getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// applyEnv overlays environment variables, the highest priority source.
func (l *Loader) applyEnv(cfg *Config) error {
	setString := func(dst *string, keys ...string) {
		if v := l.lookup(keys...); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Server.Address, "SERVER_ADDRESS")
	if port := l.getenv("PORT"); port != "" && l.getenv("SERVER_ADDRESS") == "" {
		cfg.Server.Address = ":" + port
	}

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Database.DynamoDBTable, "DYNAMODB_TABLE", "TABLE_NAME")
	setString(&cfg.Database.AWSRegion, "AWS_REGION")
	setString(&cfg.Redis.URL, "REDIS_URL")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.JWTPublicKey, "JWT_PUBLIC_KEY")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.Auth.Audience, "JWT_AUDIENCE")

	setString(&cfg.AI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.AI.OrganizationID, "OPENAI_ORGANIZATION_ID")
	setString(&cfg.AI.Model, "OPENAI_MODEL")
	setString(&cfg.AI.BaseURL, "OPENAI_BASE_URL")

	setString(&cfg.CORS.FrontendOrigin, "FRONTEND_ORIGIN")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Tracing.Endpoint, "OTLP_ENDPOINT")
	setString(&cfg.Events.BusName, "EVENT_BUS_NAME")

	for key, dst := range map[string]*bool{
		"ENABLE_METRICS": &cfg.Features.EnableMetrics,
		"ENABLE_TRACING": &cfg.Features.EnableTracing,
	} {
		if v := l.getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = b
		}
	}

	if v := l.getenv("AI_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AI_RATE_LIMIT %q: %w", v, err)
		}
		cfg.AI.RateLimit = n
	}
	return nil
}

func defaultConfig(env Environment) *Config {
	return &Config{
		Environment: env,
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Database: Database{
			Driver:        DriverMemory,
			SQLitePath:    "maswada.db",
			DynamoDBTable: "maswada-notes",
			AWSRegion:     "us-east-1",
		},
		Redis: Redis{
			CacheTTL: 5 * time.Minute,
		},
		AI: AI{
			Model:      "gpt-5-mini",
			Timeout:    60 * time.Second,
			RateLimit:  20,
			RateWindow: time.Minute,
		},
		Logging: Logging{Level: "info"},
		Tracing: Tracing{
			ServiceName: "maswada-backend",
			SampleRate:  0.1,
		},
	}
}
