package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).WithEnv(envMap(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "gpt-5-mini", cfg.AI.Model)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)

	// development fallbacks
	assert.Equal(t, DevelopmentJWTSecret, cfg.Auth.JWTSecret)
	assert.True(t, cfg.AI.UseMock)
	assert.Equal(t, "http://localhost:3000", cfg.CORS.FrontendOrigin)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "database:\n  driver: sqlite\n  sqlite_path: base.db\nlogging:\n  level: info\nai:\n  rate_window: 30s\n")
	writeFile(t, dir, "staging.yaml", "logging:\n  level: warn\n")
	writeFile(t, dir, "local.yaml", "logging:\n  level: debug\n")

	t.Run("EnvironmentFileOverridesBase", func(t *testing.T) {
		cfg, err := NewLoader(dir).WithEnv(envMap(map[string]string{
			"ENVIRONMENT": "staging",
		})).Load()
		require.NoError(t, err)

		assert.Equal(t, Staging, cfg.Environment)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "base.db", cfg.Database.SQLitePath)
		assert.Equal(t, 30*time.Second, cfg.AI.RateWindow)
		// local.yaml applies to development only
		assert.NotContains(t, cfg.LoadedFrom, filepath.Join(dir, "local.yaml"))
	})

	t.Run("LocalOverridesInDevelopment", func(t *testing.T) {
		cfg, err := NewLoader(dir).WithEnv(envMap(nil)).Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, []string{
			"defaults",
			filepath.Join(dir, "base.yaml"),
			filepath.Join(dir, "local.yaml"),
			"environment",
		}, cfg.LoadedFrom)
	})

	t.Run("EnvironmentVariablesWin", func(t *testing.T) {
		cfg, err := NewLoader(dir).WithEnv(envMap(map[string]string{
			"LOG_LEVEL":       "error",
			"DATABASE_DRIVER": "postgres",
			"DATABASE_URL":    "postgres://localhost/maswada",
			"PORT":            "3001",
			"OPENAI_MODEL":    "gpt-4o-mini",
			"AI_RATE_LIMIT":   "5",
			"ENABLE_METRICS":  "true",
			"REDIS_URL":       "redis://localhost:6379/0",
		})).Load()
		require.NoError(t, err)

		assert.Equal(t, "error", cfg.Logging.Level)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, ":3001", cfg.Server.Address)
		assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
		assert.Equal(t, 5, cfg.AI.RateLimit)
		assert.True(t, cfg.Features.EnableMetrics)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	})

	t.Run("ServerAddressBeatsPort", func(t *testing.T) {
		cfg, err := NewLoader(dir).WithEnv(envMap(map[string]string{
			"PORT":           "3001",
			"SERVER_ADDRESS": "127.0.0.1:9000",
		})).Load()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("MalformedYAML", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "server: [unclosed\n")
		_, err := NewLoader(dir).WithEnv(envMap(nil)).Load()
		assert.ErrorContains(t, err, "base.yaml")
	})

	t.Run("BadBool", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).WithEnv(envMap(map[string]string{"ENABLE_TRACING": "maybe"})).Load()
		assert.ErrorContains(t, err, "ENABLE_TRACING")
	})

	t.Run("BadRateLimit", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).WithEnv(envMap(map[string]string{"AI_RATE_LIMIT": "lots"})).Load()
		assert.ErrorContains(t, err, "AI_RATE_LIMIT")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig(Production)
		cfg.Database.Driver = DriverPostgres
		cfg.Database.URL = "postgres://db/maswada"
		cfg.Auth.JWTSecret = "secret"
		cfg.AI.APIKey = "sk-test"
		cfg.CORS.FrontendOrigin = "https://maswada.app"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"UnknownEnvironment":   func(c *Config) { c.Environment = "qa" },
		"MissingJWTKey":        func(c *Config) { c.Auth.JWTSecret = "" },
		"MissingOpenAIKey":     func(c *Config) { c.AI.APIKey = "" },
		"MockInProduction":     func(c *Config) { c.AI.UseMock = true },
		"MissingOrigin":        func(c *Config) { c.CORS.FrontendOrigin = "" },
		"MissingDatabaseURL":   func(c *Config) { c.Database.URL = "" },
		"MemoryInProduction":   func(c *Config) { c.Database.Driver = DriverMemory },
		"UnknownDriver":        func(c *Config) { c.Database.Driver = "mongo" },
		"MissingDynamoTable":   func(c *Config) { c.Database.Driver = DriverDynamoDB; c.Database.DynamoDBTable = "" },
		"MissingSQLitePath":    func(c *Config) { c.Database.Driver = DriverSQLite; c.Database.SQLitePath = "" },
		"InvalidLogLevel":      func(c *Config) { c.Logging.Level = "loud" },
		"NonPositiveRateLimit": func(c *Config) { c.AI.RateLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("PublicKeyInsteadOfSecret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = ""
		cfg.Auth.JWTPublicKey = "-----BEGIN PUBLIC KEY-----"
		assert.NoError(t, cfg.Validate())
	})
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "logging:\n  level: info\n")
	loader := NewLoader(dir).WithEnv(envMap(map[string]string{"ENVIRONMENT": "staging"}))

	initial, err := loader.Load()
	require.NoError(t, err)

	w, err := NewWatcher(loader, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	w.OnChange(LogLevelUpdater(level, zap.NewNop()))

	var models []string
	w.OnChange(func(cfg *Config) { models = append(models, cfg.AI.Model) })
	w.OnChange(func(*Config) { panic("boom") })

	t.Run("UnchangedSkipsCallbacks", func(t *testing.T) {
		require.NoError(t, w.Reload())
		assert.Empty(t, models)
	})

	t.Run("ChangeNotifies", func(t *testing.T) {
		writeFile(t, dir, "base.yaml", "logging:\n  level: debug\nai:\n  model: gpt-4o\n")
		require.NoError(t, w.Reload())

		assert.Equal(t, zapcore.DebugLevel, level.Level())
		assert.Equal(t, []string{"gpt-4o"}, models)
		assert.Equal(t, "gpt-4o", w.Current().AI.Model)
	})

	t.Run("InvalidKeepsCurrent", func(t *testing.T) {
		writeFile(t, dir, "base.yaml", "logging:\n  level: shouting\n")
		assert.Error(t, w.Reload())
		assert.Equal(t, "debug", w.Current().Logging.Level)
	})
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "logging:\n  level: info\n")
	loader := NewLoader(dir).WithEnv(envMap(nil))

	initial, err := loader.Load()
	require.NoError(t, err)

	w, err := newWatcher(loader, initial, zap.NewNop(), 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg.Logging.Level:
		default:
		}
	})

	writeFile(t, dir, "base.yaml", "logging:\n  level: warn\n")

	select {
	case lvl := <-changed:
		assert.Equal(t, "warn", lvl)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration change not observed")
	}
}
