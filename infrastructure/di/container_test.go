package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"maswada-backend/application/ports"
	"maswada-backend/application/services"
	"maswada-backend/infrastructure/config"
	"maswada-backend/infrastructure/messaging"
	"maswada-backend/infrastructure/ratelimit"
	"maswada-backend/pkg/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.NewLoader(t.TempDir()).WithEnv(func(k string) string { return vars[k] }).Load()
	require.NoError(t, err)
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c, err := NewWithLogger(context.Background(), cfg, zap.NewNop(), zap.NewAtomicLevel())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func TestContainerMemoryDefaults(t *testing.T) {
	c := newTestContainer(t, testConfig(t, nil))
	ctx := context.Background()

	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Metrics)
	assert.IsType(t, &messaging.LogPublisher{}, c.Publisher)
	assert.IsType(t, &auth.SlidingWindowLimiter{}, c.AIRateLimiter)
	assert.NoError(t, c.Ping(ctx))

	n, err := c.NoteService.Create(ctx, "user-1", services.CreateNoteInput{Title: "hello", Content: "some words"})
	require.NoError(t, err)

	out, err := c.AIService.Summarize(ctx, "user-1", services.AIInput{NoteID: &n.ID})
	require.NoError(t, err)
	assert.Equal(t, "[summarize] some words", out)
}

func TestContainerSQLiteWithRedis(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := testConfig(t, map[string]string{
		"DATABASE_DRIVER": "sqlite",
		"SQLITE_PATH":     filepath.Join(t.TempDir(), "notes.db"),
		"REDIS_URL":       "redis://" + s.Addr(),
		"ENABLE_METRICS":  "true",
	})
	cfg.Database.MigrateOnStart = true

	c := newTestContainer(t, cfg)
	ctx := context.Background()

	require.NotNil(t, c.Redis)
	require.NotNil(t, c.Metrics)
	assert.IsType(t, &ratelimit.RedisLimiter{}, c.AIRateLimiter)
	assert.NoError(t, c.Ping(ctx))

	n, err := c.NoteService.Create(ctx, "user-1", services.CreateNoteInput{Title: "persisted"})
	require.NoError(t, err)

	got, err := c.NoteService.Get(ctx, n.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
	assert.True(t, s.Exists("note:user-1:"+n.ID))
}

func TestContainerFailsFast(t *testing.T) {
	t.Run("UnreachableRedis", func(t *testing.T) {
		cfg := testConfig(t, map[string]string{"REDIS_URL": "redis://127.0.0.1:1"})
		_, err := NewWithLogger(context.Background(), cfg, zap.NewNop(), zap.NewAtomicLevel())
		assert.Error(t, err)
	})

	t.Run("BadPublicKey", func(t *testing.T) {
		cfg := testConfig(t, nil)
		cfg.Auth.JWTPublicKey = "not a pem"
		_, err := NewWithLogger(context.Background(), cfg, zap.NewNop(), zap.NewAtomicLevel())
		assert.Error(t, err)
	})
}

func TestProvideLogger(t *testing.T) {
	cfg := testConfig(t, map[string]string{"LOG_LEVEL": "warn"})
	logger, level, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, "warn", level.String())
}

func TestProvideJWTValidator(t *testing.T) {
	cfg := testConfig(t, map[string]string{"JWT_SECRET": "s3cret", "JWT_ISSUER": "maswada"})
	validator, err := ProvideJWTValidator(cfg)
	require.NoError(t, err)

	gen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SecretKey: "s3cret", Issuer: "maswada", ExpiryTime: time.Hour})
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-1", "sess-1")
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestDevelopmentProviderEchoesBody(t *testing.T) {
	p := NewDevelopmentProvider()
	out, err := p.Complete(context.Background(), ports.CompletionRequest{
		Operation:  "rewrite",
		UserPrompt: "Please rewrite the following text:\n\nhi there",
	})
	require.NoError(t, err)
	assert.Equal(t, "[rewrite] hi there", out)
}

func TestWatchUpdatesLogLevel(t *testing.T) {
	dir := t.TempDir()
	loader := config.NewLoader(dir).WithEnv(func(k string) string {
		if k == "ENVIRONMENT" {
			return "staging"
		}
		return ""
	})
	cfg, err := loader.Load()
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "s"

	c := newTestContainer(t, cfg)
	require.NoError(t, c.Watch(loader))
	require.NotNil(t, c.watcher)
}
