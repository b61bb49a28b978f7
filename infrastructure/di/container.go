// Package di assembles the application from configuration. Construction is
// explicit: every provider is a plain function and the container owns the
// shutdown of whatever it opened.
package di

import (
	"context"
	"errors"
	"fmt"

	"maswada-backend/application/ai"
	"maswada-backend/application/ports"
	"maswada-backend/application/services"
	"maswada-backend/infrastructure/config"
	"maswada-backend/infrastructure/llm"
	"maswada-backend/infrastructure/observability"
	"maswada-backend/pkg/auth"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	LogLevel zap.AtomicLevel

	Metrics *observability.Collector
	Tracing *observability.TracerProvider
	Tracer  trace.Tracer

	Redis         *redis.Client
	NoteRepo      ports.NoteRepository
	Publisher     ports.EventPublisher
	LLM           ports.LLMProvider
	Gateway       *ai.Gateway
	NoteService   *services.NoteService
	AIService     *services.AIService
	JWTValidator  *auth.JWTValidator
	AIRateLimiter auth.RateLimiter

	watcher *config.Watcher
	openai  *llm.OpenAIProvider
	closers []func(context.Context) error
}

// New wires every dependency. On failure, whatever was already opened is
// closed before returning.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, level, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return NewWithLogger(ctx, cfg, logger, level)
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		LogLevel: level,
	}
	if err := c.build(ctx); err != nil {
		_ = c.Shutdown(context.Background())
		return nil, err
	}

	logger.Info("Container initialized",
		zap.String("environment", string(cfg.Environment)),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("redis", c.Redis != nil),
		zap.Bool("mock_ai", cfg.AI.UseMock),
		zap.Bool("metrics", c.Metrics != nil),
		zap.Bool("tracing", c.Tracing != nil),
	)
	return c, nil
}

func (c *Container) build(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger

	if cfg.Features.EnableMetrics {
		c.Metrics = observability.NewCollector("maswada")
	}

	if cfg.Features.EnableTracing {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: string(cfg.Environment),
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		c.Tracing = tp
		c.Tracer = tp.Tracer()
		c.onShutdown(tp.Shutdown)
	} else {
		c.Tracer = otel.Tracer(cfg.Tracing.ServiceName)
	}

	if cfg.Redis.URL != "" {
		client, err := ProvideRedis(ctx, cfg)
		if err != nil {
			return err
		}
		c.Redis = client
		c.onShutdown(func(context.Context) error { return client.Close() })
	}

	repo, err := c.provideNoteRepository(ctx)
	if err != nil {
		return err
	}
	c.NoteRepo = repo

	publisher, err := c.provideEventPublisher(ctx)
	if err != nil {
		return err
	}
	c.Publisher = publisher

	c.LLM = c.provideLLM()
	c.Gateway = ai.NewGateway(c.LLM, logger)

	var metrics ports.Metrics = ports.NopMetrics{}
	if c.Metrics != nil {
		metrics = c.Metrics
	}
	c.NoteService = services.NewNoteService(c.NoteRepo, c.Publisher, metrics, logger)
	c.AIService = services.NewAIService(c.NoteService, c.Gateway, metrics, logger)

	validator, err := ProvideJWTValidator(cfg)
	if err != nil {
		return err
	}
	c.JWTValidator = validator
	c.AIRateLimiter = ProvideAIRateLimiter(cfg, c.Redis)

	return nil
}

func (c *Container) onShutdown(fn func(context.Context) error) {
	c.closers = append(c.closers, fn)
}

// Watch reloads runtime-tunable settings (log level, AI model) when the
// configuration files under loader change.
func (c *Container) Watch(loader *config.Loader) error {
	w, err := config.NewWatcher(loader, c.Config, c.Logger)
	if err != nil {
		return err
	}
	w.OnChange(config.LogLevelUpdater(c.LogLevel, c.Logger))
	if c.openai != nil {
		provider := c.openai
		w.OnChange(func(cfg *config.Config) {
			if cfg.AI.Model != provider.Model() {
				provider.SetModel(cfg.AI.Model)
				c.Logger.Info("AI model changed", zap.String("model", cfg.AI.Model))
			}
		})
	}
	c.watcher = w
	c.onShutdown(func(context.Context) error {
		w.Stop()
		return nil
	})
	return nil
}

// Shutdown releases resources in reverse order of acquisition.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

// Ping reports whether the note store is reachable.
func (c *Container) Ping(ctx context.Context) error {
	if hc, ok := c.NoteRepo.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
