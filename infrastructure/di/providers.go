package di

import (
	"context"
	"fmt"
	"strings"

	"maswada-backend/application/ports"
	"maswada-backend/infrastructure/config"
	"maswada-backend/infrastructure/llm"
	"maswada-backend/infrastructure/messaging"
	"maswada-backend/infrastructure/messaging/eventbridge"
	"maswada-backend/infrastructure/observability"
	"maswada-backend/infrastructure/persistence/cache"
	"maswada-backend/infrastructure/persistence/dynamodb"
	"maswada-backend/infrastructure/persistence/memory"
	"maswada-backend/infrastructure/persistence/sqlstore"
	"maswada-backend/infrastructure/ratelimit"
	"maswada-backend/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger whose level can be changed at runtime.
func ProvideLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, level, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Database.AWSRegion),
	)
}

// ProvideRedis connects to the configured Redis server.
func ProvideRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// provideNoteRepository opens the configured store and layers the cache and
// instrumentation on top of it.
func (c *Container) provideNoteRepository(ctx context.Context) (ports.NoteRepository, error) {
	cfg := c.Config

	var repo ports.NoteRepository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		repo = memory.NewNoteRepository()

	case config.DriverSQLite, config.DriverPostgres:
		driver, dsn := sqlstore.DriverPostgres, cfg.Database.URL
		if cfg.Database.Driver == config.DriverSQLite {
			driver, dsn = sqlstore.DriverSQLite, cfg.Database.SQLitePath
		}
		db, dialect, err := sqlstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		c.onShutdown(func(context.Context) error { return db.Close() })

		if cfg.Database.MigrateOnStart {
			applied, err := sqlstore.NewMigrator(db, dialect, c.Logger).Migrate(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			if len(applied) > 0 {
				c.Logger.Info("Applied migrations", zap.Strings("versions", applied))
			}
		}
		repo = sqlstore.NewNoteRepository(db, dialect)

	case config.DriverDynamoDB:
		awsCfg, err := ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		repo = dynamodb.NewNoteRepository(awsdynamodb.NewFromConfig(awsCfg), cfg.Database.DynamoDBTable, c.Logger)

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if c.Redis != nil {
		repo = cache.NewNoteRepository(repo, c.Redis, cfg.Redis.CacheTTL, c.Logger, c.Metrics)
	}
	return observability.TraceRepository(repo, c.Tracer, c.Metrics), nil
}

// provideEventPublisher sends events to EventBridge when a bus is
// configured and logs them otherwise.
func (c *Container) provideEventPublisher(ctx context.Context) (ports.EventPublisher, error) {
	if c.Config.Events.BusName == "" {
		return messaging.NewLogPublisher(c.Logger), nil
	}
	awsCfg, err := ProvideAWSConfig(ctx, c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), c.Config.Events.BusName, c.Logger), nil
}

// provideLLM returns the model provider behind a circuit breaker.
func (c *Container) provideLLM() ports.LLMProvider {
	cfg := c.Config.AI

	var provider ports.LLMProvider
	if cfg.UseMock {
		c.Logger.Warn("No OpenAI API key configured, using the mock AI provider")
		provider = NewDevelopmentProvider()
	} else {
		c.openai = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:         cfg.APIKey,
			OrganizationID: cfg.OrganizationID,
			Model:          cfg.Model,
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.Timeout,
		}, c.Logger)
		provider = c.openai
	}
	return llm.NewBreakerProvider(provider, llm.DefaultBreakerConfig("openai"), c.Logger)
}

// NewDevelopmentProvider answers every prompt with a labelled echo of the
// input, enough to drive the client end to end without a model.
func NewDevelopmentProvider() *llm.MockProvider {
	return &llm.MockProvider{Respond: func(req ports.CompletionRequest) (string, error) {
		text := req.UserPrompt
		if _, body, ok := strings.Cut(text, "\n\n"); ok {
			text = body
		}
		return fmt.Sprintf("[%s] %s", req.Operation, text), nil
	}}
}

// ProvideJWTValidator picks RS256 when a public key is configured and HS256
// otherwise.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	jwtCfg := auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.Auth.JWTSecret,
		Issuer:        cfg.Auth.Issuer,
	}
	if cfg.Auth.JWTPublicKey != "" {
		jwtCfg.SigningMethod = "RS256"
		jwtCfg.PublicKey = cfg.Auth.JWTPublicKey
	}
	if cfg.Auth.Audience != "" {
		jwtCfg.Audience = []string{cfg.Auth.Audience}
	}

	validator, err := auth.NewJWTValidator(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}
	return validator, nil
}

// ProvideAIRateLimiter shares limits across instances through Redis when
// available and keeps them in process otherwise.
func ProvideAIRateLimiter(cfg *config.Config, client *redis.Client) auth.RateLimiter {
	if client != nil {
		return ratelimit.NewRedisLimiter(client, cfg.AI.RateLimit, cfg.AI.RateWindow)
	}
	return auth.NewSlidingWindowLimiter(cfg.AI.RateLimit, cfg.AI.RateWindow)
}
