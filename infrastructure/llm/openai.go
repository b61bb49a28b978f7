// Package llm provides language model providers for the AI gateway.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"maswada-backend/application/ports"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-5-mini"

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey         string
	OrganizationID string
	Model          string
	BaseURL        string
	Timeout        time.Duration
}

// OpenAIProvider completes prompts through the chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	logger *zap.Logger

	mu    sync.RWMutex
	model string

	available bool
}

// NewOpenAIProvider creates a provider. Without an API key the provider
// reports itself unavailable.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.OrgID = cfg.OrganizationID
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		logger:    logger,
		model:     cfg.Model,
		available: cfg.APIKey != "",
	}
}

// Model returns the model currently in use.
func (p *OpenAIProvider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// SetModel switches the model for subsequent requests.
func (p *OpenAIProvider) SetModel(model string) {
	if model == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

// IsAvailable reports whether an API key was configured.
func (p *OpenAIProvider) IsAvailable() bool {
	return p.available
}

// Complete sends one system and one user message and returns the first choice.
func (p *OpenAIProvider) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := p.Model()
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxCompletionTokens: req.MaxTokens,
	})
	if err != nil {
		p.logger.Warn("Chat completion failed",
			zap.String("operation", req.Operation),
			zap.String("model", model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		p.logger.Warn("Chat completion returned no choices",
			zap.String("operation", req.Operation),
			zap.String("model", model))
		return "", nil
	}

	if reason := resp.Choices[0].FinishReason; reason != openai.FinishReasonStop {
		p.logger.Warn("Unusual finish reason",
			zap.String("operation", req.Operation),
			zap.String("finish_reason", string(reason)))
	}

	p.logger.Debug("Chat completion finished",
		zap.String("operation", req.Operation),
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}
