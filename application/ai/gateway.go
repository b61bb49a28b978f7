// Package ai turns note text into model prompts and model output into
// results. It owns sanitization, prompt wording and output checks; the
// provider behind it only moves bytes.
package ai

import (
	"context"
	"strings"

	"maswada-backend/application/ports"
	appErrors "maswada-backend/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Gateway performs summarize, rewrite and translate against an LLM provider.
type Gateway struct {
	provider ports.LLMProvider
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewGateway creates a gateway over provider.
func NewGateway(provider ports.LLMProvider, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		provider: provider,
		logger:   logger,
		tracer:   otel.Tracer("maswada-backend.application.ai"),
	}
}

// Summarize returns a summary in the language of text.
func (g *Gateway) Summarize(ctx context.Context, text string) (string, error) {
	clean := Sanitize(text)
	if clean == "" {
		return "", appErrors.NewEmptyInputError(OpSummarize)
	}
	return g.complete(ctx, ports.CompletionRequest{
		Operation:    OpSummarize,
		SystemPrompt: summarizeSystemPrompt,
		UserPrompt:   summarizeUserPrompt(clean),
		MaxTokens:    summarizeMaxTokens,
	}, len(text))
}

// Rewrite restyles text according to mode.
func (g *Gateway) Rewrite(ctx context.Context, text string, mode RewriteMode) (string, error) {
	if !mode.Valid() {
		return "", appErrors.NewValidationError("Invalid rewrite mode").
			WithDetails(appErrors.FieldError{Path: "mode", Message: "must be one of: shorter, clearer, formal, casual"})
	}
	clean := Sanitize(text)
	if clean == "" {
		return "", appErrors.NewEmptyInputError(OpRewrite)
	}
	return g.complete(ctx, ports.CompletionRequest{
		Operation:    OpRewrite,
		SystemPrompt: rewriteSystemPrompt(mode),
		UserPrompt:   rewriteUserPrompt(clean),
		MaxTokens:    rewriteMaxTokens,
	}, len(text), attribute.String("ai.mode", string(mode)))
}

// Translate swaps text between English and Arabic. The model detects the
// source language. A non-empty target must be en or ar; it is recorded on
// the span and does not change the prompt.
func (g *Gateway) Translate(ctx context.Context, text string, target TargetLanguage) (string, error) {
	if target != "" && !target.Valid() {
		return "", appErrors.NewValidationError("Invalid target language").
			WithDetails(appErrors.FieldError{Path: "target", Message: "must be one of: en, ar"})
	}
	clean := Sanitize(text)
	if clean == "" {
		return "", appErrors.NewEmptyInputError(OpTranslate)
	}
	return g.complete(ctx, ports.CompletionRequest{
		Operation:    OpTranslate,
		SystemPrompt: translateSystemPrompt,
		UserPrompt:   clean,
		MaxTokens:    translateMaxTokens,
	}, len(text), attribute.String("ai.target", target.orAuto()))
}

func (g *Gateway) complete(ctx context.Context, req ports.CompletionRequest, inputLen int, attrs ...attribute.KeyValue) (string, error) {
	attrs = append(attrs,
		attribute.String("ai.operation", req.Operation),
		attribute.Int("ai.input_length", inputLen),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	)
	ctx, span := g.tracer.Start(ctx, "Gateway."+req.Operation, trace.WithAttributes(attrs...))
	defer span.End()

	out, err := g.provider.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
		g.logger.Error("AI provider call failed",
			zap.String("operation", req.Operation),
			zap.Int("text_length", inputLen),
			zap.Error(err))
		return "", appErrors.NewProviderError(req.Operation, err)
	}

	result := strings.TrimSpace(out)
	if result == "" {
		span.SetStatus(codes.Error, "empty result")
		g.logger.Error("AI provider returned empty result",
			zap.String("operation", req.Operation))
		return "", appErrors.NewEmptyResultError(req.Operation)
	}

	span.SetAttributes(attribute.Int("ai.output_length", len(result)))
	return result, nil
}
