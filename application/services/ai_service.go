package services

import (
	"context"
	"time"

	"maswada-backend/application/ai"
	"maswada-backend/application/ports"
	appErrors "maswada-backend/pkg/errors"

	"go.uber.org/zap"
)

const errNoSource = "Either noteId or text must be provided"

// AIInput names the text to operate on: a stored note, literal text, or
// both, in which case the note wins.
type AIInput struct {
	NoteID *string
	Text   *string
}

// AIService resolves the text for an AI operation and runs it through the
// gateway. Results are returned, never stored.
type AIService struct {
	notes   *NoteService
	gateway *ai.Gateway
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewAIService creates the service. metrics may be nil.
func NewAIService(notes *NoteService, gateway *ai.Gateway, metrics ports.Metrics, logger *zap.Logger) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &AIService{notes: notes, gateway: gateway, metrics: metrics, logger: logger}
}

func (s *AIService) resolveText(ctx context.Context, ownerID, operation string, in AIInput) (string, error) {
	hasNote := in.NoteID != nil && *in.NoteID != ""
	hasText := in.Text != nil && *in.Text != ""
	if !hasNote && !hasText {
		return "", appErrors.NewValidationError(errNoSource).
			WithDetails(appErrors.FieldError{Path: "", Message: errNoSource})
	}

	text := ""
	if hasText {
		text = *in.Text
	}
	if hasNote {
		n, err := s.notes.Get(ctx, *in.NoteID, ownerID)
		if err != nil {
			return "", err
		}
		text = n.Content
	}

	if text == "" {
		return "", appErrors.NewNoTextError(operation)
	}
	return text, nil
}

func (s *AIService) run(ctx context.Context, ownerID, operation string, in AIInput, call func(text string) (string, error)) (string, error) {
	text, err := s.resolveText(ctx, ownerID, operation, in)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := call(text)
	s.metrics.AIOperation(operation, time.Since(start), err)
	if err != nil {
		return "", err
	}

	s.logger.Info("AI operation completed",
		zap.String("operation", operation),
		zap.String("user_id", ownerID),
		zap.Int("input_length", len(text)),
		zap.Int("output_length", len(result)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Summarize returns a summary of the resolved text.
func (s *AIService) Summarize(ctx context.Context, ownerID string, in AIInput) (string, error) {
	return s.run(ctx, ownerID, ai.OpSummarize, in, func(text string) (string, error) {
		return s.gateway.Summarize(ctx, text)
	})
}

// Rewrite restyles the resolved text.
func (s *AIService) Rewrite(ctx context.Context, ownerID string, in AIInput, mode ai.RewriteMode) (string, error) {
	return s.run(ctx, ownerID, ai.OpRewrite, in, func(text string) (string, error) {
		return s.gateway.Rewrite(ctx, text, mode)
	})
}

// Translate translates the resolved text between English and Arabic.
func (s *AIService) Translate(ctx context.Context, ownerID string, in AIInput, target ai.TargetLanguage) (string, error) {
	s.logger.Debug("Translate requested", zap.String("target", string(target)))
	return s.run(ctx, ownerID, ai.OpTranslate, in, func(text string) (string, error) {
		return s.gateway.Translate(ctx, text, target)
	})
}
