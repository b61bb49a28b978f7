package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maswada-backend/application/ports"
	"maswada-backend/infrastructure/llm"
	appErrors "maswada-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSanitize(t *testing.T) {
	t.Run("Example", func(t *testing.T) {
		assert.Equal(t, "ab c\n\nd", Sanitize("a\x00b   c\n\n\n\nd"))
	})

	t.Run("KeepsTabsAndCarriageReturns", func(t *testing.T) {
		assert.Equal(t, "a\tb\r\nc", Sanitize("a\tb\r\nc"))
	})

	t.Run("StripsZeroWidth", func(t *testing.T) {
		assert.Equal(t, "ab", Sanitize("a\u200Bb\uFEFF"))
		assert.Equal(t, "ab", Sanitize("\u200Ca\u200Db"))
	})

	t.Run("NormalizesToNFC", func(t *testing.T) {
		// e + combining acute accent composes to U+00E9
		assert.Equal(t, "caf\u00e9", Sanitize("cafe\u0301"))
	})

	t.Run("ComposesAcrossZeroWidth", func(t *testing.T) {
		assert.Equal(t, "\u00e9", Sanitize("e\u200B\u0301"))
		assert.Equal(t, "caf\u00e9 bar", Sanitize("cafe\uFEFF\u0301 \u200Cbar"))
	})

	t.Run("KeepsArabic", func(t *testing.T) {
		assert.Equal(t, "مرحبا بالعالم", Sanitize("  مرحبا   بالعالم \n"))
	})

	t.Run("WhitespaceOnlyIsEmpty", func(t *testing.T) {
		assert.Equal(t, "", Sanitize(" \n\n\t \x01 "))
	})

	t.Run("Idempotent", func(t *testing.T) {
		inputs := []string{
			"a\x00b   c\n\n\n\nd",
			"  x \u200B  y\n\n\n",
			"cafe\u0301\x7f",
			"e\u200B\u0301",
			"a\u200D\u0308\u200B\u0301",
			"line\n \n \n \nline",
			"",
			"\u0645\u0631\u062d\u0628\u0627\u200D  \n\n\n\n\u0639\u0627\u0644\u0645",
		}
		for _, in := range inputs {
			once := Sanitize(in)
			assert.Equal(t, once, Sanitize(once), "input %q", in)
		}
	})
}

func TestGatewaySummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("BuildsPrompt", func(t *testing.T) {
		mock := llm.NewMockProvider("  A short summary.\n")
		g := NewGateway(mock, nil)

		out, err := g.Summarize(ctx, "Long   text\x00 here")
		require.NoError(t, err)
		assert.Equal(t, "A short summary.", out)

		reqs := mock.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, OpSummarize, reqs[0].Operation)
		assert.Equal(t, "You are a helpful assistant that summarizes text concisely. Always respond in the same language as the input text.", reqs[0].SystemPrompt)
		assert.Equal(t, "Please summarize the following text:\n\nLong text here", reqs[0].UserPrompt)
		assert.Equal(t, 500, reqs[0].MaxTokens)
	})

	t.Run("EmptyInputSkipsProvider", func(t *testing.T) {
		mock := llm.NewMockProvider("never")
		g := NewGateway(mock, nil)

		_, err := g.Summarize(ctx, "\u200B \n\n ")
		assert.True(t, appErrors.IsEmptyInput(err))
		assert.Equal(t, 0, mock.Calls())
	})

	t.Run("ProviderErrorWrapsCause", func(t *testing.T) {
		cause := errors.New("connection reset")
		g := NewGateway(&llm.MockProvider{Err: cause}, nil)

		_, err := g.Summarize(ctx, "text")
		require.Error(t, err)
		assert.True(t, appErrors.IsProvider(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, OpSummarize, appErrors.GetAppError(err).Operation)
	})

	t.Run("BlankResultFails", func(t *testing.T) {
		g := NewGateway(llm.NewMockProvider(" \n "), nil)

		_, err := g.Summarize(ctx, "text")
		assert.True(t, appErrors.IsEmptyResult(err))
	})

	t.Run("NoChoicesIsEmptyResult", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"id": "x", "choices": []}`)
		}))
		defer srv.Close()
		g := NewGateway(llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: "sk", BaseURL: srv.URL}, nil), nil)

		_, err := g.Summarize(ctx, "text")
		assert.True(t, appErrors.IsEmptyResult(err))
		assert.False(t, appErrors.IsProvider(err))
	})
}

func TestGatewayRewrite(t *testing.T) {
	ctx := context.Background()
	instructions := map[RewriteMode]string{
		ModeShorter: "Make it more concise and brief while keeping all the main points.",
		ModeClearer: "Make it clearer and easier to understand, improving readability.",
		ModeFormal:  "Rewrite it in a formal, professional tone.",
		ModeCasual:  "Rewrite it in a casual, conversational tone.",
	}

	for mode, instruction := range instructions {
		t.Run(string(mode), func(t *testing.T) {
			mock := llm.NewMockProvider("rewritten")
			g := NewGateway(mock, nil)

			out, err := g.Rewrite(ctx, "hello", mode)
			require.NoError(t, err)
			assert.Equal(t, "rewritten", out)

			req := mock.Requests()[0]
			assert.Equal(t, "You are a helpful assistant that rewrites text. "+instruction+" Always respond in the same language as the input text.", req.SystemPrompt)
			assert.Equal(t, "Please rewrite the following text:\n\nhello", req.UserPrompt)
			assert.Equal(t, 1000, req.MaxTokens)
		})
	}

	t.Run("UnknownModeIsValidationError", func(t *testing.T) {
		mock := llm.NewMockProvider("x")
		g := NewGateway(mock, nil)

		_, err := g.Rewrite(ctx, "hello", RewriteMode("poetic"))
		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, 0, mock.Calls())
	})
}

func TestGatewayTranslate(t *testing.T) {
	ctx := context.Background()

	t.Run("PromptIsBidirectional", func(t *testing.T) {
		mock := &llm.MockProvider{Respond: func(req ports.CompletionRequest) (string, error) {
			if req.UserPrompt == "مرحبا" {
				return "Hello", nil
			}
			return "", nil
		}}
		g := NewGateway(mock, nil)

		out, err := g.Translate(ctx, "مرحبا", TargetEnglish)
		require.NoError(t, err)
		assert.Equal(t, "Hello", out)

		req := mock.Requests()[0]
		assert.Equal(t, 2000, req.MaxTokens)
		assert.True(t, strings.Contains(req.SystemPrompt, "If it's in English, translate it to Arabic."))
		assert.True(t, strings.Contains(req.SystemPrompt, "If it's in Arabic, translate it to English."))

		_, err = g.Translate(ctx, "مرحبا", TargetArabic)
		require.NoError(t, err)
		assert.Equal(t, req.SystemPrompt, mock.Requests()[1].SystemPrompt)
	})

	t.Run("TargetIsOptional", func(t *testing.T) {
		mock := llm.NewMockProvider("Hello")
		g := NewGateway(mock, nil)

		out, err := g.Translate(ctx, "مرحبا", "")
		require.NoError(t, err)
		assert.Equal(t, "Hello", out)
		assert.Equal(t, translateSystemPrompt, mock.Requests()[0].SystemPrompt)
	})

	t.Run("TargetRecordedOnSpan", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		defer tp.Shutdown(ctx)
		mock := llm.NewMockProvider("Hello")
		g := NewGateway(mock, nil)
		g.tracer = tp.Tracer("test")

		_, err := g.Translate(ctx, "مرحبا", TargetArabic)
		require.NoError(t, err)
		_, err = g.Translate(ctx, "مرحبا", "")
		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		assert.Contains(t, spans[0].Attributes(), attribute.String("ai.target", "ar"))
		assert.Contains(t, spans[1].Attributes(), attribute.String("ai.target", "auto"))
		for _, req := range mock.Requests() {
			assert.Equal(t, "مرحبا", req.UserPrompt)
		}
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		g := NewGateway(llm.NewMockProvider("x"), nil)
		_, err := g.Translate(ctx, "hello", TargetLanguage("fr"))
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("EmptyInput", func(t *testing.T) {
		g := NewGateway(llm.NewMockProvider("x"), nil)
		_, err := g.Translate(ctx, "   ", TargetArabic)
		assert.True(t, appErrors.IsEmptyInput(err))
	})
}
