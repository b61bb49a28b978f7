package handlers

import (
	"net/http"

	"maswada-backend/application/ai"
	"maswada-backend/application/services"
	"maswada-backend/interfaces/http/validation"
	"maswada-backend/pkg/api"
	appErrors "maswada-backend/pkg/errors"

	"go.uber.org/zap"
)

// AIHandler exposes the text operations. Results are returned to the
// caller and never stored.
type AIHandler struct {
	base
	ai     *services.AIService
	logger *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(svc *services.AIService, errs *appErrors.ErrorHandler, v *validation.Validator, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		base:   base{errs: errs, validator: v},
		ai:     svc,
		logger: logger,
	}
}

// SummarizeRequest names a note or literal text.
type SummarizeRequest struct {
	NoteID *string `json:"noteId" validate:"omitempty,uuid"`
	Text   *string `json:"text" validate:"omitempty,min=1"`
}

// RewriteRequest adds the rewrite style.
type RewriteRequest struct {
	SummarizeRequest
	Mode string `json:"mode" validate:"required,oneof=shorter clearer formal casual"`
}

// TranslateRequest adds the optional target language. The model picks the
// direction from the input either way.
type TranslateRequest struct {
	SummarizeRequest
	Target string `json:"target" validate:"omitempty,oneof=en ar"`
}

type resultResponse struct {
	Result string `json:"result"`
}

func (req SummarizeRequest) input() services.AIInput {
	return services.AIInput{NoteID: req.NoteID, Text: req.Text}
}

func (h *AIHandler) respond(w http.ResponseWriter, r *http.Request, result string, err error) {
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, resultResponse{Result: result})
}

// Summarize handles POST /api/ai/summarize
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req SummarizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.ai.Summarize(r.Context(), owner, req.input())
	h.respond(w, r, result, err)
}

// Rewrite handles POST /api/ai/rewrite
func (h *AIHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req RewriteRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.ai.Rewrite(r.Context(), owner, req.input(), ai.RewriteMode(req.Mode))
	h.respond(w, r, result, err)
}

// Translate handles POST /api/ai/translate
func (h *AIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req TranslateRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.ai.Translate(r.Context(), owner, req.input(), ai.TargetLanguage(req.Target))
	h.respond(w, r, result, err)
}
