package handlers

import (
	"context"
	"net/http"
	"time"

	"maswada-backend/pkg/api"
	"maswada-backend/pkg/auth"
	appErrors "maswada-backend/pkg/errors"

	"go.uber.org/zap"
)

// SystemHandler serves health probes and the identity echo.
type SystemHandler struct {
	ping   func(ctx context.Context) error
	errs   *appErrors.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

// NewSystemHandler creates the handler. ping may be nil.
func NewSystemHandler(ping func(ctx context.Context) error, errs *appErrors.ErrorHandler, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{ping: ping, errs: errs, logger: logger, now: time.Now}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready handles GET /ready
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			api.Success(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Me handles GET /api/auth/me
func (h *SystemHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errs.Handle(w, r, appErrors.NewUnauthorizedError(""))
		return
	}
	api.Success(w, http.StatusOK, map[string]string{
		"message":   "Authentication successful",
		"userId":    user.UserID,
		"sessionId": user.SessionID,
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}
