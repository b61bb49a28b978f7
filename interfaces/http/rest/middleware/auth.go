package middleware

import (
	"errors"
	"net/http"
	"strings"

	"maswada-backend/pkg/api"
	"maswada-backend/pkg/auth"

	"go.uber.org/zap"
)

// Authenticate verifies the bearer token and puts the caller's identity in
// the request context. The owner id always comes from the token subject.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				api.Unauthorized(w, "Missing or invalid authorization header", "Please provide a valid Bearer token")
				return
			}
			token = strings.TrimSpace(token)
			if token == "" {
				api.Unauthorized(w, "Invalid token", "Token verification failed")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Token verification failed",
					zap.Error(err),
					zap.String("path", r.URL.Path))

				if errors.Is(err, auth.ErrExpiredToken) {
					api.Unauthorized(w, "Token expired", "Your session has expired. Please sign in again.")
					return
				}
				api.Unauthorized(w, "Invalid token", "Token verification failed")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:    claims.UserID,
				SessionID: claims.SessionID,
				Email:     claims.Email,
			})

			logger.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
