package middleware

import (
	"net/http"
	"strconv"
	"time"

	"maswada-backend/pkg/auth"
	appErrors "maswada-backend/pkg/errors"

	"go.uber.org/zap"
)

type limitDescriber interface {
	Limit() int
	Window() time.Duration
}

// RateLimitUser limits authenticated callers per user id. Limiter failures
// let the request through.
func RateLimitUser(limiter auth.RateLimiter, scope string, errs *appErrors.ErrorHandler, onLimited func(scope string), logger *zap.Logger) func(next http.Handler) http.Handler {
	limit, window := 0, time.Minute
	if d, ok := limiter.(limitDescriber); ok {
		limit, window = d.Limit(), d.Window()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, appErrors.NewUnauthorizedError(""))
				return
			}

			allowed, err := limiter.Allow(r.Context(), scope+":"+user.UserID)
			if err != nil {
				logger.Error("Rate limiter error", zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if onLimited != nil {
					onLimited(scope)
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				errs.Handle(w, r, appErrors.NewRateLimitError(limit, window.String()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps request bodies at maxBytes.
func BodyLimit(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
