package rest

import (
	"context"
	"net/http"

	"maswada-backend/application/services"
	"maswada-backend/infrastructure/config"
	"maswada-backend/infrastructure/di"
	"maswada-backend/infrastructure/observability"
	"maswada-backend/interfaces/http/rest/handlers"
	"maswada-backend/interfaces/http/rest/middleware"
	"maswada-backend/interfaces/http/validation"
	"maswada-backend/pkg/auth"
	appErrors "maswada-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Dependencies is everything the router needs. Metrics and Ping are
// optional.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	NoteService   *services.NoteService
	AIService     *services.AIService
	JWTValidator  *auth.JWTValidator
	AIRateLimiter auth.RateLimiter
	Metrics       *observability.Collector
	Ping          func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	deps   Dependencies
	errs   *appErrors.ErrorHandler
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debug := deps.Config != nil && deps.Config.Environment == config.Development
	return &Router{
		deps:   deps,
		errs:   appErrors.NewErrorHandler(logger, debug),
		logger: logger,
	}
}

// NewRouterFromContainer wires a router from an initialized container.
func NewRouterFromContainer(c *di.Container) *Router {
	return NewRouter(Dependencies{
		Config:        c.Config,
		Logger:        c.Logger,
		NoteService:   c.NoteService,
		AIService:     c.AIService,
		JWTValidator:  c.JWTValidator,
		AIRateLimiter: c.AIRateLimiter,
		Metrics:       c.Metrics,
		Ping:          c.Ping,
	})
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	cfg := rt.deps.Config
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if cfg.Features.EnableTracing {
		router.Use(observability.TracingMiddleware(cfg.Tracing.ServiceName))
	}
	if rt.deps.Metrics != nil {
		router.Use(observability.MetricsMiddleware(rt.deps.Metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORS.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.Server.MaxRequestSize))

	system := handlers.NewSystemHandler(rt.deps.Ping, rt.errs, rt.logger)
	router.Get("/health", system.Health)
	router.Get("/ready", system.Ready)
	if rt.deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())
	}

	v := validation.New()
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.deps.JWTValidator, rt.logger))

		r.Get("/auth/me", system.Me)

		r.Route("/notes", func(r chi.Router) {
			h := handlers.NewNoteHandler(rt.deps.NoteService, rt.errs, v, rt.logger)
			r.Get("/", h.ListNotes)
			r.Post("/", h.CreateNote)
			r.Get("/{id}", h.GetNote)
			r.Patch("/{id}", h.UpdateNote)
			r.Delete("/{id}", h.DeleteNote)
		})

		r.Route("/ai", func(r chi.Router) {
			if rt.deps.AIRateLimiter != nil {
				r.Use(middleware.RateLimitUser(rt.deps.AIRateLimiter, "ai", rt.errs, rt.onLimited, rt.logger))
			}
			h := handlers.NewAIHandler(rt.deps.AIService, rt.errs, v, rt.logger)
			r.Post("/summarize", h.Summarize)
			r.Post("/rewrite", h.Rewrite)
			r.Post("/translate", h.Translate)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

func (rt *Router) onLimited(scope string) {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RateLimited.WithLabelValues(scope).Inc()
	}
}
