// Package api provides the HTTP API server and handlers for Larder.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/http/response"
	"github.com/larderapp/larder-server/internal/media/images"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/ratelimit"
	"github.com/larderapp/larder-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	media           *images.Storage
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
	maxUploadBytes  int64
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st store.Store,
	services *Services,
	media *images.Storage,
	cfg *config.Config,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:          st,
		services:       services,
		media:          media,
		router:         router,
		logger:         logger,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if cfg.Server.AuthRequestsPerMinute > 0 {
		s.authRateLimiter = ratelimit.PerMinute(cfg.Server.AuthRequestsPerMinute, cfg.Server.AuthBurst)
	}

	// chi requires all middleware before the first route, and humachi.New
	// registers the docs routes immediately.
	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Larder API", APIVersion)
	humaConfig.Info.Description = "Recipes, tags and ingredients for each user."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.Server.RequestsPerMinute > 0 {
		s.router.Use(httprate.Limit(
			cfg.Server.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				metrics.RecordRateLimitHit("global")
				s.logger.Warn("rate limit exceeded", "ip", r.RemoteAddr, "path", r.URL.Path)
				response.TooManyRequests(w, "Too many requests. Please try again later.", 0, s.logger)
			}),
		))
	}
	s.router.Use(authMiddleware(s.services.Auth))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", s.logger)
	})
}

// setupRoutes registers every huma operation and the plain chi handlers.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerRecipeImageRoutes()
	s.registerLabelRoutes(s.services.Tag, labelRoute{
		plural:   "tags",
		singular: "tag",
		opSuffix: "Tag",
		group:    "Tags",
	})
	s.registerLabelRoutes(s.services.Ingredient, labelRoute{
		plural:   "ingredients",
		singular: "ingredient",
		opSuffix: "Ingredient",
		group:    "Ingredients",
	})
	s.registerMediaRoutes()

	s.router.Handle("/metrics", promhttp.Handler())
}
