// Package api provides the HTTP API server and handlers for affectlab.
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

	"github.com/affectlab/affectlab-server/internal/ratelimit"
)

// Options configures the HTTP surface.
type Options struct {
	Version            string
	AllowedOrigins     []string
	MaxUploadBytes     int64
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	artifacts ArtifactOpener
	db        Pinger
	opts      Options
	router    *chi.Mux
	api       huma.API
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, artifacts ArtifactOpener, db Pinger, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = MaxUploadSize
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	router := chi.NewRouter()
	s := &Server{
		services:  services,
		artifacts: artifacts,
		db:        db,
		opts:      opts,
		router:    router,
		limiter:   ratelimit.PerMinute(opts.RateLimitPerMinute, opts.RateLimitBurst),
		logger:    logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("affectlab API", opts.Version)
	humaConfig.Info.Description = "Affect-rating scaling and word-frequency analysis."
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

// API exposes the huma API (OpenAPI document, tests).
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           int((time.Hour).Seconds()),
	}))
	s.router.Use(securityHeaders)

	// Body cap and per-IP limiting apply to the API surface only.
	s.router.Use(forPrefix(apiPrefix, bodyLimit(s.opts.MaxUploadBytes)))
	s.router.Use(forPrefix(apiPrefix, RateLimitMiddleware(s.limiter, s.logger)))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerWordFrequencyRoutes()
	s.registerScalingRoutes()
	s.registerAnalyzeRoutes()

	// Multipart upload and file download stay plain chi handlers.
	s.router.Post(apiPrefix+"scaling/upload", s.handleScalingUpload)
	s.router.Get("/output/*", s.handleDownload)
}
