package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/config"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
	"github.com/resumeforge/resumeforge/internal/server/handlers"
	servermw "github.com/resumeforge/resumeforge/internal/server/middleware"
)

// Dependencies are the collaborators the HTTP surface is built from. The
// limiter is owned by the caller and shared with anything else that needs it
// (the janitor, admin tooling).
type Dependencies struct {
	Limiter *ratelimit.Limiter
	Stats   ratelimit.StatsRecorder
	Tailor  handlers.Tailorer
	Health  *handlers.HealthManager
	Clock   func() time.Time

	// AdminToken enables POST /admin/signal when set.
	AdminToken string
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	deps   Dependencies
	stats  *ratelimit.AsyncStats
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, deps Dependencies) *Server {
	r := chi.NewRouter()

	// Proxy headers are only trusted when explicitly configured; otherwise a
	// client could pick its own limiter identity.
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", servermw.RequestIDHeader},
			ExposedHeaders:   []string{"Retry-After", "Content-Disposition", servermw.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// chi runs middleware in registration order, so Recovery is the innermost
	// wrapper and a panic is turned into a 500 before ErrorHandler and
	// RequestMetrics see the response.
	r.Use(servermw.RequestID)      // correlation ID for everything below
	r.Use(servermw.RequestMetrics) // counts every response, including 429s and recovered panics
	r.Use(servermw.ErrorHandler)
	r.Use(servermw.Recovery)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed(r))

	var async *ratelimit.AsyncStats
	switch stats := deps.Stats.(type) {
	case nil, ratelimit.NopStats:
	case *ratelimit.AsyncStats:
		async = stats
	default:
		async = ratelimit.NewAsyncStats(stats, ratelimit.WithAsyncErrorHandler(logStatsError))
		deps.Stats = async
	}

	s := &Server{
		router: r,
		cfg:    cfg,
		deps:   deps,
		stats:  async,
	}

	// Register routes
	s.registerRoutes()

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.Addr()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       durationOr(s.cfg.ReadTimeout, 30*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      durationOr(s.cfg.WriteTimeout, 90*time.Second),
		IdleTimeout:       durationOr(s.cfg.IdleTimeout, 120*time.Second),
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.cfg.Host),
			zap.Int("port", s.cfg.Port),
			zap.String("addr", addr),
			zap.Bool("trust_proxy", s.cfg.TrustProxy))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("Shutting down HTTP server")
		}
		err = s.server.Shutdown(ctx)
	}
	// Handlers are done; flush queued stats events.
	if s.stats != nil {
		if closeErr := s.stats.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
		if dropped := s.stats.Dropped(); dropped > 0 && observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Rate limit stats events dropped", zap.Int64("dropped", dropped))
		}
	}
	return err
}

func logStatsError(err error) {
	if logger := observability.ServerLogger; logger != nil {
		logger.Warn("rate limit stats record failed", zap.Error(err))
	}
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.cfg.Port
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
