// Package devserver is a local stand-in for the task, ask and identity
// backends, for exercising the CLI end to end.
package devserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/todoask/internal/health"
	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
	"github.com/felixgeelhaar/todoask/internal/version"
)

// Server serves the development API.
type Server struct {
	httpServer      *http.Server
	router          chi.Router
	tasks           TaskStore
	answerer        Answerer
	issuer          *TokenIssuer
	authenticate    Authenticator
	apiDoc          *openapi3.T
	logger          *log.Logger
	metrics         *metrics.Metrics
	registry        prometheus.Gatherer
	now             func() time.Time
	probes          *health.Probes
	shutdownTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	// Address is the listen address (e.g., ":8000", "127.0.0.1:8000")
	Address string

	// ShutdownTimeout is the maximum time to wait for connections to drain during shutdown.
	// Defaults to 30 seconds if not specified.
	ShutdownTimeout time.Duration

	// ReadTimeout defaults to 10 seconds.
	ReadTimeout time.Duration

	// WriteTimeout defaults to 2 minutes, long enough for model calls.
	WriteTimeout time.Duration

	// IdleTimeout defaults to 60 seconds.
	IdleTimeout time.Duration

	// TokenTTL is the lifetime of issued ID tokens. Defaults to 1 hour.
	TokenTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithAnswerer replaces the default EchoAnswerer.
func WithAnswerer(a Answerer) Option {
	return func(s *Server) {
		if a != nil {
			s.answerer = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics and serves reg on /metrics.
func WithMetrics(m *metrics.Metrics, reg prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.registry = reg
	}
}

// WithTaskStore replaces the default in-memory store.
func WithTaskStore(ts TaskStore) Option {
	return func(s *Server) {
		if ts != nil {
			s.tasks = ts
		}
	}
}

// WithUsers restricts sign-in to the given username to bcrypt hash map.
// An empty map keeps the default of accepting anyone.
func WithUsers(users map[string]string) Option {
	return func(s *Server) {
		if len(users) > 0 {
			s.authenticate = BcryptUsers(users)
		}
	}
}

// WithReadinessCheck adds a dependency check to /readyz.
func WithReadinessCheck(c health.Checker) Option {
	return func(s *Server) { s.probes.Register(c) }
}

// WithClock overrides the time source for token checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a development server.
func New(cfg Config, opts ...Option) *Server {
	// Set defaults
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}

	s := &Server{
		tasks:           NewMemoryStore(),
		probes:          health.NewProbes(version.Version),
		answerer:        EchoAnswerer{},
		logger:          log.DefaultLogger(),
		now:             time.Now,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("devserver")
	s.probes.Register(storeCheck(s.tasks))
	if doc, err := LoadAPIDoc(context.Background()); err != nil {
		s.logger.WithError(err).Error("request validation disabled")
	} else {
		s.apiDoc = doc
	}
	s.issuer = NewTokenIssuer("todoask-devserver", cfg.TokenTTL, s.now, s.authenticate)
	s.router = s.routes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/openapi.yaml", serveAPIDoc)
	r.Post("/oauth2/token", s.issuer.ServeHTTP)
	if s.registry != nil {
		r.Handle("/metrics", metrics.Handler(s.registry))
	}

	r.Group(func(r chi.Router) {
		r.Use(requireBearer(s.now))
		if s.apiDoc != nil {
			r.Use(validateRequests(s.apiDoc))
		}
		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.addTask)
		r.Put("/tasks/{id}", s.updateTask)
		r.Delete("/tasks/{id}", s.deleteTask)
		r.Post("/ask", s.ask)
	})

	return r
}

// observe logs and counts every request by its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"client_request_id", r.Header.Get("X-Request-ID"),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tasks returns the task store.
func (s *Server) Tasks() TaskStore {
	return s.tasks
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server is stopped or encounters an error.
// Returns http.ErrServerClosed when the server is shut down gracefully.
func (s *Server) Start() error {
	s.logger.Info("listening", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections, waiting at most ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.probes.Drain()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.tasks.Close(); err != nil {
		return fmt.Errorf("failed to close task store: %w", err)
	}
	return nil
}
