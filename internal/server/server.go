// Package server exposes registry checking over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/crosscheck/internal/logging"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/ppiankov/crosscheck/internal/worker"
	"go.uber.org/zap"
)

const (
	// multipartOverhead is allowed on top of the upload limit for the
	// form boundaries and the kind field
	multipartOverhead = 1 << 20
	shutdownTimeout   = 10 * time.Second
	limiterIdle       = 10 * time.Minute
)

// Checker checks one uploaded registry
type Checker interface {
	CheckReader(ctx context.Context, name string, src io.Reader, kind model.RecordKind) (*model.Report, error)
}

// Lister lists the authority/agency reference table
type Lister interface {
	List(category string) []model.AuthorityAgency
}

// Server is the HTTP boundary of the checker
type Server struct {
	checker  Checker
	catalog  *rules.Catalog
	lookup   Lister
	cfg      model.ServerConfig
	maxBytes int64
	limiter  *worker.Limiter
	logger   *zap.Logger
	router   *chi.Mux
}

// Option configures a Server
type Option func(*Server)

// WithLookup exposes the reference table on /api/v1/lookup
func WithLookup(l Lister) Option {
	return func(s *Server) {
		s.lookup = l
	}
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server. maxBytes bounds an uploaded file (0 is unlimited).
func New(checker Checker, catalog *rules.Catalog, cfg model.ServerConfig, maxBytes int64, opts ...Option) *Server {
	s := &Server{
		checker:  checker,
		catalog:  catalog,
		cfg:      cfg,
		maxBytes: maxBytes,
		logger:   zap.NewNop(),
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = rules.DefaultCatalog()
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Get("/lookup", s.handleLookup)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			if s.cfg.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.cfg.RequestTimeout))
			}
			r.Post("/check", s.handleCheck)
		})
	})
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.ReadTimeout,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	prune := time.NewTicker(time.Minute)
	defer prune.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-prune.C:
			if s.limiter != nil {
				s.limiter.Prune(limiterIdle)
			}
		case <-ctx.Done():
			s.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		}
	}
}

// requestLogger logs each request with its chi request id
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context(), s.logger).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// rateLimit rejects clients over their per-address budget
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
