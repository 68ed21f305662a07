package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"3tcapital/ms_emision_dian/internal/infrastructure/config"
	httperrors "3tcapital/ms_emision_dian/internal/infrastructure/http"
	"3tcapital/ms_emision_dian/internal/infrastructure/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	DocumentsPath = "/api/v1/documentos/{typeDocumentId}"
	SOAPPath      = "/soap/emision"
	HealthPath    = "/health"
)

// Server wires the router, middleware and handlers behind an http.Server.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	auth            *middleware.JWTAuthenticator
	shutdownTimeout time.Duration
}

// Options configures the server. Nil submission handlers answer 503.
// A nil MetricsHandler leaves the metrics path unrouted.
type Options struct {
	Config           config.AppConfig
	Logger           *slog.Logger
	HealthHandler    http.Handler
	DocumentsHandler http.Handler
	SOAPHandler      http.Handler
	MetricsHandler   http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, HealthPath, opts.HealthHandler)
	if opts.MetricsHandler != nil && opts.Config.Metrics.Path != "" {
		r.Method(http.MethodGet, opts.Config.Metrics.Path, opts.MetricsHandler)
	}
	r.Method(http.MethodPost, DocumentsPath, orUnavailable(opts.DocumentsHandler, opts.Logger))
	r.Method(http.MethodPost, SOAPPath, orUnavailable(opts.SOAPHandler, opts.Logger))

	httpCfg := opts.Config.HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", httpCfg.Port),
		Handler:      r,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	return &Server{
		log:             opts.Logger,
		httpServer:      srv,
		auth:            auth,
		shutdownTimeout: httpCfg.ShutdownTimeout,
	}, nil
}

func orUnavailable(h http.Handler, log *slog.Logger) http.Handler {
	if h != nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no disponible", []string{"handler not configured"}, log)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		timeout := s.shutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.log.Info("HTTP server shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the JWKS refresher.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
