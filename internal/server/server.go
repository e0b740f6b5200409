// Package server exposes the verification surface over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"certdesign/internal/verify"
)

// Verifier is the part of verify.Service the server calls.
type Verifier interface {
	Details(ctx context.Context, certificateID string) (*verify.Details, error)
	Preview(ctx context.Context, certificateID string, maxWidth int, w io.Writer) error
	PDF(ctx context.Context, certificateID string, w io.Writer) error
	QR(ctx context.Context, certificateID string, w io.Writer) error
}

var _ Verifier = (*verify.Service)(nil)

type Config struct {
	Addr      string
	RateLimit float64
	RateBurst int

	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// header is believed. Entries that do not parse are logged and skipped.
	TrustedProxies []string
}

func DefaultConfig() Config {
	return Config{Addr: ":8080", RateLimit: 5, RateBurst: 30}
}

type Server struct {
	cfg       Config
	svc       Verifier
	log       *slog.Logger
	accessLog io.Writer
	health    func(context.Context) error
	limiter   *RateLimiter
	metrics   *metrics
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAccessLog writes Apache combined log lines for every request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// WithHealthCheck makes /healthz report unhealthy when check fails.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

func New(cfg Config, svc Verifier, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}

	s := &Server{
		cfg:     cfg,
		svc:     svc,
		log:     slog.Default(),
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range cfg.TrustedProxies {
		if err := s.limiter.TrustProxies(p); err != nil {
			s.log.Warn("ignoring trusted proxy", "err", err)
		}
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.limiter.Middleware)
	r.Use(s.metrics.middleware)

	r.Handle("/metrics", s.metrics.handler()).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	r.HandleFunc("/verify/{id}", s.handleDetails).Methods("GET")
	r.HandleFunc("/verify/{id}/preview.png", s.handlePreview).Methods("GET")
	r.HandleFunc("/verify/{id}/certificate.pdf", s.handlePDF).Methods("GET")
	r.HandleFunc("/verify/{id}/qr.png", s.handleQR).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		handlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
	)

	var h http.Handler = cors(r)
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	return h
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.limiter.Cleanup(cleanupCtx, time.Minute, 3*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}
