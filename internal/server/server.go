package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/trogers1052/stock-calculator/internal/api"
)

// Runner is a background worker stopped by cancelling its context
type Runner interface {
	Start(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Addr     string
	Handler  *api.Handler
	Consumer Runner // optional
	Log      zerolog.Logger
}

// Server runs the HTTP API alongside the optional command consumer
type Server struct {
	router   *mux.Router
	handler  http.Handler
	server   *http.Server
	consumer Runner
	log      zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   api.SetupRoutes(cfg.Handler),
		consumer: cfg.Consumer,
		log:      cfg.Log.With().Str("component", "server").Logger(),
	}

	s.handler = s.setupMiddleware()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware wraps the whole router so unmatched requests, including
// CORS preflights, pass through the chain too
func (s *Server) setupMiddleware() http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		s.loggingMiddleware,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	}

	var handler http.Handler = s.router
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

// Handler exposes the fully wrapped router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// HTTP server and the consumer down
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	consumerDone := make(chan error, 1)
	if s.consumer != nil {
		go func() {
			consumerDone <- s.consumer.Start(ctx)
		}()
	} else {
		close(consumerDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-httpErr:
		if ok {
			runErr = err
		}
	}
	cancel()

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := <-consumerDone; err != nil {
		s.log.Error().Err(err).Msg("Consumer stopped with error")
	}

	s.log.Info().Msg("Server stopped")
	return runErr
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
