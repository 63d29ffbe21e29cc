// Package api serves the layout operations over HTTP.
//
// # Endpoints
//
//	GET  /healthz                       liveness probe
//	GET  /version                       build information
//	POST /v1/sync                       synchronize an instance layout
//	POST /v1/route                      route the links of one layout
//	POST /v1/colors                     assign link colors of one layout
//	POST /v1/regions/{instance}         region ordering (?format=json|dot|svg)
//
// Request and response bodies are JSON. Failures are reported as
// {"code": "...", "error": "..."} with a status derived from the error code.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/regionsync/pkg/pipeline"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 32 << 20

// Server exposes a pipeline runner over HTTP.
type Server struct {
	Runner *pipeline.Runner
	Logger *log.Logger

	router chi.Router
}

// New creates a server. A nil logger uses the runner's logger.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{Runner: runner, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sync", s.handleSync)
		r.Post("/route", s.handleRoute)
		r.Post("/colors", s.handleColors)
		r.Post("/regions/{instance}", s.handleRegions)
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	s.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// logRequests logs one line per request at debug level, and failures at
// warn level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.Logger.Warn("request failed", fields...)
			return
		}
		s.Logger.Debug("request", fields...)
	})
}
