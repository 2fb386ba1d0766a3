// Package server exposes stored pages over HTTP.
//
// Routes:
//
//	GET    /healthz                  liveness probe
//	GET    /pages                    stored page names
//	POST   /pages?count=N&seed=S     generate and store N pages
//	GET    /pages/{name}             page record as JSON
//	GET    /pages/{name}/preview.png wireframe preview
//	GET    /pages/{name}/tree.svg    panel hierarchy
//	DELETE /pages/{name}             remove a page
//
// Errors are written as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
	"github.com/matzehuels/mangalayout/pkg/store"
)

// MaxBatch caps the pages one POST may generate.
const MaxBatch = 100

// Server serves the page API.
type Server struct {
	store   store.Store
	runner  *pipeline.Runner
	workers int
	logger  *log.Logger
	router  chi.Router

	// renders holds encoded previews and trees keyed by page content hash.
	renders cache.Cache
	keyer   cache.Keyer
}

// New returns a server reading from st and generating with runner. runner
// may be nil, in which case POST /pages is unavailable. A nil logger uses
// the package default.
func New(st store.Store, runner *pipeline.Runner, workers int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		store:   st,
		runner:  runner,
		workers: workers,
		logger:  logger,
		renders: cache.NewMemoryCache(cache.DefaultMemoryExpiration, cache.DefaultCleanupInterval),
		keyer:   cache.NewDefaultKeyer(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/pages", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleGenerate)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/preview.png", s.handlePreview)
			r.Get("/tree.svg", s.handleTree)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
