// Package server exposes the check pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/worker"
)

// maxBodyBytes bounds a check request body
const maxBodyBytes = 1 << 20

// Checker runs one check and reports whether checks can run at all
type Checker interface {
	Check(ctx context.Context, rawURL string, languages []string) (*model.PipelineResult, error)
	Ready() error
}

// Options configures a Server
type Options struct {
	Config  *model.Config
	Checker Checker
	Limiter *worker.Limiter // Per-client limiter; nil disables rate limiting
	Logger  logrus.FieldLogger

	// LookPath locates the yt-dlp binary for health reporting. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Server is the HTTP front end
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	config     *model.Config
	checker    Checker
	limiter    *worker.Limiter
	lookPath   func(string) (string, error)
	logger     logrus.FieldLogger
}

// New creates a server and its router
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	s := &Server{
		config:   cfg,
		checker:  opts.Checker,
		limiter:  opts.Limiter,
		lookPath: lookPath,
		logger:   logger,
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.With(rateLimit(s.limiter, s.logger)).Post("/check-claims", s.handleCheckClaims)
	})

	origins := s.config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// tempWritable reports whether a staging directory can be created under dir
func tempWritable(dir string) bool {
	staged, err := os.MkdirTemp(dir, "ytverify-health-")
	if err != nil {
		return false
	}
	_ = os.RemoveAll(staged)
	return true
}
