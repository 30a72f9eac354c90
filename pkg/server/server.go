package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weft-dev/weft/internal/dev"
	"github.com/weft-dev/weft/pkg/cache"
	"github.com/weft-dev/weft/pkg/middleware"
	"github.com/weft-dev/weft/pkg/stream"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address (default "localhost:3000").
	Address string

	// Store is the render cache backend (default an in-process LRU).
	Store cache.Store

	// StreamConcurrency bounds simultaneous fragment renders per
	// request (default stream.DefaultConcurrency).
	StreamConcurrency int

	// ErrorPage, when set, is rendered for requests that fail before
	// the shell is written. It goes through the same render pipeline;
	// if it fails too, a static last-resort document is served.
	ErrorPage *Page

	// DevReload enables the /__weft/reload websocket endpoint and
	// injects nothing by itself; pages opt in via dev.ClientScript.
	DevReload bool

	// Registry collects the server's Prometheus metrics. Each Server
	// gets its own registry by default so several can coexist in one
	// process.
	Registry *prometheus.Registry

	// ShutdownTimeout is the maximum time to wait for graceful
	// shutdown (default 30s).
	ShutdownTimeout time.Duration

	// Logger is the structured logger (default slog.Default).
	Logger *slog.Logger
}

// Server is the HTTP front over the render pipeline: it resolves a
// page, consults the render cache, streams a render on miss or stale,
// and persists the result when it is cacheable.
type Server struct {
	config   Config
	pages    map[string]*Page
	cache    *cache.Cache
	streamer *stream.Streamer
	reload   *dev.ReloadServer
	registry *prometheus.Registry
	router   chi.Router

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Address == "" {
		config.Address = "localhost:3000"
	}
	if config.Store == nil {
		config.Store = cache.NewMemoryStore()
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		config:   config,
		pages:    make(map[string]*Page),
		cache:    cache.New(config.Store, cache.WithMetrics(cache.NewMetrics(registry))),
		streamer: stream.New(stream.Config{Concurrency: config.StreamConcurrency}),
		registry: registry,
		logger:   logger,
	}
	if config.DevReload {
		s.reload = dev.NewReloadServer()
	}
	s.router = s.buildRouter()

	return s
}

// Register adds a page to the server. Later registrations for the
// same path win.
func (s *Server) Register(p *Page) {
	s.pages[p.Path] = p
}

// Cache returns the render cache, for wiring into CLI tooling.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Reload returns the live-reload broadcaster, or nil when DevReload
// is off.
func (s *Server) Reload() *dev.ReloadServer {
	return s.reload
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Handler returns the root http.Handler, for mounting in external
// routers or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Prometheus(middleware.WithRegistry(s.registry)))
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(req *http.Request) bool {
		return req.URL.Path != "/healthz" && req.URL.Path != "/metrics"
	})))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Post("/__weft/revalidate", s.handleRevalidate)
	if s.reload != nil {
		r.Get("/__weft/reload", s.reload.HandleWebSocket)
	}
	r.Get("/*", s.handlePage)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleRevalidate marks a cached page stale. The path comes from the
// "path" form value or query parameter. 200 when an entry was marked,
// 404 when there was nothing to mark.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	if path == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}

	found, err := s.cache.Invalidate(r.Context(), path)
	if err != nil {
		s.logger.Error("revalidate failed", "path", path, "error", err)
		http.Error(w, "revalidate failed", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "no cached entry", http.StatusNotFound)
		return
	}

	s.logger.Info("revalidated", "path", path)
	w.WriteHeader(http.StatusOK)
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.reload != nil {
		s.reload.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if err := s.cache.Close(); err != nil {
		s.logger.Error("cache close error", "error", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
