package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/health"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/metrics"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/tracing"
)

// CatalogSource supplies the active program catalog. *catalog.Manager
// satisfies it.
type CatalogSource interface {
	Snapshot() (*catalog.Catalog, error)
}

// BuildInfo identifies the running binary on the version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options holds the server's collaborators. Orchestrator and Catalogs are
// required; the rest are optional.
type Options struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Catalogs     CatalogSource
	Metrics      *metrics.Collector
	Tracer       *tracing.Tracer
	Health       *health.Checker
	Build        BuildInfo
	Logger       *slog.Logger
}

// Server is the intake engine HTTP server.
type Server struct {
	config   *config.Config
	orch     *orchestrator.Orchestrator
	catalogs CatalogSource
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	health   *health.Checker
	build    BuildInfo
	logger   *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server from opts.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.Orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	if opts.Catalogs == nil {
		return nil, errors.New("server: catalog source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   opts.Config,
		orch:     opts.Orchestrator,
		catalogs: opts.Catalogs,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		health:   opts.Health,
		build:    opts.Build,
		logger:   logger.With("component", "server"),
	}, nil
}

// Start serves HTTP until ctx is cancelled or the listener fails. It
// shuts down gracefully before returning.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	cfg := s.config.Server
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting intake server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("intake server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recovery)
	r.Use(requestID)
	if s.tracer != nil {
		r.Use(tracing.Middleware(s.tracer, routePattern))
	}
	r.Use(s.accessLog)

	r.Route("/v1", func(r chi.Router) {
		r.With(limitBody(s.config.Server.MaxBodyBytes)).Post("/evaluate", s.handleEvaluate)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/audit", s.handleQuery)
		r.Get("/cases/{caseID}/audit", s.handleCaseAudit)
		r.Get("/cases/{caseID}/audit/verify", s.handleVerify)
		r.With(limitBody(s.config.Server.MaxBodyBytes)).Post("/cases/{caseID}/audit/{entryID}/review", s.handleReview)
	})

	hc := s.config.Telemetry.Health
	if s.health != nil && hc.Enabled {
		r.Get(hc.LivenessPath, s.health.LivenessHandler())
		r.Get(hc.ReadinessPath, s.health.ReadinessHandler())
		r.Get(hc.VersionPath, health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime, s.catalogVersion))
	}

	mc := s.config.Telemetry.Metrics
	if s.metrics != nil && mc.Enabled {
		r.Method(http.MethodGet, mc.Path, s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, ErrorDetail{Message: "no route for " + req.URL.Path, Type: ErrorTypeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, ErrorDetail{Message: req.Method + " not allowed", Type: ErrorTypeInvalidRequest})
	})
	return r
}

func (s *Server) catalogVersion() string {
	c, err := s.catalogs.Snapshot()
	if err != nil {
		return ""
	}
	return c.Version
}
