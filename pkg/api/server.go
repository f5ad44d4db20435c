// Package api serves pipeview over HTTP.
//
// Routes:
//
//	GET    /healthz                      build info
//	GET    /metrics                      Prometheus metrics (when a registry is set)
//	POST   /v1/layouts                   run a layout of a posted graph
//	GET    /v1/layouts/{name}/positions  read a stored position map
//	PUT    /v1/layouts/{name}/positions  replace a stored position map
//	DELETE /v1/layouts/{name}/positions  delete a stored position map
//
// Errors are JSON objects carrying the pipeview error code; the HTTP status
// follows [errors.HTTPStatus].
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 8 << 20

// DefaultRunTimeout bounds one layout request.
const DefaultRunTimeout = 2 * time.Minute

// Server is the HTTP front end of a pipeline.Runner.
type Server struct {
	runner       *pipeline.Runner
	logger       *log.Logger
	defaults     config.Layout
	gatherer     prometheus.Gatherer
	maxBodyBytes int64
	runTimeout   time.Duration
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithDefaults sets the configuration request configs are applied on top of.
func WithDefaults(c config.Layout) Option { return func(s *Server) { s.defaults = c } }

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option { return func(s *Server) { s.gatherer = g } }

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBodyBytes = n } }

// WithRunTimeout bounds the duration of one layout request.
func WithRunTimeout(d time.Duration) Option { return func(s *Server) { s.runTimeout = d } }

// NewServer builds the router for runner.
func NewServer(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		logger:       log.NewWithOptions(io.Discard, log.Options{}),
		defaults:     config.Defaults(),
		maxBodyBytes: DefaultMaxBodyBytes,
		runTimeout:   DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/v1/layouts", s.handleCreateLayout)
	r.Get("/v1/layouts/{name}/positions", s.handleGetPositions)
	r.Put("/v1/layouts/{name}/positions", s.handlePutPositions)
	r.Delete("/v1/layouts/{name}/positions", s.handleDeletePositions)
	return r
}
