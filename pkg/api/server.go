package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
	"github.com/larry-brewer/jsonauth/pkg/sessions"
)

// Server routes auth bridge requests to the verdict pipeline.
type Server struct {
	router   *mux.Router
	provider provider.SessionProvider
	registry sessions.Registry
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// Options bundles the server's dependencies.
type Options struct {
	Provider provider.SessionProvider
	Registry sessions.Registry
	Logger   *observability.Logger
	Metrics  *observability.Metrics

	// MetricsRegistry backs the /metrics endpoint. Optional.
	MetricsRegistry *prometheus.Registry

	// Health backs the /healthz and /readyz probes. Optional.
	Health *observability.HealthChecker
}

// NewServer wires routes and middleware.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}

	s := &Server{
		router:   mux.NewRouter(),
		provider: opts.Provider,
		registry: opts.Registry,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/v1/auth/autologin", s.autoLogin).Methods("POST")
	s.router.HandleFunc("/v1/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/v1/auth/validate", s.validate).Methods("POST")
	s.router.HandleFunc("/v1/auth/logout", s.logout).Methods("POST")
	s.router.HandleFunc("/v1/auth/config-schema", s.configSchema).Methods("GET")

	if opts.Health != nil {
		s.router.HandleFunc("/healthz", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/readyz", opts.Health.Readiness).Methods("GET")
	}
	if opts.MetricsRegistry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(opts.MetricsRegistry, promhttp.HandlerOpts{})).Methods("GET")
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
