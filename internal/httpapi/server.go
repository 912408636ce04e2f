// Package httpapi is the decision-flow HTTP surface (spec C10): flow
// creation and lookup, concrete evaluation, symbolic test runs, health, and metrics,
// built on stdlib net/http with Go 1.22 method-pattern routing, the same
// way the corpus's REST server is built.
package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/deciflow/deciflow/internal/auth"
	"github.com/deciflow/deciflow/internal/infrastructure/storage"
	"github.com/deciflow/deciflow/internal/lang"
	"github.com/deciflow/deciflow/internal/metrics"
	"github.com/deciflow/deciflow/internal/worker"
)

// Server is the decision-flow HTTP API.
type Server struct {
	store   storage.Store
	cache   *lang.Cache
	metrics *metrics.Sink
	auth    *auth.JWTAuth
	logger  zerolog.Logger
	pool    *worker.Pool

	solverTimeout time.Duration
	rateLimit     int

	mux *http.ServeMux
}

// Config bundles the dependencies NewServer needs beyond the store.
type Config struct {
	Store              storage.Store
	Logger             zerolog.Logger
	JWTSecret          string
	JWTTokenTTL        time.Duration
	SolverTimeoutMS    int
	RateLimitPerMinute int
	Registry           *prometheus.Registry
}

// NewServer wires the middleware chain and route table.
func NewServer(cfg Config) *Server {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		store:         cfg.Store,
		cache:         lang.NewCache(lang.NewParser()),
		metrics:       metrics.NewSink(reg),
		auth:          auth.NewJWTAuth(cfg.JWTSecret, cfg.JWTTokenTTL),
		logger:        cfg.Logger,
		pool:          worker.New(0),
		solverTimeout: time.Duration(cfg.SolverTimeoutMS) * time.Millisecond,
		rateLimit:     cfg.RateLimitPerMinute,
		mux:           http.NewServeMux(),
	}
	s.routes(reg)
	return s
}

func (s *Server) routes(reg *prometheus.Registry) {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/flows", s.handleCreateFlow)
	api.HandleFunc("GET /api/v1/flows/{id}", s.handleGetFlow)
	api.HandleFunc("POST /api/v1/flows/{id}/evaluate", s.handleEvaluate)
	api.HandleFunc("GET /api/v1/flows/{id}/test", s.handleSymbolicTest)

	rl := newRateLimiter(s.rateLimit, time.Minute)
	authedAPI := rl.middleware(s.auth.Middleware(api))

	s.mux.Handle("/api/v1/", authedAPI)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

// Close shuts down the server's background worker pool, waiting for any
// in-flight symbolic run to finish.
func (s *Server) Close() {
	s.pool.Close()
}

// Handler returns the fully wrapped HTTP handler: recovery, logging, CORS,
// and content-type negotiation sit outside per-route auth/rate-limiting.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = contentTypeMiddleware(h)
	h = corsMiddleware(h)
	h = loggingMiddleware(s.logger, h)
	h = recoveryMiddleware(s.logger, h)
	return h
}
