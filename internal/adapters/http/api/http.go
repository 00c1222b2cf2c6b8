// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/agentpulse/internal/adapters/repository"
	service "github.com/okian/agentpulse/internal/app"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Jobs runs offerings. Implemented by the service package.
type Jobs interface {
	Offerings() []service.Offering
	Validate(name string, req model.Requirements) (service.Validation, error)
	RequestPayment(name string, req model.Requirements) (string, error)
	Execute(ctx context.Context, name string, req model.Requirements, job model.JobContext) (report.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	jobsHandler      *JobsHandler
	resultsHandler   *ResultsHandler
	dashboardHandler *dashboardHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	storeSecret    string
	dashboardLimit int
	logger         logger.Logger
	now            func() time.Time
}

// WithStoreSecret requires "Authorization: Bearer <secret>" on the webhook receiver.
func WithStoreSecret(secret string) Option {
	return func(c *serverConfig) { c.storeSecret = secret }
}

// WithDashboardLimit sets how many results the dashboard shows.
func WithDashboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.dashboardLimit = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for uptime.
func WithClock(now func() time.Time) Option {
	return func(c *serverConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(jobs Jobs, store repository.Store, opts ...Option) *Server {
	cfg := &serverConfig{dashboardLimit: 20, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(jobs, store, cfg.now),
		jobsHandler:      NewJobsHandler(jobs, cfg.logger),
		resultsHandler:   NewResultsHandler(store, cfg.storeSecret, cfg.logger),
		dashboardHandler: newDashboardHandler(store, cfg.dashboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))

	mux.HandleFunc("GET /offerings", MetricsMiddleware(s.jobsHandler.HandleOfferings, "offerings"))
	mux.HandleFunc("POST /jobs/{offering}/validate", MetricsMiddleware(s.jobsHandler.HandleValidate, "jobs_validate"))
	mux.HandleFunc("POST /jobs/{offering}/payment", MetricsMiddleware(s.jobsHandler.HandlePayment, "jobs_payment"))
	mux.HandleFunc("POST /jobs/{offering}/execute", MetricsMiddleware(s.jobsHandler.HandleExecute, "jobs_execute"))

	mux.HandleFunc("POST /webhook/results", MetricsMiddleware(s.resultsHandler.HandleReceive, "webhook_results"))
	mux.HandleFunc("GET /results", MetricsMiddleware(s.resultsHandler.HandleList, "results"))
	mux.HandleFunc("GET /results/{jobId}", MetricsMiddleware(s.resultsHandler.HandleGet, "result"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
