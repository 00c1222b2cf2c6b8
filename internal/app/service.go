// Package service registers the AgentPulse offerings and dispatches jobs to them.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

// Job outcomes recorded in metrics.
const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
)

// Service holds the offering catalogue.
type Service struct {
	deps      *deps
	offerings map[string]Offering
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSink sets where results are mirrored. Without one, nothing is mirrored.
func WithSink(s Sink) Option {
	return func(svc *Service) {
		if s != nil {
			svc.deps.sink = s
		}
	}
}

// WithClock overrides the time source used for recency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.deps.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.deps.logger = l
		}
	}
}

// New registers every offering against market.
func New(market Marketplace, opts ...Option) *Service {
	svc := &Service{
		deps: &deps{market: market, now: time.Now},
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.deps.logger == nil {
		svc.deps.logger = logger.Get().Named("offerings")
	}

	d := svc.deps
	svc.offerings = map[string]Offering{}
	for _, o := range []Offering{
		&healthCheck{catalog{HealthCheck, "Health Check", 0.25}, d},
		&riskFlags{catalog{AgentRiskFlags, "Agent Risk Flags", 0.1}, d},
		&agentScore{catalog{AgentScore, "Agent Score", 0.05}, d},
		&reputationReport{catalog{ReputationReport, "Reputation Report", 1}, d},
		&competitorAnalysis{competitorBase{catalog{CompetitorAnalysis, "Competitor Analysis", 200}, d}},
		&competitorDeepDive{competitorBase{catalog{CompetitorDeepDive, "Competitor Deep Dive", 500}, d}},
		&multiAgentReport{catalog{MultiAgentReport, "Multi Agent Report", 100}, d},
	} {
		svc.offerings[o.Name()] = o
	}
	return svc
}

// Offerings lists the catalogue ordered by price, cheapest first.
func (s *Service) Offerings() []Offering {
	out := make([]Offering, 0, len(s.offerings))
	for _, o := range s.offerings {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price() != out[j].Price() {
			return out[i].Price() < out[j].Price()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Offering looks an offering up by name.
func (s *Service) Offering(name string) (Offering, error) {
	o, ok := s.offerings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOffering, name)
	}
	return o, nil
}

// Validate checks requirements for the named offering.
func (s *Service) Validate(name string, req model.Requirements) (Validation, error) {
	o, err := s.Offering(name)
	if err != nil {
		return Validation{}, err
	}
	return o.Validate(req), nil
}

// RequestPayment returns the payment description for the named offering.
func (s *Service) RequestPayment(name string, req model.Requirements) (string, error) {
	o, err := s.Offering(name)
	if err != nil {
		return "", err
	}
	return o.RequestPayment(req), nil
}

// Execute validates requirements and runs the named offering. Requirements
// that fail validation are rejected before any upstream call.
func (s *Service) Execute(ctx context.Context, name string, req model.Requirements, job model.JobContext) (report.Report, error) {
	o, err := s.Offering(name)
	if err != nil {
		return report.Report{}, err
	}
	if req == nil {
		req = model.Requirements{}
	}

	start := time.Now()
	log := s.deps.logger.With(logger.String("offering", name), logger.String("jobId", job.JobID))

	if v := o.Validate(req); !v.Valid {
		metrics.RecordJob(name, outcomeInvalid, msSince(start))
		return report.Report{}, &ValidationError{Offering: name, Reason: v.Reason, Cause: v.cause}
	}

	log.Info(ctx, "job started")
	rep, err := o.Execute(ctx, req, job)
	if err != nil {
		metrics.RecordJob(name, outcomeFailed, msSince(start))
		metrics.RecordErrorByComponent("offering", name)
		log.Warn(ctx, "job failed", logger.Error(err), logger.Duration("took", time.Since(start)))
		return report.Report{}, fmt.Errorf("%s: %w", name, err)
	}

	metrics.RecordJob(name, outcomeSuccess, msSince(start))
	log.Info(ctx, "job completed", logger.Duration("took", time.Since(start)))
	return rep, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
