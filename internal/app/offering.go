package service

import (
	"context"
	"strconv"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/pkg/logger"
)

// Offering names.
const (
	HealthCheck        = "health_check"
	AgentRiskFlags     = "agent_risk_flags"
	AgentScore         = "agent_score"
	ReputationReport   = "reputation_report"
	CompetitorAnalysis = "competitor_analysis"
	CompetitorDeepDive = "competitor_deep_dive"
	MultiAgentReport   = "multi_agent_report"
)

// Validation is the outcome of checking job requirements.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`

	cause error
}

func valid() Validation { return Validation{Valid: true} }

func invalid(reason string) Validation { return Validation{Reason: reason} }

// Offering is one paid job type.
type Offering interface {
	Name() string
	Price() float64
	Validate(req model.Requirements) Validation
	RequestPayment(req model.Requirements) string
	Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error)
}

// Marketplace is the upstream data the offerings are computed from.
type Marketplace interface {
	Resolve(ctx context.Context, ref, fallbackWallet string) (string, error)
	FetchMetrics(ctx context.Context, agentID string) (model.AgentMetrics, error)
	FetchProfile(ctx context.Context, agentID string) (model.AgentMetrics, error)
	FetchOfferings(ctx context.Context, agentID string) []model.Offering
	FetchLeaderboard(ctx context.Context) []model.LeaderboardEntry
}

// Sink receives a copy of every result. Deliver must not block on delivery.
type Sink interface {
	Deliver(ctx context.Context, r model.Result) string
}

// deps are shared by every offering.
type deps struct {
	market Marketplace
	sink   Sink
	now    func() time.Time
	logger logger.Logger
}

// catalog describes an offering's identity.
type catalog struct {
	name    string
	display string
	price   float64
}

func (c catalog) Name() string { return c.name }

func (c catalog) Price() float64 { return c.price }

func (c catalog) usdc() string { return strconv.FormatFloat(c.price, 'f', -1, 64) + " USDC" }

// target resolves the requested agent, falling back to the buyer's wallet,
// and fetches its metrics.
func (d *deps) target(ctx context.Context, req model.Requirements, job model.JobContext) (model.AgentMetrics, error) {
	ref, _, _ := req.AgentRef()
	id, err := d.market.Resolve(ctx, ref, job.ClientAddress)
	if err != nil {
		return model.AgentMetrics{}, err
	}
	return d.market.FetchMetrics(ctx, id)
}

// mirror hands r to the sink stamped with the job identity.
func (d *deps) mirror(ctx context.Context, c catalog, job model.JobContext, r model.Result) { //nolint:gocritic // hugeParam: copied into the sink
	if d.sink == nil {
		return
	}
	r.JobID = job.JobID
	r.Service = c.display
	r.Price = c.price
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	id := d.sink.Deliver(ctx, r)
	d.logger.Debug(ctx, "result mirrored", logger.String("offering", c.name), logger.String("jobId", id))
}

// refCheck rejects agent references that are neither strings nor numbers.
func refCheck(req model.Requirements) (Validation, bool) {
	_, present, ok := req.AgentRef()
	if present && !ok {
		return invalid("agent_id must be a string or number"), false
	}
	return valid(), present
}

func refOrSelf(req model.Requirements) string {
	if ref, present, _ := req.AgentRef(); present {
		return ref
	}
	return "self"
}
