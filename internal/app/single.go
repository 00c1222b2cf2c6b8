package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/internal/domain/scoring"
)

type healthCheck struct {
	catalog
	*deps
}

func (o *healthCheck) Validate(req model.Requirements) Validation {
	v, present := refCheck(req)
	if !v.Valid {
		return v
	}
	if !present {
		return invalid("agent_id is required - provide the agent ID or wallet address to check")
	}
	return v
}

func (o *healthCheck) RequestPayment(req model.Requirements) string {
	ref, _, _ := req.AgentRef()
	return fmt.Sprintf("Health check requested for agent %s - %s", ref, o.usdc())
}

func (o *healthCheck) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, err := o.target(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	now := o.now()
	res := scoring.Health(m, now)
	o.mirror(ctx, o.catalog, job, model.Result{
		AgentID:         m.AgentID,
		AgentName:       m.AgentName,
		Score:           float64(res.Score),
		Status:          res.Status,
		Metrics:         model.MetricsOf(m),
		Recommendations: res.Recommendations,
	})
	return report.Health(m, res, now)
}

type riskFlags struct {
	catalog
	*deps
}

func (o *riskFlags) Validate(req model.Requirements) Validation {
	v, _ := refCheck(req)
	return v
}

func (o *riskFlags) RequestPayment(req model.Requirements) string {
	return fmt.Sprintf("Risk flags check for agent %s - %s", refOrSelf(req), o.usdc())
}

func (o *riskFlags) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, err := o.target(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	now := o.now()
	res := scoring.Risk(m, now)
	o.mirror(ctx, o.catalog, job, model.Result{
		AgentID:   m.AgentID,
		AgentName: m.AgentName,
		Score:     float64(100 - res.Score),
		Status:    res.Verdict,
		Metrics:   model.MetricsOf(m),
		Flags:     res.Flags,
	})
	return report.Risk(m, res, now)
}

type agentScore struct {
	catalog
	*deps
}

func (o *agentScore) Validate(req model.Requirements) Validation {
	v, _ := refCheck(req)
	return v
}

func (o *agentScore) RequestPayment(req model.Requirements) string {
	return fmt.Sprintf("Agent score for %s - %s", refOrSelf(req), o.usdc())
}

func (o *agentScore) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, err := o.target(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	now := o.now()
	res := scoring.Composite(m, now)
	o.mirror(ctx, o.catalog, job, model.Result{
		AgentID:   m.AgentID,
		AgentName: m.AgentName,
		Score:     float64(res.Score),
		Status:    res.Grade,
		Metrics:   model.MetricsOf(m),
	})
	return report.Score(m, res, now)
}

type reputationReport struct {
	catalog
	*deps
}

func period(req model.Requirements) string {
	p := strings.TrimSpace(req.String("period"))
	if p == "" {
		return scoring.DefaultPeriod
	}
	return p
}

func (o *reputationReport) Validate(req model.Requirements) Validation {
	v, _ := refCheck(req)
	if !v.Valid {
		return v
	}
	if !scoring.ValidPeriod(period(req)) {
		return invalid("period must be one of: 7d, 30d, 90d")
	}
	return v
}

func (o *reputationReport) RequestPayment(req model.Requirements) string {
	return fmt.Sprintf("Comprehensive reputation report requested for agent %s (%s analysis) - %s",
		refOrSelf(req), period(req), o.usdc())
}

func (o *reputationReport) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, err := o.target(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	now := o.now()
	res := scoring.Reputation(m, period(req), now)
	pos := res.CompetitivePosition
	o.mirror(ctx, o.catalog, job, model.Result{
		AgentID:         m.AgentID,
		AgentName:       m.AgentName,
		Score:           float64(res.Score),
		Status:          res.Status,
		Metrics:         model.MetricsOf(m),
		Recommendations: res.Recommendations,
		Period:          res.Period,
		Summary:         res.Summary,
		Strengths:       res.Strengths,
		Weaknesses:      res.Weaknesses,
		Trends: &model.ResultTrends{
			JobsGrowth:    res.Trends.JobsGrowth,
			RevenueGrowth: res.Trends.RevenueGrowth,
			RatingTrend:   res.Trends.RatingTrend,
		},
		CompetitivePosition: &model.ResultPosition{
			Rank:            pos.Rank,
			Category:        pos.Category,
			PricingVsMarket: pos.PricingVsMarket,
		},
	})
	return report.Reputation(m, res, now)
}
