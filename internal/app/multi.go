package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/internal/domain/scoring"
	"github.com/okian/agentpulse/pkg/logger"
)

type multiAgentReport struct {
	catalog
	*deps
}

func (o *multiAgentReport) Validate(req model.Requirements) Validation {
	refs, present := req.AgentRefs()
	switch {
	case !present:
		return invalid("agent_ids is required. Pass comma-separated IDs, e.g. '3212,4029,2651'")
	case len(refs) == 0:
		return invalid("agent_ids must contain at least 1 agent ID")
	case len(refs) > scoring.MaxPortfolioAgents:
		v := invalid(fmt.Sprintf("Maximum %d agents per report. Got %d.", scoring.MaxPortfolioAgents, len(refs)))
		v.cause = ErrTooManyAgents
		return v
	}
	return valid()
}

func (o *multiAgentReport) RequestPayment(req model.Requirements) string {
	refs, _ := req.AgentRefs()
	return fmt.Sprintf("Multi-agent report for %d agents - %s", len(refs), o.usdc())
}

func (o *multiAgentReport) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	refs, _ := req.AgentRefs()
	if len(refs) > scoring.MaxPortfolioAgents {
		return report.Report{}, &ValidationError{
			Offering: o.name,
			Reason:   fmt.Sprintf("Maximum %d agents. Got %d.", scoring.MaxPortfolioAgents, len(refs)),
			Cause:    ErrTooManyAgents,
		}
	}

	now := o.now()
	analyses := make([]*scoring.AgentAnalysis, len(refs))
	failures := make([]string, len(refs))

	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			m, err := o.analyze(ctx, ref)
			if err != nil {
				failures[i] = fmt.Sprintf("Agent %s: %v", ref, err)
				o.logger.Warn(ctx, "agent skipped", logger.String("ref", ref), logger.Error(err))
				return nil
			}
			a := scoring.Analyze(m, now)
			analyses[i] = &a
			return nil
		})
	}
	_ = g.Wait()

	var (
		ok   []scoring.AgentAnalysis
		errs []string
	)
	for i := range refs {
		if analyses[i] != nil {
			ok = append(ok, *analyses[i])
		}
		if failures[i] != "" {
			errs = append(errs, failures[i])
		}
	}

	res, err := scoring.Portfolio(ok, errs)
	if errors.Is(err, scoring.ErrNoAnalyses) {
		return report.Report{}, fmt.Errorf("%w: %s", ErrNoAgentsAnalyzed, strings.Join(errs, "; "))
	}
	if err != nil {
		return report.Report{}, err
	}

	o.mirror(ctx, o.catalog, job, model.Result{
		AgentID:   "portfolio",
		AgentName: fmt.Sprintf("Portfolio (%d agents)", res.AgentsAnalyzed),
		Score:     float64(res.Health),
		Status:    res.Status,
		Metrics: model.ResultMetrics{
			JobsCompleted: res.TotalJobs,
			Revenue:       res.TotalRevenue,
		},
		Recommendations: res.Recommendations,
	})
	return report.Portfolio(res, now)
}

// analyze resolves one member reference and fetches its metrics.
func (o *multiAgentReport) analyze(ctx context.Context, ref string) (model.AgentMetrics, error) {
	id, err := o.market.Resolve(ctx, ref, "")
	if err != nil {
		return model.AgentMetrics{}, err
	}
	return o.market.FetchMetrics(ctx, id)
}
