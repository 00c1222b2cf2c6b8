package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/report"
	"github.com/okian/agentpulse/internal/domain/scoring"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

// competitorBase is shared by the standard and premium competitor analyses.
type competitorBase struct {
	catalog
	*deps
}

func (o *competitorBase) Validate(req model.Requirements) Validation {
	v, present := refCheck(req)
	if !v.Valid {
		return v
	}
	if !present {
		return invalid("agent_id is required for competitor analysis")
	}
	return v
}

// gather resolves the target and fetches its profile, offerings and the
// leaderboard concurrently. An empty leaderboard fails the job.
func (o *competitorBase) gather(ctx context.Context, req model.Requirements, job model.JobContext) (model.AgentMetrics, []model.LeaderboardEntry, error) {
	ref, _, _ := req.AgentRef()
	id, err := o.market.Resolve(ctx, ref, job.ClientAddress)
	if err != nil {
		return model.AgentMetrics{}, nil, err
	}

	var (
		m         model.AgentMetrics
		offerings []model.Offering
		board     []model.LeaderboardEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = o.market.FetchProfile(gctx, id)
		return err
	})
	g.Go(func() error {
		offerings = o.market.FetchOfferings(gctx, id)
		return nil
	})
	g.Go(func() error {
		board = o.market.FetchLeaderboard(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.AgentMetrics{}, nil, err
	}
	if len(board) == 0 {
		return model.AgentMetrics{}, nil, ErrLeaderboardUnavailable
	}

	m.Offerings = offerings
	m.Rank = marketplace.RankOf(board, id)
	return m, board, nil
}

func (o *competitorBase) result(m model.AgentMetrics, res scoring.CompetitorResult) model.Result {
	return model.Result{
		AgentID:         m.AgentID,
		AgentName:       m.AgentName,
		Score:           float64(res.Score),
		Status:          res.Status,
		Metrics:         model.MetricsOf(m),
		Recommendations: res.Recommendations,
	}
}

type competitorAnalysis struct {
	competitorBase
}

func (o *competitorAnalysis) RequestPayment(req model.Requirements) string {
	ref, _, _ := req.AgentRef()
	return fmt.Sprintf("Competitor analysis for agent %s - %s", ref, o.usdc())
}

func (o *competitorAnalysis) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, board, err := o.gather(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	res := scoring.CompareCompetitors(m, board)
	o.mirror(ctx, o.catalog, job, o.result(m, res))
	return report.Competitor(m, res, o.now())
}

type competitorDeepDive struct {
	competitorBase
}

func (o *competitorDeepDive) RequestPayment(req model.Requirements) string {
	ref, _, _ := req.AgentRef()
	return fmt.Sprintf("Competitor deep dive for agent %s (peer metrics, threat levels, service gaps) - %s", ref, o.usdc())
}

func (o *competitorDeepDive) Execute(ctx context.Context, req model.Requirements, job model.JobContext) (report.Report, error) {
	m, board, err := o.gather(ctx, req, job)
	if err != nil {
		return report.Report{}, err
	}
	peers := scoring.NearestPeers(scoring.TargetEntry(m), board, scoring.PeerCount)
	intel := o.peerIntel(ctx, peers, board)

	res := scoring.DeepDive(m, board, intel)
	o.mirror(ctx, o.catalog, job, o.result(m, res.CompetitorResult))
	return report.DeepDive(m, res, o.now())
}

// peerIntel fetches every peer's profile and offerings in parallel.
// A failed peer is recorded as unavailable and never aborts the batch.
func (o *competitorDeepDive) peerIntel(ctx context.Context, peers []scoring.Peer, board []model.LeaderboardEntry) map[string]scoring.PeerIntel {
	slots := make([]scoring.PeerIntel, len(peers))
	var g errgroup.Group
	for i, p := range peers {
		g.Go(func() error {
			slots[i] = o.fetchPeer(ctx, p.AgentID, board)
			return nil
		})
	}
	_ = g.Wait()

	intel := make(map[string]scoring.PeerIntel, len(peers))
	for i, p := range peers {
		intel[p.AgentID] = slots[i]
	}
	return intel
}

func (o *competitorDeepDive) fetchPeer(ctx context.Context, id string, board []model.LeaderboardEntry) scoring.PeerIntel {
	var (
		m         model.AgentMetrics
		offerings []model.Offering
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = o.market.FetchProfile(gctx, id)
		return err
	})
	g.Go(func() error {
		offerings = o.market.FetchOfferings(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordPeerFetchError()
		o.logger.Warn(ctx, "peer fetch failed", logger.String("agentId", id), logger.Error(err))
		return scoring.PeerIntel{}
	}
	m.Offerings = offerings
	m.Rank = marketplace.RankOf(board, id)
	return scoring.PeerIntel{Metrics: m, Available: true}
}
