package marketplace

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

// strategy attempts to produce a metrics record. ok=false means "try the next one".
type strategy struct {
	name string
	run  func(ctx context.Context, agentID string, page *profilePage) (model.AgentMetrics, bool)
}

// profilePage downloads an agent's public profile at most once per fetch.
type profilePage struct {
	once sync.Once
	load func(ctx context.Context) ([]byte, error)
	body []byte
	err  error
}

func (p *profilePage) get(ctx context.Context) ([]byte, error) {
	p.once.Do(func() { p.body, p.err = p.load(ctx) })
	return p.body, p.err
}

func (c *Client) strategies() []strategy {
	return []strategy{
		{name: "api", run: c.fromAPI},
		{name: "scraping", run: c.fromPage(scrapeDocument)},
		{name: "text", run: c.fromPage(scrapeText)},
	}
}

// FetchMetrics returns the agent's metrics with its leaderboard rank and
// published offerings. Rank and offerings degrade to absent/empty on failure.
func (c *Client) FetchMetrics(ctx context.Context, agentID string) (model.AgentMetrics, error) {
	m, err := c.FetchProfile(ctx, agentID)
	if err != nil {
		return model.AgentMetrics{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		rank      *int
		offerings []model.Offering
	)
	if m.DataSource == model.SourceAPI {
		g.Go(func() error {
			rank = c.FetchRank(gctx, agentID)
			return nil
		})
	}
	g.Go(func() error {
		offerings = c.FetchOfferings(gctx, agentID)
		return nil
	})
	_ = g.Wait() // both goroutines swallow their failures

	m.Rank = rank
	m.Offerings = offerings
	return m, nil
}

// FetchProfile runs the strategy chain without rank or offerings enrichment.
// Callers that already hold the leaderboard use it to avoid a second download.
func (c *Client) FetchProfile(ctx context.Context, agentID string) (model.AgentMetrics, error) {
	page := &profilePage{load: func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpointProfile, c.ProfileURL(agentID), c.requestTimeout, "text/html")
	}}
	log := c.logger.With(logger.String("agent_id", agentID))

	for _, s := range c.strategies() {
		m, ok := s.run(ctx, agentID, page)
		if !ok {
			metrics.RecordFetchStrategy(s.name, "miss")
			log.Debug(ctx, "fetch strategy returned nothing", logger.String("strategy", s.name))
			continue
		}
		metrics.RecordFetchStrategy(s.name, "hit")
		log.Debug(ctx, "metrics fetched", logger.String("strategy", s.name),
			logger.Int("jobs", m.JobsCompleted), logger.Float64("revenue", m.Revenue))
		return m, nil
	}

	log.Warn(ctx, "all metrics strategies exhausted")
	return model.AgentMetrics{}, &FetchExhaustedError{AgentID: agentID, ProfileURL: c.ProfileURL(agentID)}
}

func (c *Client) fromAPI(ctx context.Context, agentID string, _ *profilePage) (model.AgentMetrics, bool) {
	var resp envelope[*metricsPayload]
	if err := c.getJSON(ctx, endpointMetrics, join(c.marketplaceURL, "api", "metrics", "agent", agentID),
		c.requestTimeout, &resp); err != nil {
		c.logger.Debug(ctx, "metrics request failed", logger.String("agent_id", agentID), logger.Error(err))
		return model.AgentMetrics{}, false
	}
	if resp.Data.empty() {
		return model.AgentMetrics{}, false
	}
	return normalizeMetrics(agentID, resp.Data), true
}

func (c *Client) fromPage(extract func(string, []byte) (model.AgentMetrics, bool)) func(context.Context, string, *profilePage) (model.AgentMetrics, bool) {
	return func(ctx context.Context, agentID string, page *profilePage) (model.AgentMetrics, bool) {
		body, err := page.get(ctx)
		if err != nil {
			return model.AgentMetrics{}, false
		}
		return extract(agentID, body)
	}
}
