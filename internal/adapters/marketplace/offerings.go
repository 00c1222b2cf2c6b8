package marketplace

import (
	"context"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
)

// FetchOfferings returns the services an agent publishes, empty on failure.
func (c *Client) FetchOfferings(ctx context.Context, agentID string) []model.Offering {
	var resp envelope[[]offeringPayload]
	if err := c.getJSON(ctx, endpointOfferings, join(c.marketplaceURL, "api", "agents", agentID, "offerings"),
		c.requestTimeout, &resp); err != nil {
		c.logger.Debug(ctx, "offerings request failed", logger.String("agent_id", agentID), logger.Error(err))
		return []model.Offering{}
	}
	out := make([]model.Offering, 0, len(resp.Data))
	for _, p := range resp.Data {
		if o, ok := normalizeOffering(p); ok {
			out = append(out, o)
		}
	}
	return out
}
