package marketplace

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
)

const activeStatus = "ACTIVE"

// ActiveEpoch returns the ID of the active leaderboard epoch, or the
// configured default when the lookup fails.
func (c *Client) ActiveEpoch(ctx context.Context) int {
	q := url.Values{}
	q.Set("filters[status][$eq]", activeStatus)
	var resp envelope[[]epochPayload]
	if err := c.getJSON(ctx, endpointEpochs, withQuery(join(c.leaderboardURL, "api", "agdp-leaderboard-epochs"), q),
		c.requestTimeout, &resp); err != nil {
		c.logger.Debug(ctx, "active epoch lookup failed", logger.Error(err))
		return c.defaultEpoch
	}
	for _, e := range resp.Data {
		if e.Status != nil && !strings.EqualFold(string(*e.Status), activeStatus) {
			continue
		}
		if id, err := strconv.Atoi(string(e.ID)); err == nil && id > 0 {
			return id
		}
	}
	return c.defaultEpoch
}

// FetchLeaderboard returns the active epoch ranking. Any failure yields an
// empty slice; callers decide whether that is fatal.
func (c *Client) FetchLeaderboard(ctx context.Context) []model.LeaderboardEntry {
	epoch := c.ActiveEpoch(ctx)
	q := url.Values{}
	q.Set("pagination[pageSize]", strconv.Itoa(c.pageSize))
	rawURL := withQuery(join(c.leaderboardURL, "api", "agdp-leaderboard-epochs", strconv.Itoa(epoch), "ranking"), q)

	var resp envelope[[]rankingPayload]
	if err := c.getJSON(ctx, endpointRanking, rawURL, c.leaderboardTimeout, &resp); err != nil {
		c.logger.Warn(ctx, "leaderboard request failed", logger.Int("epoch", epoch), logger.Error(err))
		return []model.LeaderboardEntry{}
	}

	board := make([]model.LeaderboardEntry, 0, len(resp.Data))
	for _, p := range resp.Data {
		if e, ok := normalizeRanking(p); ok {
			board = append(board, e)
		}
	}
	return board
}

// FetchRank returns the agent's position on the active leaderboard, nil when
// the agent is not ranked or the leaderboard is unavailable.
func (c *Client) FetchRank(ctx context.Context, agentID string) *int {
	return RankOf(c.FetchLeaderboard(ctx), agentID)
}

// RankOf finds agentID in board.
func RankOf(board []model.LeaderboardEntry, agentID string) *int {
	for _, e := range board {
		if e.AgentID == agentID && e.Rank > 0 {
			return model.IntPtr(e.Rank)
		}
	}
	return nil
}
