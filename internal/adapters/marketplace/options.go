package marketplace

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/agentpulse/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs sets the marketplace, leaderboard and profile base URLs.
// Empty values keep the current setting.
func WithBaseURLs(marketplaceURL, leaderboardURL, profileURL string) Option {
	return func(c *Client) {
		if marketplaceURL != "" {
			c.marketplaceURL = strings.TrimRight(marketplaceURL, "/")
		}
		if leaderboardURL != "" {
			c.leaderboardURL = strings.TrimRight(leaderboardURL, "/")
		}
		if profileURL != "" {
			c.profileURL = strings.TrimRight(profileURL, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeouts sets the per-request timeout and the leaderboard timeout.
func WithTimeouts(request, leaderboard time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.requestTimeout = request
		}
		if leaderboard > 0 {
			c.leaderboardTimeout = leaderboard
		}
	}
}

// WithDefaultEpoch sets the epoch used when the active epoch lookup fails.
func WithDefaultEpoch(epoch int) Option {
	return func(c *Client) {
		if epoch > 0 {
			c.defaultEpoch = epoch
		}
	}
}

// WithPageSize sets the leaderboard page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
			c.loggerSet = true
		}
	}
}
