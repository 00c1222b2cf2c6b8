// Package marketplace talks to the upstream agent marketplace: directory
// search, per-agent metrics, offerings, the epoch leaderboard and the public
// profile pages used as a scraping fallback.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

const (
	defaultMarketplaceURL = "https://acpx.virtuals.io"
	defaultLeaderboardURL = "https://api.virtuals.io"
	defaultProfileURL     = "https://agdp.io"
	defaultUserAgent      = "AgentPulse/1.0"

	defaultRequestTimeout     = 10 * time.Second
	defaultLeaderboardTimeout = 15 * time.Second
	defaultEpoch              = 1
	defaultPageSize           = 1000

	maxBodyBytes = 8 << 20
)

// Endpoint labels used in logs and metrics.
const (
	endpointMetrics   = "metrics"
	endpointDirectory = "directory"
	endpointOfferings = "offerings"
	endpointEpochs    = "epochs"
	endpointRanking   = "ranking"
	endpointProfile   = "profile"
)

// Client is a marketplace API client. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	http               *http.Client
	marketplaceURL     string
	leaderboardURL     string
	profileURL         string
	userAgent          string
	requestTimeout     time.Duration
	leaderboardTimeout time.Duration
	defaultEpoch       int
	pageSize           int
	logger             logger.Logger
	loggerSet          bool
}

// NewClient creates a client with the production defaults, adjusted by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:               &http.Client{},
		marketplaceURL:     defaultMarketplaceURL,
		leaderboardURL:     defaultLeaderboardURL,
		profileURL:         defaultProfileURL,
		userAgent:          defaultUserAgent,
		requestTimeout:     defaultRequestTimeout,
		leaderboardTimeout: defaultLeaderboardTimeout,
		defaultEpoch:       defaultEpoch,
		pageSize:           defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.loggerSet {
		c.logger = logger.Get().Named("marketplace")
	}
	return c
}

// ProfileURL returns the public profile page of an agent.
func (c *Client) ProfileURL(agentID string) string {
	return c.profileURL + "/agent/" + url.PathEscape(agentID)
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, timeout time.Duration, out any) error {
	body, err := c.get(ctx, endpoint, rawURL, timeout, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: decode: %w", ErrUpstream, endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, rawURL string, timeout time.Duration, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Origin", c.profileURL)
	req.Header.Set("Referer", c.profileURL+"/")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", elapsed)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), elapsed)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrUpstream, endpoint, err)
	}
	return body, nil
}

func join(base string, elems ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, e := range elems {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(e))
	}
	return b.String()
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
