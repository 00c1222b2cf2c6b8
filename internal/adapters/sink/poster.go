package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

const maxErrorBody = 512

// WebhookPoster POSTs results as JSON to a webhook.
type WebhookPoster struct {
	http    *http.Client
	url     string
	secret  string
	timeout time.Duration
}

// NewWebhookPoster creates a poster. An empty secret sends no Authorization header.
func NewWebhookPoster(url, secret string, timeout time.Duration, hc *http.Client) *WebhookPoster {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookPoster{http: hc, url: url, secret: secret, timeout: timeout}
}

// Post sends one result. Any non-2xx status is an error.
func (p *WebhookPoster) Post(ctx context.Context, r model.Result) error { //nolint:gocritic // hugeParam: matches worker.Poster
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrDelivery, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.secret != "" {
		req.Header.Set("Authorization", "Bearer "+p.secret)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully consumed below

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
