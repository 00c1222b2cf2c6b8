package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// ErrUnhealthy is returned when the service health check fails.
var ErrUnhealthy = errors.New("service is not healthy")

// Client talks to the AgentPulse HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type executeRequest struct {
	Requirements model.Requirements `json:"requirements"`
	Context      model.JobContext   `json:"context"`
}

type executeResponse struct {
	Deliverable string `json:"deliverable"`
	Summary     string `json:"summary"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// Reply is the service's answer to one execute call.
type Reply struct {
	Status      int
	Deliverable string
	Summary     string
	Error       string
}

// Execute runs one job. Non-2xx responses are reported through Reply.Error,
// not as a Go error.
func (c *Client) Execute(ctx context.Context, offering string, req model.Requirements, job model.JobContext) (Reply, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/jobs/"+url.PathEscape(offering)+"/execute",
		executeRequest{Requirements: req, Context: job})
	if err != nil {
		return Reply{}, err
	}
	reply := Reply{Status: status}
	if status != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			reply.Error = e.Message
		} else {
			reply.Error = strings.TrimSpace(string(body))
		}
		return reply, nil
	}
	var out executeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return reply, fmt.Errorf("decode execute response: %w", err)
	}
	reply.Deliverable, reply.Summary = out.Deliverable, out.Summary
	return reply, nil
}

// Results fetches GET /results. limit <= 0 fetches everything.
func (c *Client) Results(ctx context.Context, limit int) ([]model.Result, error) {
	path := "/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list results: status %d", status)
	}
	var out []model.Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
