// Package agent talks to the external trend agent: the backend that parses
// the query, scrapes listings, scores them, and writes clusters straight into
// the database. The API server only dispatches work to it and proxies
// historical-trend lookups.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/trendscout/trendscout/pkg/models"
)

// Sentinel errors for trend agent failures.
var (
	ErrAgentUnreachable = errors.New("trend agent unreachable")
	ErrAgentTimeout     = errors.New("trend agent timeout")
	ErrAgentError       = errors.New("trend agent error")
)

// Client is the interface for dispatching work to the trend agent.
type Client interface {
	// DispatchSearch hands a newly created search request to the agent. The
	// agent acknowledges and processes asynchronously, writing results
	// directly to the database.
	DispatchSearch(ctx context.Context, req DispatchRequest) error
	// HistoricalTrends proxies a historical interest lookup.
	HistoricalTrends(ctx context.Context, req HistoricalRequest) (*models.TrendSeries, error)
}

// DispatchRequest identifies the search the agent should process.
type DispatchRequest struct {
	RequestID int64  `json:"request_id"`
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
}

// HistoricalRequest asks for monthly interest data over a year range.
type HistoricalRequest struct {
	Keywords  string `json:"keywords"`
	Region    string `json:"region"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

// HTTPClient implements Client against the agent's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new agent HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) DispatchSearch(ctx context.Context, req DispatchRequest) error {
	resp, err := c.post(ctx, "/search", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: status %d", ErrAgentError, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) HistoricalTrends(ctx context.Context, req HistoricalRequest) (*models.TrendSeries, error) {
	resp, err := c.post(ctx, "/trends/historical", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAgentError, resp.StatusCode)
	}

	var series models.TrendSeries
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return nil, fmt.Errorf("decoding agent response: %w", err)
	}
	return &series, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrAgentTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAgentTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAgentUnreachable, err)
}

// Disabled is the Client used when no agent URL is configured. Every call
// reports the agent as unreachable so callers take their degraded paths.
type Disabled struct{}

func (Disabled) DispatchSearch(_ context.Context, _ DispatchRequest) error {
	return ErrAgentUnreachable
}

func (Disabled) HistoricalTrends(_ context.Context, _ HistoricalRequest) (*models.TrendSeries, error) {
	return nil, ErrAgentUnreachable
}

// Compile-time interface checks.
var _ Client = (*HTTPClient)(nil)
var _ Client = Disabled{}
