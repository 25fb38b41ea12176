// Package mock provides a configurable agent.Client for tests.
package mock

import (
	"context"

	"github.com/trendscout/trendscout/internal/agent"
	"github.com/trendscout/trendscout/pkg/models"
)

// Client satisfies agent.Client for testing.
type Client struct {
	DispatchSearchFunc   func(ctx context.Context, req agent.DispatchRequest) error
	HistoricalTrendsFunc func(ctx context.Context, req agent.HistoricalRequest) (*models.TrendSeries, error)

	Dispatched []agent.DispatchRequest
}

func (c *Client) DispatchSearch(ctx context.Context, req agent.DispatchRequest) error {
	c.Dispatched = append(c.Dispatched, req)
	if c.DispatchSearchFunc != nil {
		return c.DispatchSearchFunc(ctx, req)
	}
	return nil
}

func (c *Client) HistoricalTrends(ctx context.Context, req agent.HistoricalRequest) (*models.TrendSeries, error) {
	if c.HistoricalTrendsFunc != nil {
		return c.HistoricalTrendsFunc(ctx, req)
	}
	return &models.TrendSeries{
		Keywords:  req.Keywords,
		Region:    req.Region,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Data:      []models.TrendPoint{{Year: req.StartYear, Month: "Jan", Value: 50}},
	}, nil
}

// NewUnreachable returns a Client that always reports the agent as down.
func NewUnreachable() *Client {
	return &Client{
		DispatchSearchFunc: func(_ context.Context, _ agent.DispatchRequest) error {
			return agent.ErrAgentUnreachable
		},
		HistoricalTrendsFunc: func(_ context.Context, _ agent.HistoricalRequest) (*models.TrendSeries, error) {
			return nil, agent.ErrAgentUnreachable
		},
	}
}

// Compile-time check that Client implements agent.Client.
var _ agent.Client = (*Client)(nil)
