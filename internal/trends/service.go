// Package trends serves historical interest lookups: cached series when
// available, the trend agent when reachable, and a deterministic synthetic
// series when it is not.
package trends

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/trendscout/trendscout/internal/agent"
	"github.com/trendscout/trendscout/internal/cache"
	"github.com/trendscout/trendscout/pkg/models"
)

// seriesTTL bounds how long a fetched series is served from cache.
const seriesTTL = time.Hour

// Request identifies one historical interest lookup.
type Request struct {
	Keywords  string
	Region    string
	StartYear int
	EndYear   int
}

// Service answers historical trend lookups.
type Service struct {
	agent  agent.Client
	cache  cache.Cache
	logger *slog.Logger
}

// NewService creates a trends Service.
func NewService(agentClient agent.Client, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{agent: agentClient, cache: c, logger: logger}
}

// Historical returns the interest series for req. Cache hits are served
// directly; misses go to the agent; an unreachable agent degrades to a
// synthetic series rather than an error.
func (s *Service) Historical(ctx context.Context, req Request) (*models.TrendSeries, error) {
	key := cache.TrendSeriesKey(req.Keywords, req.Region, req.StartYear, req.EndYear)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("trend cache read failed", "error", err)
	} else if ok {
		var series models.TrendSeries
		if err := json.Unmarshal(data, &series); err == nil {
			return &series, nil
		}
		s.logger.Warn("discarding malformed cached trend series", "key", key)
	}

	series, err := s.agent.HistoricalTrends(ctx, agent.HistoricalRequest{
		Keywords:  req.Keywords,
		Region:    req.Region,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
	})
	if err != nil {
		s.logger.Warn("trend agent unavailable, serving synthetic series",
			"keywords", req.Keywords, "error", err)
		return SyntheticSeries(req.Keywords, req.Region, req.StartYear, req.EndYear), nil
	}

	if data, err := json.Marshal(series); err == nil {
		if err := s.cache.Set(ctx, key, data, seriesTTL); err != nil {
			s.logger.Warn("trend cache write failed", "error", err)
		}
	}

	return series, nil
}
