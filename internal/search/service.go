// Package search implements the search request lifecycle: submission,
// result assembly with derived status, history, and deletion.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trendscout/trendscout/internal/agent"
	"github.com/trendscout/trendscout/internal/cache"
	"github.com/trendscout/trendscout/internal/store"
	"github.com/trendscout/trendscout/pkg/models"
)

// ErrForbidden is returned when a user addresses a request they do not own.
var ErrForbidden = errors.New("request belongs to another user")

// maxProductsPerCluster bounds how many products a cluster carries on read
// paths. Clusters can hold far more rows; only the top-scored ones are shown.
const maxProductsPerCluster = 10

// Notifier publishes change events. *notify.Publisher satisfies this.
type Notifier interface {
	SearchChanged(ctx context.Context, requestID int64) error
	SearchesChanged(ctx context.Context) error
}

// ClusterWithProducts pairs a cluster with its top products.
type ClusterWithProducts struct {
	models.ProductCluster
	Products []models.ProductMetric `json:"products"`
}

// Results is the assembled representation of one search request.
type Results struct {
	RequestID     int64                  `json:"requestId"`
	Query         string                 `json:"query"`
	CreatedAt     time.Time              `json:"createdAt"`
	Status        string                 `json:"status"`
	Criteria      *models.SearchCriteria `json:"searchCriteria"`
	Clusters      []ClusterWithProducts  `json:"clusters"`
	TotalClusters int                    `json:"totalClusters"`
	TotalProducts int                    `json:"totalProducts"`
}

// HistoryItem is one entry of the paginated history listing.
type HistoryItem struct {
	ID            int64                  `json:"id"`
	Query         string                 `json:"query"`
	CreatedAt     time.Time              `json:"createdAt"`
	Criteria      *models.SearchCriteria `json:"searchCriteria"`
	ClustersCount int                    `json:"clustersCount"`
	ProductsCount int                    `json:"productsCount"`
	Status        string                 `json:"status"`
}

// Service owns the search request lifecycle.
type Service struct {
	store    store.Store
	cache    cache.Cache
	agent    agent.Client
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a search Service.
func NewService(s store.Store, c cache.Cache, a agent.Client, n Notifier, logger *slog.Logger) *Service {
	return &Service{store: s, cache: c, agent: a, notifier: n, logger: logger}
}

// Create records a new search request and dispatches it to the trend agent.
// The local row is written first, so the request exists and is pollable even
// when the agent is down; a failed dispatch is logged, never surfaced.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, query string) (*models.SearchRequest, error) {
	req := &models.SearchRequest{UserID: userID, Query: query}
	if err := s.store.CreateSearchRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	if err := s.agent.DispatchSearch(ctx, agent.DispatchRequest{
		RequestID: req.ID,
		Query:     req.Query,
		UserID:    userID.String(),
	}); err != nil {
		s.logger.Warn("trend agent dispatch failed, request recorded locally",
			"request_id", req.ID, "error", err)
	}

	if err := s.notifier.SearchesChanged(ctx); err != nil {
		s.logger.Warn("publishing searches-changed failed", "error", err)
	}

	return req, nil
}

// Results assembles the full representation of a request: clusters ordered by
// trend score, each carrying its top products, with the status derived from
// the cluster count. Returns store.ErrNotFound for unknown ids and
// ErrForbidden when userID is not the owner.
func (s *Service) Results(ctx context.Context, userID uuid.UUID, requestID int64) (*Results, error) {
	req, err := s.store.GetSearchRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrForbidden
	}

	clusters, err := s.store.ListClustersByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("listing clusters: %w", err)
	}

	results := &Results{
		RequestID:     req.ID,
		Query:         req.Query,
		CreatedAt:     req.CreatedAt,
		Status:        models.DeriveStatus(len(clusters)),
		Clusters:      make([]ClusterWithProducts, 0, len(clusters)),
		TotalClusters: len(clusters),
	}

	for _, c := range clusters {
		products, err := s.store.ListProductsByCluster(ctx, c.ID, maxProductsPerCluster)
		if err != nil {
			return nil, fmt.Errorf("listing products for cluster %d: %w", c.ID, err)
		}
		cwp := ClusterWithProducts{ProductCluster: *c, Products: make([]models.ProductMetric, 0, len(products))}
		for _, p := range products {
			cwp.Products = append(cwp.Products, *p)
		}
		results.TotalProducts += len(products)
		results.Clusters = append(results.Clusters, cwp)
	}

	criteria, err := s.store.GetSearchCriteria(ctx, requestID)
	switch {
	case err == nil:
		results.Criteria = criteria
	case errors.Is(err, store.ErrNotFound):
		// Agent has not written criteria yet.
	default:
		return nil, fmt.Errorf("fetching criteria: %w", err)
	}

	s.publishOnTransition(ctx, requestID, results.Status)

	return results, nil
}

// publishOnTransition remembers the last derived status per request and
// publishes change events when a request crosses from processing to
// completed, so subscribed watchers refetch immediately instead of waiting
// out their poll interval. Cache failures degrade to no notification.
func (s *Service) publishOnTransition(ctx context.Context, requestID int64, status string) {
	key := cache.SearchStatusKey(requestID)

	prev, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("status cache read failed", "request_id", requestID, "error", err)
		return
	}

	if ok && string(prev) == status {
		return
	}

	if err := s.cache.Set(ctx, key, []byte(status), 24*time.Hour); err != nil {
		s.logger.Warn("status cache write failed", "request_id", requestID, "error", err)
	}

	if ok && string(prev) == models.StatusProcessing && status == models.StatusCompleted {
		if err := s.notifier.SearchChanged(ctx, requestID); err != nil {
			s.logger.Warn("publishing search-changed failed", "request_id", requestID, "error", err)
		}
		if err := s.notifier.SearchesChanged(ctx); err != nil {
			s.logger.Warn("publishing searches-changed failed", "error", err)
		}
	}
}

// History returns one page of the user's search requests, newest first, each
// with its derived status and aggregate counts.
func (s *Service) History(ctx context.Context, userID uuid.UUID, page, limit int) ([]HistoryItem, int, error) {
	entries, total, err := s.store.ListSearchRequests(ctx, store.HistoryFilter{
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing search requests: %w", err)
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{
			ID:            e.Request.ID,
			Query:         e.Request.Query,
			CreatedAt:     e.Request.CreatedAt,
			Criteria:      e.Criteria,
			ClustersCount: e.ClustersCount,
			ProductsCount: e.ProductsCount,
			Status:        models.DeriveStatus(e.ClustersCount),
		})
	}
	return items, total, nil
}

// Delete removes a request and everything attached to it (criteria, clusters,
// and metrics go with it via cascade). Returns store.ErrNotFound for unknown
// ids and ErrForbidden when userID is not the owner.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, requestID int64) error {
	req, err := s.store.GetSearchRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != userID {
		return ErrForbidden
	}

	if err := s.store.DeleteSearchRequest(ctx, requestID); err != nil {
		return fmt.Errorf("deleting search request: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.SearchStatusKey(requestID)); err != nil {
		s.logger.Warn("status cache delete failed", "request_id", requestID, "error", err)
	}

	if err := s.notifier.SearchesChanged(ctx); err != nil {
		s.logger.Warn("publishing searches-changed failed", "error", err)
	}

	return nil
}
