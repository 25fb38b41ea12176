package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/trendscout/trendscout/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateSearchRequest(ctx context.Context, req *models.SearchRequest) error
	GetSearchRequest(ctx context.Context, id int64) (*models.SearchRequest, error)
	DeleteSearchRequest(ctx context.Context, id int64) error
	ListSearchRequests(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, int, error)

	GetSearchCriteria(ctx context.Context, requestID int64) (*models.SearchCriteria, error)
	ListClustersByRequest(ctx context.Context, requestID int64) ([]*models.ProductCluster, error)
	ListProductsByCluster(ctx context.Context, clusterID int64, limit int) ([]*models.ProductMetric, error)

	// Write paths used by the trend agent's contract (and by tests that
	// stand in for the agent). CreateProductMetric takes the embedding as a
	// separate write-only argument; it never appears on the model.
	CreateSearchCriteria(ctx context.Context, c *models.SearchCriteria) error
	CreateProductCluster(ctx context.Context, cluster *models.ProductCluster) error
	CreateProductMetric(ctx context.Context, metric *models.ProductMetric, embedding []float32) error
}

// HistoryFilter selects a page of one user's search requests.
type HistoryFilter struct {
	UserID uuid.UUID
	Page   int
	Limit  int
}

// HistoryEntry is one row of the history listing: the request plus the
// aggregate counts the status derivation and the UI summary need.
type HistoryEntry struct {
	Request       models.SearchRequest
	Criteria      *models.SearchCriteria
	ClustersCount int
	ProductsCount int
}
