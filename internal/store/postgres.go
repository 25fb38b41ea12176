package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trendscout/trendscout/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at, updated_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Search Requests ---

func (s *PostgresStore) CreateSearchRequest(ctx context.Context, req *models.SearchRequest) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO search_requests (user_id, query)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		req.UserID, req.Query,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create search request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSearchRequest(ctx context.Context, id int64) (*models.SearchRequest, error) {
	var r models.SearchRequest
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, query, created_at, updated_at FROM search_requests WHERE id = $1`, id,
	).Scan(&r.ID, &r.UserID, &r.Query, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get search request: %w", err)
	}
	return &r, nil
}

// DeleteSearchRequest removes a request; criteria, clusters, and metrics go
// with it via ON DELETE CASCADE. Ownership is the caller's responsibility —
// the service layer checks it before calling here.
func (s *PostgresStore) DeleteSearchRequest(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM search_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete search request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSearchRequests(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_requests WHERE user_id = $1`, filter.UserID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search requests: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.user_id, r.query, r.created_at, r.updated_at,
		        c.id, c.primary_keywords, c.negative_keywords, c.target_region,
		        c.price_min, c.price_max, c.currency, c.vertical_category, c.time_horizon_in_months,
		        COUNT(DISTINCT pc.id) AS clusters_count,
		        COUNT(DISTINCT pm.id) AS products_count
		 FROM search_requests r
		 LEFT JOIN search_criteria c ON c.request_id = r.id
		 LEFT JOIN product_clusters pc ON pc.request_id = r.id
		 LEFT JOIN product_metrics pm ON pm.request_id = r.id
		 WHERE r.user_id = $1
		 GROUP BY r.id, c.id
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		filter.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list search requests: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var critID *int64
		var crit models.SearchCriteria
		var primaryKw, negativeKw, region, currency, category *string
		var priceMin, priceMax, horizon *int
		if err := rows.Scan(&e.Request.ID, &e.Request.UserID, &e.Request.Query,
			&e.Request.CreatedAt, &e.Request.UpdatedAt,
			&critID, &primaryKw, &negativeKw, &region,
			&priceMin, &priceMax, &currency, &category, &horizon,
			&e.ClustersCount, &e.ProductsCount); err != nil {
			return nil, 0, fmt.Errorf("scan history entry: %w", err)
		}
		if critID != nil {
			crit.ID = *critID
			crit.RequestID = e.Request.ID
			crit.PrimaryKeywords = deref(primaryKw)
			crit.NegativeKeywords = deref(negativeKw)
			crit.TargetRegion = deref(region)
			crit.PriceMin = derefInt(priceMin)
			crit.PriceMax = derefInt(priceMax)
			crit.Currency = deref(currency)
			crit.VerticalCategory = deref(category)
			crit.TimeHorizonMonths = derefInt(horizon)
			e.Criteria = &crit
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}

// --- Criteria / Clusters / Metrics ---

func (s *PostgresStore) GetSearchCriteria(ctx context.Context, requestID int64) (*models.SearchCriteria, error) {
	var c models.SearchCriteria
	err := s.pool.QueryRow(ctx,
		`SELECT id, request_id, primary_keywords, negative_keywords, target_region,
		        price_min, price_max, currency, vertical_category, time_horizon_in_months
		 FROM search_criteria WHERE request_id = $1`, requestID,
	).Scan(&c.ID, &c.RequestID, &c.PrimaryKeywords, &c.NegativeKeywords, &c.TargetRegion,
		&c.PriceMin, &c.PriceMax, &c.Currency, &c.VerticalCategory, &c.TimeHorizonMonths)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get search criteria: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListClustersByRequest(ctx context.Context, requestID int64) ([]*models.ProductCluster, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, label, trend_keywords, trend_final_score, trend_label,
		        trend_explanation, trend_search_score, trend_market_score, trend_slope,
		        trend_volatility, trend_sales_volume, trend_saturation_ratio, cluster_size,
		        min_price, max_price, average_price, average_sales_last_month, average_rating,
		        average_review_count, average_search_ranking, average_product_score, created_at
		 FROM product_clusters WHERE request_id = $1 ORDER BY trend_final_score DESC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*models.ProductCluster
	for rows.Next() {
		var c models.ProductCluster
		if err := rows.Scan(&c.ID, &c.RequestID, &c.Label, &c.TrendKeywords, &c.TrendFinalScore,
			&c.TrendLabel, &c.TrendExplanation, &c.TrendSearchScore, &c.TrendMarketScore,
			&c.TrendSlope, &c.TrendVolatility, &c.TrendSalesVolume, &c.TrendSaturationRatio,
			&c.ClusterSize, &c.MinPrice, &c.MaxPrice, &c.AveragePrice, &c.AverageSalesLastMonth,
			&c.AverageRating, &c.AverageReviewCount, &c.AverageSearchRanking,
			&c.AverageProductScore, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		clusters = append(clusters, &c)
	}
	return clusters, rows.Err()
}

// ListProductsByCluster returns up to limit products ordered by score
// descending. The embedding column is never part of the select list.
func (s *PostgresStore) ListProductsByCluster(ctx context.Context, clusterID int64, limit int) ([]*models.ProductMetric, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, cluster_id, keyword_searched, platform, unique_id, description,
		        price, currency, image_url, platform_category, platform_region, rating,
		        review_count, sales_last_month, search_ranking, sponsored, score, created_at
		 FROM product_metrics WHERE cluster_id = $1 ORDER BY score DESC LIMIT $2`, clusterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*models.ProductMetric
	for rows.Next() {
		var p models.ProductMetric
		if err := rows.Scan(&p.ID, &p.RequestID, &p.ClusterID, &p.KeywordSearched, &p.Platform,
			&p.UniqueID, &p.Description, &p.Price, &p.Currency, &p.ImageURL, &p.PlatformCategory,
			&p.PlatformRegion, &p.Rating, &p.ReviewCount, &p.SalesLastMonth, &p.SearchRanking,
			&p.Sponsored, &p.Score, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) CreateSearchCriteria(ctx context.Context, c *models.SearchCriteria) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO search_criteria (request_id, primary_keywords, negative_keywords, target_region,
		        price_min, price_max, currency, vertical_category, time_horizon_in_months)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		c.RequestID, c.PrimaryKeywords, c.NegativeKeywords, c.TargetRegion,
		c.PriceMin, c.PriceMax, c.Currency, c.VerticalCategory, c.TimeHorizonMonths,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create search criteria: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProductCluster(ctx context.Context, cluster *models.ProductCluster) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO product_clusters (request_id, label, trend_keywords, trend_final_score,
		        trend_label, trend_explanation, trend_search_score, trend_market_score, trend_slope,
		        trend_volatility, trend_sales_volume, trend_saturation_ratio, cluster_size,
		        min_price, max_price, average_price, average_sales_last_month, average_rating,
		        average_review_count, average_search_ranking, average_product_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		 RETURNING id`,
		cluster.RequestID, cluster.Label, cluster.TrendKeywords, cluster.TrendFinalScore,
		cluster.TrendLabel, cluster.TrendExplanation, cluster.TrendSearchScore,
		cluster.TrendMarketScore, cluster.TrendSlope, cluster.TrendVolatility,
		cluster.TrendSalesVolume, cluster.TrendSaturationRatio, cluster.ClusterSize,
		cluster.MinPrice, cluster.MaxPrice, cluster.AveragePrice, cluster.AverageSalesLastMonth,
		cluster.AverageRating, cluster.AverageReviewCount, cluster.AverageSearchRanking,
		cluster.AverageProductScore, cluster.CreatedAt,
	).Scan(&cluster.ID)
	if err != nil {
		return fmt.Errorf("create product cluster: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProductMetric(ctx context.Context, metric *models.ProductMetric, embedding []float32) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO product_metrics (request_id, cluster_id, keyword_searched, platform, unique_id,
		        description, price, currency, image_url, platform_category, platform_region,
		        rating, review_count, sales_last_month, search_ranking, sponsored, score,
		        embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id`,
		metric.RequestID, metric.ClusterID, metric.KeywordSearched, metric.Platform,
		metric.UniqueID, metric.Description, metric.Price, metric.Currency, metric.ImageURL,
		metric.PlatformCategory, metric.PlatformRegion, metric.Rating, metric.ReviewCount,
		metric.SalesLastMonth, metric.SearchRanking, metric.Sponsored, metric.Score,
		embedding, metric.CreatedAt,
	).Scan(&metric.ID)
	if err != nil {
		return fmt.Errorf("create product metric: %w", err)
	}
	return nil
}

// --- helpers ---

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
