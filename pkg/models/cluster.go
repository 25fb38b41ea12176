package models

import "time"

// ProductCluster is a group of related product listings sharing a trend
// signal, produced by the agent's clustering step. Clusters are ordered by
// TrendFinalScore descending on all read paths.
type ProductCluster struct {
	ID                   int64     `db:"id"                       json:"id"`
	RequestID            int64     `db:"request_id"               json:"-"`
	Label                int       `db:"label"                    json:"label"`
	TrendKeywords        []string  `db:"trend_keywords"           json:"trendKeywords"`
	TrendFinalScore      float64   `db:"trend_final_score"        json:"trendFinalScore"`
	TrendLabel           string    `db:"trend_label"              json:"trendLabel"`
	TrendExplanation     string    `db:"trend_explanation"        json:"trendExplanation"`
	TrendSearchScore     float64   `db:"trend_search_score"       json:"trendSearchScore"`
	TrendMarketScore     float64   `db:"trend_market_score"       json:"trendMarketScore"`
	TrendSlope           float64   `db:"trend_slope"              json:"trendSlope"`
	TrendVolatility      float64   `db:"trend_volatility"         json:"trendVolatility"`
	TrendSalesVolume     int       `db:"trend_sales_volume"       json:"trendSalesVolume"`
	TrendSaturationRatio float64   `db:"trend_saturation_ratio"   json:"trendSaturationRatio"`
	ClusterSize          int       `db:"cluster_size"             json:"clusterSize"`
	MinPrice             float64   `db:"min_price"                json:"minPrice"`
	MaxPrice             float64   `db:"max_price"                json:"maxPrice"`
	AveragePrice         float64   `db:"average_price"            json:"averagePrice"`
	AverageSalesLastMonth int      `db:"average_sales_last_month" json:"averageSalesLastMonth"`
	AverageRating        float64   `db:"average_rating"           json:"averageRating"`
	AverageReviewCount   int       `db:"average_review_count"     json:"averageReviewCount"`
	AverageSearchRanking int       `db:"average_search_ranking"   json:"averageSearchRanking"`
	AverageProductScore  float64   `db:"average_product_score"    json:"averageProductScore"`
	CreatedAt            time.Time `db:"created_at"               json:"createdAt"`
}
