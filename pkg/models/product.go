package models

import "time"

// ProductMetric is a single scraped product observation.
//
// The embedding vector stored alongside each row is deliberately absent from
// this struct: it is 1536 floats, write-only from the API's perspective, and
// must never appear in a response body. The store accepts it only as a
// separate argument on the write path.
type ProductMetric struct {
	ID               int64     `db:"id"                json:"id"`
	RequestID        int64     `db:"request_id"        json:"-"`
	ClusterID        *int64    `db:"cluster_id"        json:"clusterId"`
	KeywordSearched  string    `db:"keyword_searched"  json:"keywordSearched"`
	Platform         string    `db:"platform"          json:"platform"`
	UniqueID         string    `db:"unique_id"         json:"uniqueId"`
	Description      string    `db:"description"       json:"description"`
	Price            float64   `db:"price"             json:"price"`
	Currency         string    `db:"currency"          json:"currency"`
	ImageURL         string    `db:"image_url"         json:"imageUrl"`
	PlatformCategory string    `db:"platform_category" json:"platformCategory"`
	PlatformRegion   string    `db:"platform_region"   json:"platformRegion"`
	Rating           float64   `db:"rating"            json:"rating"`
	ReviewCount      int       `db:"review_count"      json:"reviewCount"`
	SalesLastMonth   int       `db:"sales_last_month"  json:"salesLastMonth"`
	SearchRanking    int       `db:"search_ranking"    json:"searchRanking"`
	Sponsored        bool      `db:"sponsored"         json:"sponsored"`
	Score            float64   `db:"score"             json:"score"`
	CreatedAt        time.Time `db:"created_at"        json:"-"`
}
