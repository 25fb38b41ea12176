// Package client is the Go SDK for the TrendScout HTTP API. It is what the
// polling and notification machinery in pkg/watch fetches through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trendscout/trendscout/pkg/models"
)

// Sentinel errors mapped from API status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Client calls the TrendScout API with a Bearer API key.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a Client. baseURL is the server root, e.g. "http://localhost:8080".
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateSearchResponse is the acknowledgement for a submitted search.
type CreateSearchResponse struct {
	RequestID int64  `json:"requestId"`
	Status    string `json:"status"`
}

// ClusterWithProducts is a cluster plus its top products.
type ClusterWithProducts struct {
	models.ProductCluster
	Products []models.ProductMetric `json:"products"`
}

// SearchResults is the full representation of a search request.
type SearchResults struct {
	RequestID     int64                  `json:"requestId"`
	Query         string                 `json:"query"`
	CreatedAt     time.Time              `json:"createdAt"`
	Status        string                 `json:"status"`
	Criteria      *models.SearchCriteria `json:"searchCriteria"`
	Clusters      []ClusterWithProducts  `json:"clusters"`
	TotalClusters int                    `json:"totalClusters"`
	TotalProducts int                    `json:"totalProducts"`
}

// HistoryItem is one entry of the paginated search history.
type HistoryItem struct {
	ID            int64                  `json:"id"`
	Query         string                 `json:"query"`
	CreatedAt     time.Time              `json:"createdAt"`
	Criteria      *models.SearchCriteria `json:"searchCriteria"`
	ClustersCount int                    `json:"clustersCount"`
	ProductsCount int                    `json:"productsCount"`
	Status        string                 `json:"status"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HistoryResponse is the paginated search history.
type HistoryResponse struct {
	History    []HistoryItem `json:"history"`
	Pagination Pagination    `json:"pagination"`
}

// TimeMachineRequest asks for historical interest data.
type TimeMachineRequest struct {
	ProductKeywords string `json:"productKeywords"`
	Region          string `json:"region"`
	StartYear       int    `json:"startYear"`
	EndYear         int    `json:"endYear"`
}

// CreateSearch submits a query and returns the new request's identifier.
func (c *Client) CreateSearch(ctx context.Context, query string) (*CreateSearchResponse, error) {
	var out CreateSearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSearch fetches a request's current status and results.
func (c *Client) GetSearch(ctx context.Context, requestID int64) (*SearchResults, error) {
	var out SearchResults
	path := "/api/v1/search/" + strconv.FormatInt(requestID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches one page of the caller's search history.
func (c *Client) History(ctx context.Context, page, limit int) (*HistoryResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/history"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSearch removes a request and everything attached to it.
func (c *Client) DeleteSearch(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/history", map[string]int64{"requestId": requestID}, nil)
}

// TimeMachine fetches the historical interest series for a keyword set.
func (c *Client) TimeMachine(ctx context.Context, req TimeMachineRequest) (*models.TrendSeries, error) {
	var out models.TrendSeries
	if err := c.do(ctx, http.MethodPost, "/api/v1/trends/time-machine", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = bytes.NewReader(b)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&env)

	msg := env.Error.Message
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	default:
		return fmt.Errorf("api error %d: %s", resp.StatusCode, msg)
	}
}
