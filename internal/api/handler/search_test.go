package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/trendscout/trendscout/internal/api/middleware"
	"github.com/trendscout/trendscout/internal/search"
	"github.com/trendscout/trendscout/internal/store"
	"github.com/trendscout/trendscout/pkg/models"
)

// --- mock SearchService ---

type mockSearchService struct {
	createFn  func(ctx context.Context, userID uuid.UUID, query string) (*models.SearchRequest, error)
	resultsFn func(ctx context.Context, userID uuid.UUID, requestID int64) (*search.Results, error)
	historyFn func(ctx context.Context, userID uuid.UUID, page, limit int) ([]search.HistoryItem, int, error)
	deleteFn  func(ctx context.Context, userID uuid.UUID, requestID int64) error
}

func (m *mockSearchService) Create(ctx context.Context, userID uuid.UUID, query string) (*models.SearchRequest, error) {
	return m.createFn(ctx, userID, query)
}

func (m *mockSearchService) Results(ctx context.Context, userID uuid.UUID, requestID int64) (*search.Results, error) {
	return m.resultsFn(ctx, userID, requestID)
}

func (m *mockSearchService) History(ctx context.Context, userID uuid.UUID, page, limit int) ([]search.HistoryItem, int, error) {
	return m.historyFn(ctx, userID, page, limit)
}

func (m *mockSearchService) Delete(ctx context.Context, userID uuid.UUID, requestID int64) error {
	return m.deleteFn(ctx, userID, requestID)
}

// --- helpers ---

func authedRequest(t *testing.T, method, target string, body any, userID uuid.UUID) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r.WithContext(mw.SetUserID(r.Context(), userID))
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return env.Error.Code
}

// --- create search ---

func TestCreateSearch_Accepted(t *testing.T) {
	var gotQuery string
	svc := &mockSearchService{
		createFn: func(_ context.Context, _ uuid.UUID, query string) (*models.SearchRequest, error) {
			gotQuery = query
			return &models.SearchRequest{ID: 7, Query: query}, nil
		},
	}

	h := NewCreateSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "trending pet gadgets"}, uuid.New()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		RequestID int64  `json:"requestId"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RequestID != 7 {
		t.Errorf("unexpected requestId: %d", body.RequestID)
	}
	if body.Status != models.StatusProcessing {
		t.Errorf("expected processing, got %s", body.Status)
	}
	if gotQuery != "trending pet gadgets" {
		t.Errorf("unexpected query passed to service: %q", gotQuery)
	}
}

func TestCreateSearch_QueryTooShort(t *testing.T) {
	svc := &mockSearchService{
		createFn: func(_ context.Context, _ uuid.UUID, _ string) (*models.SearchRequest, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	h := NewCreateSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "ab"}, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errCode(t, rec) != "VALIDATION_ERROR" {
		t.Errorf("unexpected error code")
	}
}

func TestCreateSearch_MinLengthAccepted(t *testing.T) {
	svc := &mockSearchService{
		createFn: func(_ context.Context, _ uuid.UUID, query string) (*models.SearchRequest, error) {
			return &models.SearchRequest{ID: 1, Query: query}, nil
		},
	}

	h := NewCreateSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "abc"}, uuid.New()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for 3-char query, got %d", rec.Code)
	}
}

func TestCreateSearch_QueryTooLong(t *testing.T) {
	svc := &mockSearchService{
		createFn: func(_ context.Context, _ uuid.UUID, _ string) (*models.SearchRequest, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	h := NewCreateSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/search",
		map[string]string{"query": strings.Repeat("x", 256)}, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateSearch_WhitespaceOnlyRejected(t *testing.T) {
	svc := &mockSearchService{
		createFn: func(_ context.Context, _ uuid.UUID, _ string) (*models.SearchRequest, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	h := NewCreateSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "        "}, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateSearch_NoUserInContext(t *testing.T) {
	h := NewCreateSearchHandler(&mockSearchService{})
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/search",
		strings.NewReader(`{"query":"valid query"}`))
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// --- get search ---

func getSearchRequest(t *testing.T, id string, userID uuid.UUID) *http.Request {
	t.Helper()
	r := authedRequest(t, http.MethodGet, "/api/v1/search/"+id, nil, userID)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("requestID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetSearch_Success(t *testing.T) {
	svc := &mockSearchService{
		resultsFn: func(_ context.Context, _ uuid.UUID, requestID int64) (*search.Results, error) {
			return &search.Results{
				RequestID: requestID,
				Query:     "desk accessories",
				Status:    models.StatusCompleted,
				Clusters: []search.ClusterWithProducts{{
					ProductCluster: models.ProductCluster{ID: 1, TrendFinalScore: 0.91},
					Products:       []models.ProductMetric{{ID: 10, Score: 0.8}},
				}},
				TotalClusters: 1,
				TotalProducts: 1,
			}, nil
		},
	}

	h := NewGetSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getSearchRequest(t, "42", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["requestId"] != float64(42) {
		t.Errorf("unexpected requestId: %v", body["requestId"])
	}
	if body["status"] != models.StatusCompleted {
		t.Errorf("unexpected status: %v", body["status"])
	}
}

func TestGetSearch_NoEmbeddingInResponse(t *testing.T) {
	svc := &mockSearchService{
		resultsFn: func(_ context.Context, _ uuid.UUID, requestID int64) (*search.Results, error) {
			return &search.Results{
				RequestID: requestID,
				Status:    models.StatusCompleted,
				Clusters: []search.ClusterWithProducts{{
					ProductCluster: models.ProductCluster{ID: 1},
					Products:       []models.ProductMetric{{ID: 10}},
				}},
			}, nil
		},
	}

	h := NewGetSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getSearchRequest(t, "1", uuid.New()))

	if strings.Contains(rec.Body.String(), "embedding") {
		t.Error("embedding leaked into response body")
	}
}

func TestGetSearch_NonNumericID(t *testing.T) {
	svc := &mockSearchService{
		resultsFn: func(_ context.Context, _ uuid.UUID, _ int64) (*search.Results, error) {
			t.Fatal("service must not be called for invalid id")
			return nil, nil
		},
	}

	h := NewGetSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getSearchRequest(t, "abc", uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetSearch_NotFound(t *testing.T) {
	svc := &mockSearchService{
		resultsFn: func(_ context.Context, _ uuid.UUID, _ int64) (*search.Results, error) {
			return nil, store.ErrNotFound
		},
	}

	h := NewGetSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getSearchRequest(t, "999", uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errCode(t, rec) != "RESOURCE_NOT_FOUND" {
		t.Errorf("unexpected error code")
	}
}

func TestGetSearch_Forbidden(t *testing.T) {
	svc := &mockSearchService{
		resultsFn: func(_ context.Context, _ uuid.UUID, _ int64) (*search.Results, error) {
			return nil, search.ErrForbidden
		},
	}

	h := NewGetSearchHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getSearchRequest(t, "5", uuid.New()))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if errCode(t, rec) != "FORBIDDEN" {
		t.Errorf("unexpected error code")
	}
}
