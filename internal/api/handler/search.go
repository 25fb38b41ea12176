// Package handler contains the HTTP handlers for the TrendScout API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/trendscout/trendscout/internal/api/middleware"
	"github.com/trendscout/trendscout/internal/api/response"
	"github.com/trendscout/trendscout/internal/search"
	"github.com/trendscout/trendscout/internal/store"
	"github.com/trendscout/trendscout/pkg/models"
)

// Query length bounds enforced before anything touches the database.
const (
	minQueryLen = 3
	maxQueryLen = 255
)

// SearchService defines the search operations the handlers depend on.
type SearchService interface {
	Create(ctx context.Context, userID uuid.UUID, query string) (*models.SearchRequest, error)
	Results(ctx context.Context, userID uuid.UUID, requestID int64) (*search.Results, error)
	History(ctx context.Context, userID uuid.UUID, page, limit int) ([]search.HistoryItem, int, error)
	Delete(ctx context.Context, userID uuid.UUID, requestID int64) error
}

// NewCreateSearchHandler returns an http.HandlerFunc for POST /api/v1/search.
func NewCreateSearchHandler(svc SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		query := strings.TrimSpace(req.Query)
		if len(query) < minQueryLen || len(query) > maxQueryLen {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"query must be between 3 and 255 characters", nil)
			return
		}

		created, err := svc.Create(r.Context(), userID, query)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"requestId": created.ID,
			"status":    models.StatusProcessing,
		})
	}
}

// NewGetSearchHandler returns an http.HandlerFunc for GET /api/v1/search/{requestID}.
func NewGetSearchHandler(svc SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		requestID, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
		if err != nil || requestID <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"requestID must be a positive integer", nil)
			return
		}

		results, err := svc.Results(r.Context(), userID, requestID)
		if err != nil {
			writeSearchError(w, err)
			return
		}

		response.JSON(w, results)
	}
}

func writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND",
			"Search request not found", nil)
	case errors.Is(err, search.ErrForbidden):
		response.Error(w, http.StatusForbidden, "FORBIDDEN",
			"Search request belongs to another user", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
