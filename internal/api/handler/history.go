package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	mw "github.com/trendscout/trendscout/internal/api/middleware"
	"github.com/trendscout/trendscout/internal/api/response"
	"github.com/trendscout/trendscout/internal/search"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// NewHistoryHandler returns an http.HandlerFunc for GET /api/v1/history.
func NewHistoryHandler(svc SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		page := queryInt(r, "page", 1)
		if page < 1 {
			page = 1
		}
		limit := queryInt(r, "limit", defaultHistoryLimit)
		if limit < 1 {
			limit = defaultHistoryLimit
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		items, total, err := svc.History(r.Context(), userID, page, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if items == nil {
			items = []search.HistoryItem{}
		}

		totalPages := (total + limit - 1) / limit
		response.JSON(w, map[string]any{
			"history": items,
			"pagination": response.Pagination{
				Page:       page,
				Limit:      limit,
				Total:      total,
				TotalPages: totalPages,
			},
		})
	}
}

// NewDeleteSearchHandler returns an http.HandlerFunc for DELETE /api/v1/history.
// The target request id rides in the body, matching how the UI calls it.
func NewDeleteSearchHandler(svc SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			RequestID int64 `json:"requestId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.RequestID <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"requestId must be a positive integer", nil)
			return
		}

		if err := svc.Delete(r.Context(), userID, req.RequestID); err != nil {
			writeSearchError(w, err)
			return
		}

		response.JSON(w, map[string]any{"success": true})
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
