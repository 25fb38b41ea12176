package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/trendscout/trendscout/internal/api/response"
	"github.com/trendscout/trendscout/internal/trends"
	"github.com/trendscout/trendscout/pkg/models"
)

// Interest data starts in 2004; nothing older exists to look up.
const minTrendYear = 2004

// TrendsService defines the historical lookup the handler depends on.
type TrendsService interface {
	Historical(ctx context.Context, req trends.Request) (*models.TrendSeries, error)
}

// NewTimeMachineHandler returns an http.HandlerFunc for POST /api/v1/trends/time-machine.
func NewTimeMachineHandler(svc TrendsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductKeywords string `json:"productKeywords"`
			Region          string `json:"region"`
			StartYear       int    `json:"startYear"`
			EndYear         int    `json:"endYear"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		keywords := strings.TrimSpace(req.ProductKeywords)
		if keywords == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"productKeywords is required", nil)
			return
		}

		region := strings.TrimSpace(req.Region)
		if len(region) < 2 || len(region) > 10 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"region must be between 2 and 10 characters", nil)
			return
		}

		currentYear := time.Now().Year()
		if req.StartYear < minTrendYear || req.StartYear > currentYear {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"startYear is out of range", nil)
			return
		}
		if req.EndYear < minTrendYear || req.EndYear > currentYear {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"endYear is out of range", nil)
			return
		}
		if req.EndYear < req.StartYear {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"endYear must not precede startYear", nil)
			return
		}

		series, err := svc.Historical(r.Context(), trends.Request{
			Keywords:  keywords,
			Region:    region,
			StartYear: req.StartYear,
			EndYear:   req.EndYear,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, series)
	}
}
