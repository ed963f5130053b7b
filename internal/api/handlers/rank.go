package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"farm-market/internal/analysis"
	"farm-market/internal/api/models"
	"farm-market/internal/config"
	"farm-market/internal/model"

	"github.com/gin-gonic/gin"
)

// MarketStore is the price history the handlers read and write.
type MarketStore interface {
	Series(ctx context.Context, crops []string) ([]model.MarketTrendSeries, error)
	AddSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error)
	ReplaceSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error)
	Crops(ctx context.Context) ([]string, error)
}

// RankHandler handles ranking-related requests
type RankHandler struct {
	scoring config.ScoringConfig
	store   MarketStore
}

// NewRankHandler creates a new rank handler. store may be nil, in which case
// useStoredMarket requests are rejected.
func NewRankHandler(scoring config.ScoringConfig, store MarketStore) *RankHandler {
	return &RankHandler{scoring: scoring, store: store}
}

// RankCrops handles POST /api/v1/rank
func (h *RankHandler) RankCrops(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInputError(c, err)
		return
	}

	weights := h.weightsFor(req.Weights)
	if err := weights.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_WEIGHTS", err.Error(), nil)
		return
	}

	trends := req.MarketTrends
	source := models.MarketSourceRequest
	switch {
	case len(trends) > 0:
	case req.UseStoredMarket:
		if h.store == nil {
			respondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Price store is not configured", nil)
			return
		}
		crops := make([]string, 0, len(req.AgronomicRanking))
		for _, e := range req.AgronomicRanking {
			crops = append(crops, e.CropName)
		}
		stored, err := h.store.Series(c.Request.Context(), crops)
		if err != nil {
			log.Printf("RankHandler: Failed to read stored prices: %v", err)
			respondError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to read stored prices", nil)
			return
		}
		trends = stored
		source = models.MarketSourceStore
	}
	if len(trends) == 0 {
		source = models.MarketSourceNone
	}

	result, err := analysis.AdjustRanking(req.AgronomicRanking, trends, weights)
	if err != nil {
		var ive *model.InvalidValueError
		if errors.As(err, &ive) {
			respondInputError(c, err)
			return
		}
		respondError(c, http.StatusInternalServerError, "RANKING_ERROR", err.Error(), nil)
		return
	}

	rankings := result.Rankings
	if req.Limit > 0 && req.Limit < len(rankings) {
		rankings = rankings[:req.Limit]
	}

	c.JSON(http.StatusOK, models.RankResponse{
		Rankings:       rankings,
		MarketAdjusted: result.MarketAdjusted,
		MarketSource:   source,
		TrendCount:     len(result.Trends),
	})
}

func (h *RankHandler) weightsFor(o *models.ScoringOverride) analysis.Weights {
	scoring := h.scoring
	if o != nil {
		scoring = config.MergeScoring(scoring, config.ScoringConfig{
			AgronomicWeight:   o.AgronomicWeight,
			MarketWeight:      o.MarketWeight,
			SlopeWindow:       o.SlopeWindow,
			ProfitImpactScale: o.ProfitImpactScale,
		})
	}
	return scoring.ToWeights()
}
