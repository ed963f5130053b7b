package handlers

import (
	"log"
	"net/http"
	"sort"
	"strings"

	"farm-market/internal/analysis"
	"farm-market/internal/api/models"
	"farm-market/internal/config"
	"farm-market/internal/model"

	"github.com/gin-gonic/gin"
)

// MarketHandler handles price history and trend requests
type MarketHandler struct {
	scoring config.ScoringConfig
	store   MarketStore
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(scoring config.ScoringConfig, store MarketStore) *MarketHandler {
	return &MarketHandler{scoring: scoring, store: store}
}

// ExtractTrends handles POST /api/v1/trends
func (h *MarketHandler) ExtractTrends(c *gin.Context) {
	var req models.TrendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInputError(c, err)
		return
	}

	trends, err := analysis.ExtractTrends(req.MarketTrends)
	if err != nil {
		respondInputError(c, err)
		return
	}

	weights := h.scoring.ToWeights()
	keys := make([]string, 0, len(trends))
	for k := range trends {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resp := models.TrendsResponse{Trends: make([]models.TrendInfo, 0, len(keys))}
	for _, k := range keys {
		t := trends[k]
		resp.Trends = append(resp.Trends, models.TrendInfo{
			Crop:         t.Crop,
			Points:       t.Points,
			Slope:        t.Slope,
			CurrentPrice: t.CurrentPrice,
			MinPrice:     t.MinPrice,
			MaxPrice:     t.MaxPrice,
			MeanPrice:    t.MeanPrice,
			MarketScore:  weights.MarketScore(t.Slope),
			Sparkline:    t.Prices,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// RecordPrices handles POST /api/v1/prices
func (h *MarketHandler) RecordPrices(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Price store is not configured", nil)
		return
	}

	var req models.RecordPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInputError(c, err)
		return
	}
	for _, s := range req.MarketTrends {
		if strings.TrimSpace(s.Crop) == "" {
			respondError(c, http.StatusBadRequest, "INVALID_VALUE", "crop name is required", map[string]interface{}{"field": "crop"})
			return
		}
	}

	write := h.store.AddSeries
	if req.Replace {
		write = h.store.ReplaceSeries
	}
	n, err := write(c.Request.Context(), req.MarketTrends)
	if err != nil {
		log.Printf("MarketHandler: Failed to store prices: %v", err)
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to store prices", nil)
		return
	}

	log.Printf("MarketHandler: Stored %d price points for %d crops (replace=%v)", n, len(req.MarketTrends), req.Replace)
	c.JSON(http.StatusCreated, models.RecordPricesResponse{Written: n, Crops: len(req.MarketTrends)})
}

// GetPrices handles GET /api/v1/prices
func (h *MarketHandler) GetPrices(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Price store is not configured", nil)
		return
	}

	var q models.PricesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInputError(c, err)
		return
	}

	series, err := h.store.Series(c.Request.Context(), splitList(q.Crops))
	if err != nil {
		log.Printf("MarketHandler: Failed to read prices: %v", err)
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to read prices", nil)
		return
	}

	resp := models.PricesResponse{MarketTrends: series}
	if resp.MarketTrends == nil {
		resp.MarketTrends = []model.MarketTrendSeries{}
	}
	c.JSON(http.StatusOK, resp)
}
