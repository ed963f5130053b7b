package handlers

import (
	"log"
	"net/http"

	"farm-market/internal/analysis"
	"farm-market/internal/api/models"
	"farm-market/internal/config"

	"github.com/gin-gonic/gin"
)

// ScoringHandler reports the scoring parameters in effect
type ScoringHandler struct {
	scoring config.ScoringConfig
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(scoring config.ScoringConfig) *ScoringHandler {
	return &ScoringHandler{scoring: scoring}
}

// GetScoring handles GET /api/v1/scoring
func (h *ScoringHandler) GetScoring(c *gin.Context) {
	log.Printf("ScoringHandler: GetScoring called")
	w := h.scoring.ToWeights()

	parameters := []models.ParameterInfo{
		{
			Name:        "agronomicWeight",
			Type:        "float",
			Description: "Weight of the agronomic suitability score in the blended score",
			Default:     analysis.DefaultAgronomicWeight,
		},
		{
			Name:        "marketWeight",
			Type:        "float",
			Description: "Weight of the market score; must sum to 1 with agronomicWeight",
			Default:     analysis.DefaultMarketWeight,
		},
		{
			Name:        "slopeWindow",
			Type:        "float",
			Description: "Slope magnitude mapped onto the full 0..1 market score range",
			Default:     analysis.DefaultSlopeWindow,
		},
		{
			Name:        "profitImpactScale",
			Type:        "float",
			Description: "Expected profit change per unit of price slope",
			Default:     analysis.DefaultProfitImpactScale,
		},
	}

	c.JSON(http.StatusOK, models.ScoringResponse{
		Weights: models.ScoringOverride{
			AgronomicWeight:   w.Agronomic,
			MarketWeight:      w.Market,
			SlopeWindow:       w.SlopeWindow,
			ProfitImpactScale: w.ProfitImpactScale,
		},
		Parameters: parameters,
	})
}
