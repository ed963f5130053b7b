package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"farm-market/internal/api/models"
	"farm-market/internal/data"
	"farm-market/internal/model"

	"github.com/gin-gonic/gin"
)

// CropsHandler serves the crop catalog
type CropsHandler struct {
	catalogPath string
	store       MarketStore
}

// NewCropsHandler creates a new crops handler. An empty catalogPath uses the
// default catalog location.
func NewCropsHandler(catalogPath string, store MarketStore) *CropsHandler {
	if catalogPath == "" {
		catalogPath = data.GetDefaultCatalogPath()
	}
	return &CropsHandler{catalogPath: catalogPath, store: store}
}

// ListCrops handles GET /api/v1/crops
func (h *CropsHandler) ListCrops(c *gin.Context) {
	var q models.CropsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInputError(c, err)
		return
	}

	catalog, err := h.loadCatalog()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CATALOG_LOAD_ERROR", fmt.Sprintf("Failed to load crop catalog: %v", err), nil)
		return
	}

	priced := map[string]bool{}
	if h.store != nil {
		keys, err := h.store.Crops(c.Request.Context())
		if err != nil {
			log.Printf("CropsHandler: Failed to read stored crops: %v", err)
		}
		for _, k := range keys {
			priced[k] = true
		}
	}

	crops := make([]models.CropInfo, 0, len(catalog.Crops))
	for _, crop := range catalog.Crops {
		if q.Category != "" && !strings.EqualFold(crop.Category, q.Category) {
			continue
		}
		crops = append(crops, models.CropInfo{
			ID:        crop.ID,
			Name:      crop.Name,
			Category:  crop.Category,
			Unit:      crop.Unit,
			HasPrices: priced[model.NormalizeCrop(crop.Name)] || priced[model.NormalizeCrop(crop.ID)],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"crops":      crops,
		"updated_at": catalog.UpdatedAt,
		"count":      len(crops),
	})
}

// loadCatalog falls back to the built-in catalog when no file exists
func (h *CropsHandler) loadCatalog() (*data.CropCatalog, error) {
	catalog, err := data.LoadCatalog(h.catalogPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data.DefaultCatalog(), nil
		}
		return nil, err
	}
	return catalog, nil
}
