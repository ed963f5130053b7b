package api

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"farm-market/internal/api/handlers"
	"farm-market/internal/api/middleware"
	"farm-market/internal/api/models"
	"farm-market/internal/config"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP API. store may be nil; the price endpoints then
// answer 503 and ranking only uses market data sent in the request.
func NewRouter(cfg *config.Config, store handlers.MarketStore) *gin.Engine {
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	rankHandler := handlers.NewRankHandler(cfg.Scoring, store)
	marketHandler := handlers.NewMarketHandler(cfg.Scoring, store)
	scoringHandler := handlers.NewScoringHandler(cfg.Scoring)
	cropsHandler := handlers.NewCropsHandler("", store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": store != nil})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	{
		api.POST("/rank", rankHandler.RankCrops)
		api.POST("/trends", marketHandler.ExtractTrends)

		api.GET("/prices", marketHandler.GetPrices)
		api.POST("/prices", marketHandler.RecordPrices)

		api.GET("/scoring", scoringHandler.GetScoring)
		api.GET("/crops", cropsHandler.ListCrops)
	}

	staticDir := cfg.Server.StaticDir
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		router.Static("/assets", filepath.Join(staticDir, "assets"))
		router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
		log.Printf("Serving static files from %s", staticDir)
	} else {
		staticDir = ""
		log.Printf("Static directory %s not found, skipping static file serving", cfg.Server.StaticDir)
	}

	// SPA routing: unknown non-API paths get index.html
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") || staticDir == "" {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
			})
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})

	return router
}
