// Package api wires the HTTP surface: routing, rate limiting and the
// request handlers.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/api/handler"
	"github.com/page-distill/distill/api/middleware"
	"github.com/page-distill/distill/cache"
	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/isolated"
	"github.com/page-distill/distill/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     RateLimit
//
// Health stays outside the rate limiter so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, iso *isolated.Scraper, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(sc, startTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))
	limited.POST("/scrape", handler.Scrape(sc, iso, cc))

	return r
}
