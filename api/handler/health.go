package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/scraper"
)

const version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when more than 80% of the
// pooled browsers are checked out.
func Health(sc *scraper.Scraper, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		pool := sc.PoolStatus()

		status := "healthy"
		if pool.Total > 0 && pool.InUse > int(float64(pool.Total)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Pool:    pool,
			Version: version,
		})
	}
}
