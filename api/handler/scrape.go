package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/cache"
	"github.com/page-distill/distill/isolated"
	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when the request allows stale results.
//  3. Dispatch on mode: rendered (pooled browser), static (HTTP fetch) or
//     isolated (child process).
//  4. Cache successful results, return 200.
//
// A failed scrape is still a 200: the result carries its own success flag
// and diagnostics. Non-200 responses mean the scrape could not be attempted.
func Scrape(sc *scraper.Scraper, iso *isolated.Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		cacheKey := cache.Key(req.URL, req.Mode, req.ExtractMode, req.Format)
		if cc != nil {
			if cached, hit := cc.Get(cacheKey, req.MaxAgeMs); hit {
				c.Header("X-Cache", "hit")
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		opts := scraper.Options{ExtractMode: req.ExtractMode, Format: req.Format}

		var result *models.ScrapeResult
		switch req.Mode {
		case models.MethodStatic:
			result = sc.ScrapeStatic(c.Request.Context(), req.URL, opts)
		case models.MethodIsolated:
			result = &iso.Scrape(c.Request.Context(), req.URL).ScrapeResult
		default:
			var err error
			result, err = sc.Scrape(c.Request.Context(), req.URL, opts)
			if err != nil {
				respondError(c, err)
				return
			}
		}

		// Only successful results are worth replaying; failures should be
		// retried on the next request.
		if cc != nil && result.Success {
			cc.Set(cacheKey, result)
		}
		c.Header("X-Cache", "miss")
		c.JSON(http.StatusOK, result)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Error: scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeLaunch:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
