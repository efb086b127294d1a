package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/extract"
	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/pool"
	"github.com/page-distill/distill/scraper"
)

func TestHealth(t *testing.T) {
	p := pool.New(config.PoolConfig{
		Capacity:        2,
		IdleTimeout:     time.Hour,
		ReclaimInterval: time.Hour,
	}, func() (pool.Engine, error) {
		return nil, errors.New("no browser in tests")
	})
	t.Cleanup(p.Shutdown)

	sc := scraper.New(p, extract.New(config.LoadHeuristics("")), config.ScraperConfig{})

	r := gin.New()
	r.GET("/health", Health(sc, time.Now().Add(-90*time.Second)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Pool.Total != 0 || resp.Pool.InUse != 0 {
		t.Fatalf("pool = %+v", resp.Pool)
	}
	if resp.Uptime == "" || resp.Version == "" {
		t.Fatalf("uptime = %q, version = %q", resp.Uptime, resp.Version)
	}
}
