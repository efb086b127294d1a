package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	r := limitedRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}

	w := get(r, "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	r := limitedRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client: status = %d", w.Code)
	}
	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second hit: status = %d", w.Code)
	}
	if w := get(r, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("second client: status = %d", w.Code)
	}
}
