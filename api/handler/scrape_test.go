package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/page-distill/distill/cache"
	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/extract"
	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/pool"
	"github.com/page-distill/distill/scraper"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRig builds a scrape handler whose pool factory always fails, so
// rendered-mode requests exercise the acquisition error path while static
// requests work normally.
func newTestRig(t *testing.T, cc *cache.Cache) *gin.Engine {
	t.Helper()

	p := pool.New(config.PoolConfig{
		Capacity:        1,
		IdleTimeout:     time.Hour,
		ReclaimInterval: time.Hour,
	}, func() (pool.Engine, error) {
		return nil, errors.New("no browser in tests")
	})
	t.Cleanup(p.Shutdown)

	sc := scraper.New(p, extract.New(config.LoadHeuristics("")), config.ScraperConfig{
		NavTimeout:   5 * time.Second,
		SettleDelay:  time.Millisecond,
		SelectorWait: time.Millisecond,
		UserAgent:    "test-agent",
	})

	r := gin.New()
	r.POST("/scrape", Scrape(sc, nil, cc))
	return r
}

func doScrape(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestScrape_InvalidJSON(t *testing.T) {
	r := newTestRig(t, nil)

	w := doScrape(r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestScrape_MissingURL(t *testing.T) {
	r := newTestRig(t, nil)

	if w := doScrape(r, `{"mode":"rendered"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestScrape_InvalidMode(t *testing.T) {
	r := newTestRig(t, nil)

	if w := doScrape(r, `{"url":"https://example.com","mode":"teleport"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestScrape_LaunchFailureMapsTo503(t *testing.T) {
	r := newTestRig(t, nil)

	w := doScrape(r, `{"url":"https://example.com"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeLaunch {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestScrape_StaticModeEndToEnd(t *testing.T) {
	article := strings.Repeat("The slipware jug survived two centuries of daily use before it reached the museum shelf. ", 10)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Jug</title></head><body><article><p>` + article + `</p></article></body></html>`))
	}))
	defer backend.Close()

	r := newTestRig(t, nil)

	w := doScrape(r, `{"url":"`+backend.URL+`","mode":"static"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("success = false, debug = %+v", res.Debug)
	}
	if res.Method != models.MethodStatic {
		t.Fatalf("method = %q", res.Method)
	}
	if w.Header().Get("X-Cache") != "miss" {
		t.Fatalf("X-Cache = %q", w.Header().Get("X-Cache"))
	}
}

func TestScrape_FailedScrapeIsStill200(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer backend.Close()

	r := newTestRig(t, nil)

	w := doScrape(r, `{"url":"`+backend.URL+`","mode":"static"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var res models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("404 backend scrape must not succeed")
	}
	if res.Debug == nil {
		t.Fatal("failed result should carry diagnostics")
	}
}

func TestScrape_CacheHitSkipsFetch(t *testing.T) {
	cc := cache.New(10)
	cached := &models.ScrapeResult{
		URL:     "https://unreachable.invalid/page",
		Content: "from cache",
		Method:  models.MethodStatic,
		Success: true,
	}
	cc.Set(cache.Key(cached.URL, "static", "heuristic", "markdown"), cached)

	r := newTestRig(t, cc)

	w := doScrape(r, `{"url":"https://unreachable.invalid/page","mode":"static","max_age_ms":60000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Cache") != "hit" {
		t.Fatalf("X-Cache = %q, want hit", w.Header().Get("X-Cache"))
	}
	var res models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Content != "from cache" {
		t.Fatalf("content = %q", res.Content)
	}
}

func TestScrape_ZeroMaxAgeBypassesCache(t *testing.T) {
	cc := cache.New(10)
	cached := &models.ScrapeResult{URL: "https://unreachable.invalid/page", Content: "stale", Success: true}
	cc.Set(cache.Key(cached.URL, "static", "heuristic", "markdown"), cached)

	r := newTestRig(t, cc)

	w := doScrape(r, `{"url":"https://unreachable.invalid/page","mode":"static"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Content == "stale" {
		t.Fatal("cache must be bypassed without max_age_ms")
	}
	if res.Success {
		t.Fatal("unreachable host fetch must fail")
	}
}
