package isolated

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/extract"
	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/pool"
)

// RunWorker is the child-process entry point: scrape one URL with a fresh
// single-use browser and write the result JSON to stdout. Logs go to stderr
// so stdout stays machine-readable.
//
// The exit code is zero whenever a result was written, failed scrapes
// included; non-zero means the worker could not report at all.
func RunWorker(args []string) int {
	if len(args) < 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: worker <url>")
		return 2
	}
	target := args[0]

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	result := scrapeOnce(cfg, target)

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, "encode result:", err)
		return 1
	}
	return 0
}

// scrapeOnce is a condensed version of the pooled rendered path: fresh
// browser, navigate, settle, best-effort content wait, extract. No pool, no
// auto-scroll, nothing shared with the parent process.
func scrapeOnce(cfg *config.Config, target string) *models.ScrapeResult {
	start := time.Now()
	fail := func(msg string) *models.ScrapeResult {
		r := models.FailedResult(target, models.MethodIsolated, msg)
		r.LoadTimeMs = time.Since(start).Milliseconds()
		r.Finalize()
		return r
	}

	engine, err := pool.NewBrowserFactory(cfg.Pool)()
	if err != nil {
		return fail("browser launch failed: " + err.Error())
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			slog.Warn("browser close failed", "error", closeErr)
		}
	}()

	page, err := engine.NewPage()
	if err != nil {
		return fail("failed to open page: " + err.Error())
	}
	defer page.Close()

	if cfg.Scraper.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: cfg.Scraper.UserAgent,
		})
	}

	navCtx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	if navErr := p.Navigate(target); navErr != nil {
		return fail("navigation failed: " + navErr.Error())
	}
	waitIdle()

	time.Sleep(cfg.Scraper.SettleDelay)

	heur := extract.New(cfg.Heuristics)
	if sel := heur.WaitSelector(); sel != "" {
		if waitErr := page.Timeout(cfg.Scraper.SelectorWait).WaitElementsMoreThan(sel, 0); waitErr != nil {
			slog.Warn("content selector wait timed out, proceeding", "error", waitErr)
		}
	}

	rawHTML, err := page.HTML()
	if err != nil {
		return fail("failed to capture rendered HTML: " + err.Error())
	}

	ex, err := heur.Run(rawHTML, target)
	if err != nil {
		return fail("extraction failed: " + err.Error())
	}

	r := &models.ScrapeResult{
		URL:           target,
		Title:         ex.Title,
		Content:       ex.Content,
		Method:        models.MethodIsolated,
		ContentLength: ex.ContentLength,
		HasScriptTags: ex.HasScriptTags,
		RenderedSize:  ex.RenderedSize,
		Fingerprint:   extract.Fingerprint(ex.Text),
		LoadTimeMs:    time.Since(start).Milliseconds(),
	}
	r.Finalize()
	return r
}
