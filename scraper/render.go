package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/page-distill/distill/models"
)

// autoScrollJS scrolls the page to the bottom in steps so lazy-loaded
// content renders, then returns to the top. The distance cap keeps infinite
// feeds from stalling the scrape.
const autoScrollJS = `() => new Promise(resolve => {
	const step = 400;
	const maxScroll = 20000;
	let scrolled = 0;
	const timer = setInterval(() => {
		window.scrollBy(0, step);
		scrolled += step;
		if (scrolled + window.innerHeight >= document.body.scrollHeight || scrolled >= maxScroll) {
			clearInterval(timer);
			window.scrollTo(0, 0);
			resolve(true);
		}
	}, 100);
})`

// Scrape runs the rendered path: borrow a browser from the pool, load the
// page, snapshot the rendered HTML and extract.
//
// The returned error is non-nil only when no browser could be acquired.
// Every failure after acquisition is captured into a failed result so one
// bad page never aborts a caller working through a batch.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Acquire browser        – may block until a slot frees up, bounded by ctx
//  2. Open page              – fresh tab on the borrowed browser
//  3. DEFER: close + release – page closed and browser returned on every path
//  4. Identity setup         – UA override, stealth JS, Referer header
//  5. Idle listener + navigate – listener MUST be registered before Navigate
//  6. Settle + selector wait – fixed delay, then best-effort content wait
//  7. Auto-scroll            – trigger lazy-loaded content
//  8. Snapshot + extract     – page.HTML() into the extraction pipeline
func (s *Scraper) Scrape(ctx context.Context, target string, opts Options) (*models.ScrapeResult, error) {
	start := time.Now()

	// ── 1. Acquire browser ────────────────────────────────────────────
	inst, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	s.active.Add(1)
	defer s.active.Add(-1)
	defer s.pool.Release(inst)

	// ── 2. Open page ──────────────────────────────────────────────────
	page, err := inst.Engine().NewPage()
	if err != nil {
		return s.failResult(target, models.MethodRendered, "failed to open page: "+err.Error(), start), nil
	}

	// ── 3. Close the page on every path. The original page reference is
	// used here (not the context-bound one) so cleanup still works after
	// the request context has expired.
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Debug("page close failed", "url", target, "error", closeErr)
		}
	}()

	// ── 4. Identity setup (before navigation) ─────────────────────────
	if s.cfg.UserAgent != "" {
		if uaErr := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: s.cfg.UserAgent,
		}); uaErr != nil {
			slog.Warn("user-agent override failed", "url", target, "error", uaErr)
		}
	}
	if s.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"url", target, "error", evalErr)
		}
	}
	if u, parseErr := url.Parse(target); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer":         "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
				"Accept-Language": "en-US,en;q=0.9",
			}),
		}.Call(page)
	}

	// ── 5. Navigate with the idle listener registered first ───────────
	navCtx, navCancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer navCancel()
	p := page.Context(navCtx)

	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	if navErr := p.Navigate(target); navErr != nil {
		return s.failResult(target, models.MethodRendered, navFailureMessage(navErr), start), nil
	}
	waitIdle()

	// ── 6. Settle, then wait for likely content (best-effort) ─────────
	select {
	case <-time.After(s.cfg.SettleDelay):
	case <-ctx.Done():
		return s.failResult(target, models.MethodRendered, navFailureMessage(ctx.Err()), start), nil
	}
	if sel := s.heur.WaitSelector(); sel != "" {
		if waitErr := page.Context(ctx).Timeout(s.cfg.SelectorWait).WaitElementsMoreThan(sel, 0); waitErr != nil {
			slog.Debug("content selector wait timed out, proceeding",
				"url", target, "error", waitErr)
		}
	}

	// ── 7. Auto-scroll for lazy-loaded content ────────────────────────
	if _, scrollErr := page.Context(ctx).Eval(autoScrollJS); scrollErr != nil {
		slog.Debug("auto-scroll failed, proceeding with current render",
			"url", target, "error", scrollErr)
	}

	// ── 8. Snapshot and extract ───────────────────────────────────────
	rawHTML, htmlErr := page.Context(ctx).HTML()
	if htmlErr != nil {
		return s.failResult(target, models.MethodRendered, "failed to capture rendered HTML: "+htmlErr.Error(), start), nil
	}

	return s.buildResult(rawHTML, target, models.MethodRendered, opts, start), nil
}

// navFailureMessage labels navigation failures so the result's debug field
// distinguishes timeouts from load errors.
func navFailureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "navigation timed out: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "navigation canceled: " + err.Error()
	default:
		return "navigation failed: " + err.Error()
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
