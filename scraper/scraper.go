// Package scraper drives rendered-page and static scrapes and shapes their
// results. The rendered path borrows a browser from the pool; the static
// path is a plain HTTP fetch for pages that do not need JavaScript. Both
// feed the same extraction pipeline.
package scraper

import (
	"sync/atomic"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/extract"
	"github.com/page-distill/distill/models"
	"github.com/page-distill/distill/pool"
)

// Options select the extraction mode for a single scrape.
type Options struct {
	// ExtractMode is "heuristic" (default) or "readability".
	ExtractMode string

	// Format applies to readability output only: "markdown" or "text".
	Format string
}

// Scraper is safe for concurrent use; one instance serves the whole process.
type Scraper struct {
	pool    *pool.Pool
	heur    *extract.Heuristics
	mdConv  *converter.Converter
	fetcher *httpFetcher
	cfg     config.ScraperConfig
	active  atomic.Int32
}

// New creates a Scraper on top of an existing pool.
func New(p *pool.Pool, heur *extract.Heuristics, cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		pool:    p,
		heur:    heur,
		mdConv:  extract.NewMarkdownConverter(),
		fetcher: newHTTPFetcher(cfg.UserAgent),
		cfg:     cfg,
	}
}

// PoolStatus reports the browser pool snapshot for health checks.
func (s *Scraper) PoolStatus() models.PoolStatus {
	return s.pool.Status()
}

// ActiveScrapes reports the number of in-flight rendered scrapes.
func (s *Scraper) ActiveScrapes() int {
	return int(s.active.Load())
}

// buildResult runs the selected extraction over a rendered (or fetched)
// HTML snapshot and assembles the final result.
func (s *Scraper) buildResult(rawHTML, url, method string, opts Options, start time.Time) *models.ScrapeResult {
	r := &models.ScrapeResult{URL: url, Method: method}

	switch opts.ExtractMode {
	case "readability":
		article, _ := extract.ExtractArticle(rawHTML, url)
		r.Title = article.Title

		text := article.TextContent
		if opts.Format == "text" {
			r.Content = text
		} else {
			md, err := extract.ToMarkdown(s.mdConv, article.Content, url)
			if err != nil {
				return s.failResult(url, method, "markdown conversion failed: "+err.Error(), start)
			}
			r.Content = md
		}
		r.ContentLength = len(text)
		r.RenderedSize = len(rawHTML)
		r.Fingerprint = extract.Fingerprint(text)

	default: // "heuristic"
		ex, err := s.heur.Run(rawHTML, url)
		if err != nil {
			return s.failResult(url, method, "extraction failed: "+err.Error(), start)
		}
		r.Title = ex.Title
		r.Content = ex.Content
		r.ContentLength = ex.ContentLength
		r.HasScriptTags = ex.HasScriptTags
		r.RenderedSize = ex.RenderedSize
		r.Fingerprint = extract.Fingerprint(ex.Text)
	}

	r.LoadTimeMs = time.Since(start).Milliseconds()
	r.Finalize()
	return r
}

// failResult shapes a captured failure. It is the shared exit for every
// post-acquisition failure mode: these never surface as raised errors.
func (s *Scraper) failResult(url, method, msg string, start time.Time) *models.ScrapeResult {
	r := models.FailedResult(url, method, msg)
	r.LoadTimeMs = time.Since(start).Milliseconds()
	r.Finalize()
	return r
}
