package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"github.com/page-distill/distill/models"
)

const maxFetchBody = 10 * 1024 * 1024 // 10 MB cap

// httpFetcher performs HTTP requests with a Chrome TLS fingerprint (utls),
// for pages that serve full content without JavaScript.
type httpFetcher struct {
	userAgent string
	client    *http.Client
}

func newHTTPFetcher(userAgent string) *httpFetcher {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	return &httpFetcher{
		userAgent: userAgent,
		client:    &http.Client{Transport: transport},
	}
}

// ScrapeStatic runs the static path: one HTTP GET, no browser, the same
// extraction pipeline as the rendered path. Fetch failures are captured
// into a failed result, never raised.
func (s *Scraper) ScrapeStatic(ctx context.Context, target string, opts Options) *models.ScrapeResult {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	body, err := s.fetcher.fetch(fetchCtx, target)
	if err != nil {
		return s.failResult(target, models.MethodStatic, navFailureMessage(err), start)
	}

	r := s.buildResult(string(body), target, models.MethodStatic, opts, start)

	// A JS-shell page fetched statically extracts almost nothing. Flag it
	// so the caller knows to retry with the rendered path.
	if !r.Success && needsRendering(body) {
		if r.Debug == nil {
			r.Debug = &models.DebugInfo{}
		}
		if r.Debug.Error == "" {
			r.Debug.Error = "page appears to require JavaScript rendering"
		} else {
			r.Debug.Error += "; page appears to require JavaScript rendering"
		}
	}
	return r
}

// fetch retrieves the URL with browser-like headers. Compression is left to
// the transport so the body arrives decoded.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. Plain-HTTP requests never reach this dialer.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// needsRendering decides whether statically fetched HTML is likely a
// JavaScript shell: an empty SPA root container, a noscript warning, or many
// script tags with almost no visible body text.
func needsRendering(body []byte) bool {
	bodyText := staticVisibleText(body)
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	for _, shell := range []string{
		`<div id="root"></div>`,
		`<div id="app"></div>`,
		`<div id="__next"></div>`,
	} {
		if strings.Contains(lower, shell) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}
	return strings.Count(lower, "<script") > 10 && len(bodyText) < 500
}

// staticVisibleText extracts visible body text with a single tokenizer pass,
// for the rendering heuristic only.
func staticVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
