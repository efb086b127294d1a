package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// Mode selects the scrape path.
	// "rendered" (default): pooled headless browser.
	// "static": plain HTTP fetch with a Chrome TLS fingerprint, no JS.
	// "isolated": single-use browser in a dedicated child process.
	Mode string `json:"mode,omitempty" binding:"omitempty,oneof=rendered static isolated"`

	// ExtractMode controls content extraction.
	// "heuristic" (default): staged noise-removal pipeline.
	// "readability": Mozilla Readability article extraction.
	ExtractMode string `json:"extract_mode,omitempty" binding:"omitempty,oneof=heuristic readability"`

	// Format applies to readability output only.
	// "markdown" (default) or "text". Heuristic output is always plain text.
	Format string `json:"format,omitempty" binding:"omitempty,oneof=markdown text"`

	// MaxAgeMs allows a cached response no older than this many milliseconds.
	// Zero disables cache lookup.
	MaxAgeMs int `json:"max_age_ms,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Mode == "" {
		r.Mode = MethodRendered
	}
	if r.ExtractMode == "" {
		r.ExtractMode = "heuristic"
	}
	if r.Format == "" {
		r.Format = "markdown"
	}
}

// PoolStatus is a read-only snapshot of the browser pool.
type PoolStatus struct {
	Total     int `json:"total"`
	InUse     int `json:"in_use"`
	Available int `json:"available"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string     `json:"status"` // "healthy" or "degraded"
	Uptime  string     `json:"uptime"`
	Pool    PoolStatus `json:"pool"`
	Version string     `json:"version"`
}
