package models

// MinContentLength is the exclusive success threshold: a scrape succeeds only
// when the filtered content is strictly longer than this many characters.
const MinContentLength = 500

// Preview lengths exposed on results for observability.
const (
	PreviewLength = 200
	SampleLength  = 500
)

// Method tags identifying which path produced a result.
const (
	MethodRendered = "rendered"
	MethodStatic   = "static"
	MethodIsolated = "isolated"
)

// DebugInfo carries diagnostics for failed or partially failed scrapes.
// It is nil on fully successful results.
type DebugInfo struct {
	// Error is the primary failure message.
	Error string `json:"error,omitempty"`

	// ExitCode is the child process exit code (isolated path only).
	ExitCode *int `json:"exit_code,omitempty"`

	// Stderr is a bounded excerpt of the child's stderr (isolated path only).
	Stderr string `json:"stderr,omitempty"`
}

// ScrapeResult is the outcome of one scrape attempt. It is constructed once,
// never mutated afterwards, and never persisted.
type ScrapeResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Method records which path produced the result:
	// "rendered", "static" or "isolated".
	Method string `json:"method"`

	// Success is derived: ContentLength must exceed MinContentLength.
	Success bool `json:"success"`

	// ContentLength is the length of the filtered main text, before the
	// structured-data annex is appended.
	ContentLength int `json:"content_length"`

	// HasScriptTags reports whether the rendered document contained any
	// <script> elements before cleanup.
	HasScriptTags bool `json:"has_script_tags"`

	// RenderedSize is the byte size of the rendered HTML snapshot.
	RenderedSize int `json:"rendered_size"`

	LoadTimeMs int64 `json:"load_time_ms,omitempty"`

	// Preview and ContentSample are short prefixes of Content (200 and 500
	// characters) for log and dashboard inspection.
	Preview       string `json:"preview,omitempty"`
	ContentSample string `json:"content_sample,omitempty"`

	// Fingerprint is a 64-bit SimHash of the filtered text, usable by
	// callers for near-duplicate detection.
	Fingerprint uint64 `json:"fingerprint,omitempty"`

	// Debug is populated only on failure or partial failure.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DirectScrapeResult is the outcome of the isolated-process path. It carries
// the same content fields as ScrapeResult plus child-process diagnostics.
type DirectScrapeResult struct {
	ScrapeResult
}

// Finalize derives Success from ContentLength and fills the preview fields
// from Content. Call it exactly once, after Content is assembled.
func (r *ScrapeResult) Finalize() {
	r.Success = r.ContentLength > MinContentLength
	r.Preview = truncate(r.Content, PreviewLength)
	r.ContentSample = truncate(r.Content, SampleLength)
}

// FailedResult builds a failure-shaped result for the given URL and method.
// Content is empty, Success is false and Debug carries the error message.
func FailedResult(url, method, errMsg string) *ScrapeResult {
	return &ScrapeResult{
		URL:    url,
		Method: method,
		Debug:  &DebugInfo{Error: errMsg},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
