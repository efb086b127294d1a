// Package extract turns a rendered HTML snapshot into noise-filtered text
// plus optional structured product metadata.
//
// The pipeline is pure: no state survives a call, and the same snapshot
// always produces the same output. That property is what the tests lean on.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/models"
)

const (
	// minBlockLength is the minimum visible-text length for a selector
	// match to count toward the main content.
	minBlockLength = 100

	// mainTextTarget stops the selector scan once this much text has
	// accumulated. It doubles as the fallback trigger: selections that
	// never reach it are discarded in favour of the whole page's text.
	mainTextTarget = 500
)

// scriptSourceRe matches text that reads like embedded script source rather
// than prose: function definitions, arrow bodies, global-object access and
// variable declarations.
var scriptSourceRe = regexp.MustCompile(
	`function\s*\(|=>\s*\{|\bwindow\.[A-Za-z_$]|\bdocument\.(getElementById|querySelector|querySelectorAll|addEventListener|createElement)|\bvar\s+[A-Za-z_$][\w$]*\s*=`)

// Extraction is the output of one heuristics run.
type Extraction struct {
	Title   string
	Content string // assembled tagged-section document
	Text    string // filtered main text, without header or annex

	// ContentLength is the length of the filtered main text, excluding
	// the title/URL header and the structured-data annex. The caller's
	// success predicate is defined over this value.
	ContentLength int

	HasScriptTags bool
	RenderedSize  int

	// Products holds the serialized JSON-LD Product entities found in the
	// snapshot, in document order.
	Products []string
}

// Heuristics runs the staged noise-removal and content-selection pipeline.
// It is safe for concurrent use; a single instance is shared process-wide.
type Heuristics struct {
	cfg config.HeuristicsConfig
}

// New creates a Heuristics pipeline from the configured lists.
func New(cfg config.HeuristicsConfig) *Heuristics {
	return &Heuristics{cfg: cfg}
}

// WaitSelector returns the combined "likely content" selector the scraper
// waits for before extraction, or "" when the list is empty.
func (h *Heuristics) WaitSelector() string {
	return strings.Join(h.cfg.WaitSelectors, ", ")
}

// Run executes the full pipeline over a rendered HTML snapshot.
//
// Stages, in order: structured-data scan (on the pristine document, before
// any stripping), non-content element removal, inline executable residue
// removal, main-content selection, line-level filtering, assembly.
func (h *Heuristics) Run(rawHTML, pageURL string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "parse rendered HTML", err)
	}

	ex := &Extraction{
		HasScriptTags: doc.Find("script").Length() > 0,
		RenderedSize:  len(rawHTML),
		Title:         strings.TrimSpace(doc.Find("title").First().Text()),
	}

	// JSON-LD lives in <script> elements, so the scan must happen before
	// stage 1 removes them.
	ex.Products = extractProducts(doc)

	// 1. Strip non-content elements.
	for _, sel := range h.cfg.StripSelectors {
		doc.Find(sel).Remove()
	}

	// 2. Strip inline executable residue.
	stripExecutableResidue(doc)

	// 3. Select main content.
	mainText := h.selectMainContent(doc)

	// 4. Line-level filtering.
	filtered := h.filterLines(mainText)
	ex.Text = filtered
	ex.ContentLength = len(filtered)

	// 5. Assemble the tagged-section document.
	ex.Content = assemble(ex.Title, pageURL, filtered, ex.Products)

	return ex, nil
}

// stripExecutableResidue drops event-handler attributes and script-protocol
// links from every remaining element, then removes elements whose text reads
// like script source. Root and document-level containers are exempt from
// removal so a stray residue match cannot erase the whole page.
func stripExecutableResidue(doc *goquery.Document) {
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				name := strings.ToLower(a.Key)
				val := strings.ToLower(strings.TrimSpace(a.Val))
				if strings.HasPrefix(name, "on") || strings.HasPrefix(val, "javascript:") {
					continue
				}
				kept = append(kept, a)
			}
			n.Attr = kept
		}
	})

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if scriptSourceRe.MatchString(s.Text()) {
			s.Remove()
		}
	})
}

// selectMainContent tries the configured content selectors in priority
// order, accumulating visible text from matches of at least minBlockLength
// until the total exceeds mainTextTarget. When no selector path gets there,
// the whole page's visible text is the answer.
func (h *Heuristics) selectMainContent(doc *goquery.Document) string {
	var parts []string
	total := 0

	for _, sel := range h.cfg.ContentSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := strings.TrimSpace(visibleText(s))
			if len(t) >= minBlockLength {
				parts = append(parts, t)
				total += len(t)
			}
			return total <= mainTextTarget
		})
		if total > mainTextTarget {
			break
		}
	}

	if total > mainTextTarget {
		return strings.Join(parts, "\n")
	}
	return strings.TrimSpace(visibleText(doc.Find("body")))
}

// filterLines drops blank lines, fragments under 3 characters, short
// all-caps chrome and lines carrying any configured noise keyword.
// Surviving lines keep their original order: this is the one place order
// matters, since it reconstructs prose flow.
func (h *Heuristics) filterLines(text string) string {
	var kept []string
	for _, raw := range strings.Split(text, "\n") {
		line := normalizeSpace(raw)
		if len(line) < 3 {
			continue
		}
		if isUpperChrome(line) {
			continue
		}
		if h.isNoiseLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (h *Heuristics) isNoiseLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range h.cfg.NoiseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// assemble builds the final tagged-section document: title, URL, filtered
// main content and, when present, the structured-data annex.
func assemble(title, pageURL, content string, products []string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("Title: ")
		b.WriteString(title)
		b.WriteByte('\n')
	}
	if pageURL != "" {
		b.WriteString("URL: ")
		b.WriteString(pageURL)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(content)

	if len(products) > 0 {
		b.WriteString("\n\n=== Structured Product Data ===\n")
		for i, p := range products {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
