package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractProducts scans the document's JSON-LD blocks for Product entities
// and returns each one re-serialized with stable indentation, in document
// order. Blocks that fail to parse are skipped silently: malformed metadata
// is the page's problem, not a scrape failure.
func extractProducts(doc *goquery.Document) []string {
	var out []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var payload any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return
		}
		for _, entity := range productEntities(payload) {
			buf, err := json.MarshalIndent(entity, "", "  ")
			if err != nil {
				continue
			}
			out = append(out, string(buf))
		}
	})
	return out
}

// productEntities walks a decoded JSON-LD payload and collects every entity
// declaring the Product type: directly, through a bare "type" field, or as
// any element of an array (including @graph containers).
func productEntities(payload any) []any {
	switch v := payload.(type) {
	case []any:
		var out []any
		for _, item := range v {
			out = append(out, productEntities(item)...)
		}
		return out
	case map[string]any:
		if isProductType(v["@type"]) || isProductType(v["type"]) {
			return []any{v}
		}
		if graph, ok := v["@graph"]; ok {
			return productEntities(graph)
		}
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}
