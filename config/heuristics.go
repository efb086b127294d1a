package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/andybalholm/cascadia"
)

// HeuristicsConfig carries the hand-tuned selector and keyword lists driving
// content extraction. The lists are approximate by nature and will need
// future tuning, so they are kept as editable configuration rather than
// compile-time constants: a JSON file named by DISTILL_HEURISTICS_FILE may
// override any of them, and DISTILL_NOISE_KEYWORDS overrides the keyword
// list directly.
type HeuristicsConfig struct {
	// StripSelectors are removed outright before anything else: executable
	// and presentational elements plus page chrome (navigation, banners,
	// modals, cart widgets and the like).
	StripSelectors []string `json:"strip_selectors"`

	// ContentSelectors are tried in priority order when picking the main
	// content region.
	ContentSelectors []string `json:"content_selectors"`

	// WaitSelectors are "likely product/content" selectors the scraper
	// waits for, best-effort, before extraction.
	WaitSelectors []string `json:"wait_selectors"`

	// NoiseKeywords drop any text line containing one of them
	// (case-insensitive substring match).
	NoiseKeywords []string `json:"noise_keywords"`
}

var defaultHeuristics = HeuristicsConfig{
	StripSelectors: []string{
		"script", "style", "noscript", "link[rel=\"stylesheet\"]", "meta",
		"nav", "header", "footer", "aside",
		".nav", ".navbar", ".navigation", ".menu", ".header", ".footer", ".sidebar",
		".breadcrumb", ".breadcrumbs",
		".cookie", ".cookie-banner", ".cookie-notice", ".cookie-consent",
		"#cookie-banner", "#cookie-notice", ".consent", ".gdpr",
		".modal", ".popup", ".overlay", ".drawer",
		".cart", ".minicart", ".basket", ".account", ".login-box",
		".newsletter", ".subscribe", ".search-box", ".search-form",
		".social", ".social-share", ".share-buttons",
	},
	ContentSelectors: []string{
		"main", "article", "[role=\"main\"]",
		"#main-content", ".main-content", "#content", ".content",
		".product", ".product-detail", ".product-details", "#product",
		".product-info", ".product-description", ".product-page", ".pdp",
		"#description", ".description",
	},
	WaitSelectors: []string{
		".product", ".product-title", ".product-name", "[itemprop=\"name\"]",
		"h1", "article", "main",
	},
	NoiseKeywords: []string{
		"cookie", "cookies", "privacy policy", "terms of service",
		"subscribe", "newsletter", "sign in", "sign up", "log in", "login",
		"register", "my account", "add to wishlist", "shopping cart",
		"all rights reserved", "accept all", "manage preferences",
		"follow us", "share this", "free shipping on",
	},
}

// LoadHeuristics returns the default lists, overridden field-by-field from
// the JSON file at path (if non-empty) and from DISTILL_NOISE_KEYWORDS.
// Every selector list is validated; selectors cascadia cannot parse are
// dropped with a warning so one typo does not disable extraction.
func LoadHeuristics(path string) HeuristicsConfig {
	h := defaultHeuristics

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("heuristics: cannot read override file, using defaults",
				"path", path, "error", err)
		} else {
			var override HeuristicsConfig
			if err := json.Unmarshal(data, &override); err != nil {
				slog.Warn("heuristics: invalid override file, using defaults",
					"path", path, "error", err)
			} else {
				if len(override.StripSelectors) > 0 {
					h.StripSelectors = override.StripSelectors
				}
				if len(override.ContentSelectors) > 0 {
					h.ContentSelectors = override.ContentSelectors
				}
				if len(override.WaitSelectors) > 0 {
					h.WaitSelectors = override.WaitSelectors
				}
				if len(override.NoiseKeywords) > 0 {
					h.NoiseKeywords = override.NoiseKeywords
				}
			}
		}
	}

	h.NoiseKeywords = envSliceOr("DISTILL_NOISE_KEYWORDS", h.NoiseKeywords)

	h.StripSelectors = validSelectors("strip_selectors", h.StripSelectors)
	h.ContentSelectors = validSelectors("content_selectors", h.ContentSelectors)
	h.WaitSelectors = validSelectors("wait_selectors", h.WaitSelectors)
	return h
}

// validSelectors filters out CSS selectors that fail to parse.
func validSelectors(list string, selectors []string) []string {
	valid := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		if _, err := cascadia.Parse(sel); err != nil {
			slog.Warn("heuristics: dropping unparsable selector",
				"list", list, "selector", sel, "error", err)
			continue
		}
		valid = append(valid, sel)
	}
	return valid
}
