package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHeuristics_Defaults(t *testing.T) {
	h := LoadHeuristics("")

	if len(h.StripSelectors) == 0 || len(h.ContentSelectors) == 0 || len(h.NoiseKeywords) == 0 {
		t.Fatal("default heuristics lists must not be empty")
	}
}

func TestLoadHeuristics_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.json")
	if err := os.WriteFile(path, []byte(`{"noise_keywords":["spam"],"content_selectors":["article"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := LoadHeuristics(path)

	if len(h.NoiseKeywords) != 1 || h.NoiseKeywords[0] != "spam" {
		t.Errorf("noise keywords not overridden: %v", h.NoiseKeywords)
	}
	if len(h.ContentSelectors) != 1 || h.ContentSelectors[0] != "article" {
		t.Errorf("content selectors not overridden: %v", h.ContentSelectors)
	}
	// Fields absent from the file keep their defaults.
	if len(h.StripSelectors) == 0 {
		t.Error("strip selectors should fall back to defaults")
	}
}

func TestLoadHeuristics_InvalidSelectorDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.json")
	if err := os.WriteFile(path, []byte(`{"content_selectors":["article","[[["]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := LoadHeuristics(path)

	for _, sel := range h.ContentSelectors {
		if sel == "[[[" {
			t.Error("unparsable selector survived validation")
		}
	}
	if len(h.ContentSelectors) != 1 {
		t.Errorf("expected only the valid selector, got %v", h.ContentSelectors)
	}
}

func TestLoadHeuristics_MissingFile(t *testing.T) {
	h := LoadHeuristics("/nonexistent/heuristics.json")
	if len(h.ContentSelectors) == 0 {
		t.Error("missing override file should fall back to defaults")
	}
}
