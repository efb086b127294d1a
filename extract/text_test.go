package extract

import (
	"strings"
	"testing"
)

func TestVisibleText_BlockBoundaries(t *testing.T) {
	doc := docFrom(t, `<html><body><div><p>first</p><p>second</p><span>in</span><span>line</span></div></body></html>`)

	text := visibleText(doc.Find("body"))
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	want := []string{"first", "second", "inline"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestVisibleText_BreakTag(t *testing.T) {
	doc := docFrom(t, `<html><body><p>one<br>two</p></body></html>`)
	text := visibleText(doc.Find("p"))
	if !strings.Contains(text, "one\ntwo") {
		t.Errorf("br should split lines, got %q", text)
	}
}

func TestIsUpperChrome(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"MENU", true},
		{"FREE RETURNS POLICY", true},
		{"THIS ALL CAPS LINE IS LONG ENOUGH TO STAY", false}, // >= 30 chars
		{"Mixed Case Line", false},
		{"12345", false}, // no letters
		{"SALE 50%", true},
	}
	for _, tt := range tests {
		if got := isUpperChrome(tt.line); got != tt.want {
			t.Errorf("isUpperChrome(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestNormalizeSpace(t *testing.T) {
	if got := normalizeSpace("  a \t b  \n c  "); got != "a b c" {
		t.Errorf("normalizeSpace = %q, want %q", got, "a b c")
	}
}
