package pool

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBrowserBin_OverrideWins(t *testing.T) {
	// An explicit override is trusted as-is, even if the path does not
	// exist; launch will surface the real error.
	if got := ResolveBrowserBin("/custom/chrome"); got != "/custom/chrome" {
		t.Fatalf("got %q, want override", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "chrome")
	if err := os.WriteFile(file, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if !fileExists(file) {
		t.Error("regular file should exist")
	}
	if fileExists(dir) {
		t.Error("directory must not count as a binary")
	}
	if fileExists(filepath.Join(dir, "missing")) {
		t.Error("missing path should not exist")
	}
}
