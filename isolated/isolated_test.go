package isolated

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/models"
)

func testIsolatedConfig() config.IsolatedConfig {
	return config.IsolatedConfig{
		WallClockTimeout: 5 * time.Second,
		StderrLimit:      2048,
	}
}

// shellScraper substitutes a shell script for the worker re-exec.
func shellScraper(cfg config.IsolatedConfig, script string) *Scraper {
	return &Scraper{
		cfg: cfg,
		command: func(ctx context.Context, _ string) *exec.Cmd {
			return exec.CommandContext(ctx, "sh", "-c", script)
		},
	}
}

func TestScrape_WorkerResultPassedThrough(t *testing.T) {
	script := `echo '{"url":"https://example.com","title":"T","content":"body","method":"isolated","success":true,"content_length":600}'`
	s := shellScraper(testIsolatedConfig(), script)

	res := s.Scrape(context.Background(), "https://example.com")
	if !res.Success {
		t.Fatalf("success = false, debug = %+v", res.Debug)
	}
	if res.Method != models.MethodIsolated {
		t.Fatalf("method = %q", res.Method)
	}
	if res.ContentLength != 600 {
		t.Fatalf("content length = %d", res.ContentLength)
	}
	if res.LoadTimeMs < 0 {
		t.Fatalf("load time = %d", res.LoadTimeMs)
	}
}

func TestScrape_NonZeroExitCaptured(t *testing.T) {
	s := shellScraper(testIsolatedConfig(), `echo "browser exploded" >&2; exit 3`)

	res := s.Scrape(context.Background(), "https://example.com")
	if res.Success {
		t.Fatal("crashed worker must not succeed")
	}
	if res.Debug == nil {
		t.Fatal("debug missing")
	}
	if res.Debug.ExitCode == nil || *res.Debug.ExitCode != 3 {
		t.Fatalf("exit code = %v, want 3", res.Debug.ExitCode)
	}
	if !strings.Contains(res.Debug.Stderr, "browser exploded") {
		t.Fatalf("stderr excerpt = %q", res.Debug.Stderr)
	}
	if !strings.Contains(res.Debug.Error, "exited with status 3") {
		t.Fatalf("error = %q", res.Debug.Error)
	}
}

func TestScrape_TimeoutKillsWorker(t *testing.T) {
	cfg := testIsolatedConfig()
	cfg.WallClockTimeout = 100 * time.Millisecond
	s := shellScraper(cfg, `sleep 10`)

	start := time.Now()
	res := s.Scrape(context.Background(), "https://example.com")
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("worker not killed promptly, took %s", elapsed)
	}
	if res.Success {
		t.Fatal("timed-out worker must not succeed")
	}
	if res.Debug == nil || !strings.Contains(res.Debug.Error, "killed after") {
		t.Fatalf("debug = %+v, want kill message", res.Debug)
	}
}

func TestScrape_EmptyOutput(t *testing.T) {
	s := shellScraper(testIsolatedConfig(), `true`)

	res := s.Scrape(context.Background(), "https://example.com")
	if res.Success {
		t.Fatal("silent worker must not succeed")
	}
	if res.Debug == nil || !strings.Contains(res.Debug.Error, "no output") {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

func TestScrape_MalformedOutput(t *testing.T) {
	s := shellScraper(testIsolatedConfig(), `echo 'not json at all'`)

	res := s.Scrape(context.Background(), "https://example.com")
	if res.Success {
		t.Fatal("garbled worker must not succeed")
	}
	if res.Debug == nil || !strings.Contains(res.Debug.Error, "malformed worker output") {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

func TestScrape_SpawnFailure(t *testing.T) {
	s := &Scraper{
		cfg: testIsolatedConfig(),
		command: func(ctx context.Context, _ string) *exec.Cmd {
			return exec.CommandContext(ctx, "/nonexistent/distill-worker")
		},
	}

	res := s.Scrape(context.Background(), "https://example.com")
	if res.Success {
		t.Fatal("unspawnable worker must not succeed")
	}
	if res.Debug == nil || !strings.Contains(res.Debug.Error, "failed to spawn worker") {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

func TestTailExcerpt(t *testing.T) {
	if got := tailExcerpt([]byte("short"), 2048); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("a", 100) + "the end"
	if got := tailExcerpt([]byte(long), 10); got != "aaathe end" {
		t.Fatalf("got %q", got)
	}
	if got := tailExcerpt(nil, 10); got != "" {
		t.Fatalf("got %q", got)
	}
}
