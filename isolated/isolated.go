// Package isolated runs scrapes in a freshly spawned child process. A
// browser engine torn down by a hostile page can take its host process with
// it; the child-process boundary turns that crash into an exit code the
// parent reports instead of suffering.
package isolated

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/models"
)

// commandFunc builds the worker command. Injected so tests can substitute a
// shell script for the real re-exec.
type commandFunc func(ctx context.Context, url string) *exec.Cmd

// Scraper launches one single-use worker process per scrape.
type Scraper struct {
	cfg     config.IsolatedConfig
	command commandFunc
}

// New creates an isolated scraper that re-executes the current binary with
// the worker argument.
func New(cfg config.IsolatedConfig) *Scraper {
	return &Scraper{cfg: cfg, command: selfCommand}
}

func selfCommand(ctx context.Context, url string) *exec.Cmd {
	bin, err := os.Executable()
	if err != nil {
		bin = os.Args[0]
	}
	return exec.CommandContext(ctx, bin, "worker", url)
}

// Scrape runs one scrape in a child process under a hard wall-clock limit.
// It always returns a result: every failure mode, including the child being
// killed at the deadline, is captured into the result's debug fields.
//
// A worker that produced a scrape result exits zero even when the scrape
// itself failed; the result carries its own success flag. Non-zero exits
// mean the worker died before it could report, which is exactly the case
// this path exists to diagnose.
func (s *Scraper) Scrape(ctx context.Context, url string) *models.DirectScrapeResult {
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, s.cfg.WallClockTimeout)
	defer cancel()

	cmd := s.command(cctx, url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var exitCode *int
	if cmd.ProcessState != nil {
		code := cmd.ProcessState.ExitCode()
		exitCode = &code
	}
	excerpt := tailExcerpt(stderr.Bytes(), s.cfg.StderrLimit)

	switch {
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		return s.failed(url, start, exitCode, excerpt,
			fmt.Sprintf("worker killed after %s wall clock", s.cfg.WallClockTimeout))

	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return s.failed(url, start, exitCode, excerpt,
				fmt.Sprintf("worker exited with status %d", exitErr.ExitCode()))
		}
		return s.failed(url, start, exitCode, excerpt, "failed to spawn worker: "+runErr.Error())
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return s.failed(url, start, exitCode, excerpt, "worker produced no output")
	}

	var result models.ScrapeResult
	if err := json.Unmarshal(out, &result); err != nil {
		slog.Warn("worker output unparseable", "url", url, "error", err)
		return s.failed(url, start, exitCode, excerpt, "malformed worker output: "+err.Error())
	}

	// Wall-clock time including process startup, not the child's own view.
	result.LoadTimeMs = time.Since(start).Milliseconds()
	result.Method = models.MethodIsolated
	return &models.DirectScrapeResult{ScrapeResult: result}
}

func (s *Scraper) failed(url string, start time.Time, exitCode *int, stderr, msg string) *models.DirectScrapeResult {
	r := models.FailedResult(url, models.MethodIsolated, msg)
	r.Debug.ExitCode = exitCode
	r.Debug.Stderr = stderr
	r.LoadTimeMs = time.Since(start).Milliseconds()
	r.Finalize()
	return &models.DirectScrapeResult{ScrapeResult: *r}
}

// tailExcerpt keeps the last limit bytes of stderr. Failures report at the
// end of the stream, so the tail is the informative part.
func tailExcerpt(b []byte, limit int) string {
	if limit <= 0 || len(b) <= limit {
		return string(bytes.TrimSpace(b))
	}
	return string(bytes.TrimSpace(b[len(b)-limit:]))
}
