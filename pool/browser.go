package pool

import (
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/page-distill/distill/config"
)

// Engine is the minimal browser surface the pool and scrapers need.
type Engine interface {
	// NewPage opens a fresh browsing context on the instance.
	NewPage() (*rod.Page, error)

	// CleanupPages closes every open page except one about:blank
	// placeholder, bounding per-instance memory growth between uses.
	CleanupPages() error

	// Close tears down the browser process.
	Close() error
}

// managedChromePath is where the managed container image installs Chrome.
const managedChromePath = "/opt/google/chrome/chrome"

// linuxChromePaths are common system install locations, tried in order.
var linuxChromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// ResolveBrowserBin picks the browser executable: explicit override first,
// then the managed install path, then common Linux locations. An empty
// return defers to the rod launcher's own managed download.
func ResolveBrowserBin(override string) string {
	if override != "" {
		return override
	}
	if fileExists(managedChromePath) {
		return managedChromePath
	}
	for _, path := range linuxChromePaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// NewBrowserFactory returns a Factory launching real headless browsers via
// the rod launcher, configured from cfg.
func NewBrowserFactory(cfg config.PoolConfig) Factory {
	return func() (Engine, error) {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if bin := ResolveBrowserBin(cfg.BrowserBin); bin != "" {
			l = l.Bin(bin)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			return nil, err
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			return nil, err
		}
		return &rodEngine{browser: browser, ln: l}, nil
	}
}

// rodEngine adapts a rod browser process to the Engine interface.
type rodEngine struct {
	browser *rod.Browser
	ln      *launcher.Launcher
}

func (e *rodEngine) NewPage() (*rod.Page, error) {
	return e.browser.Page(proto.TargetCreateTarget{})
}

func (e *rodEngine) CleanupPages() error {
	pages, err := e.browser.Pages()
	if err != nil {
		return err
	}

	var firstErr error
	keptBlank := false
	for _, page := range pages {
		info, infoErr := page.Info()
		if infoErr == nil && info.URL == "about:blank" && !keptBlank {
			keptBlank = true
			continue
		}
		if closeErr := page.Close(); closeErr != nil && firstErr == nil {
			firstErr = closeErr
		}
	}
	return firstErr
}

func (e *rodEngine) Close() error {
	err := e.browser.Close()
	e.ln.Kill()
	return err
}
