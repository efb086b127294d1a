package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Pool       PoolConfig
	Scraper    ScraperConfig
	Isolated   IsolatedConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Log        LogConfig
	Heuristics HeuristicsConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// PoolConfig controls the browser instance pool.
type PoolConfig struct {
	// Capacity is the maximum number of concurrent browser processes.
	// Each one is expensive, so this stays in the low single digits.
	Capacity int // default: 3

	// IdleTimeout is how long a released instance may sit unused before
	// the reclaimer closes it.
	IdleTimeout time.Duration // default: 3m

	// ReclaimInterval is the tick of the background reclaimer.
	ReclaimInterval time.Duration // default: 30s

	// Headless controls whether browsers run headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides browser binary discovery entirely.
	BrowserBin string
}

// ScraperConfig controls the rendered-page scrape protocol.
type ScraperConfig struct {
	// NavTimeout bounds page navigation plus the readiness wait.
	NavTimeout time.Duration // default: 20s

	// SettleDelay is the fixed pause after navigation so client-side
	// frameworks finish mutating the DOM.
	SettleDelay time.Duration // default: 4s

	// SelectorWait is the best-effort wait for a likely content element
	// to appear. Expiry is not an error.
	SelectorWait time.Duration // default: 5s

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: true

	// UserAgent is sent on every rendered and static fetch.
	UserAgent string
}

// IsolatedConfig controls the child-process scrape path.
type IsolatedConfig struct {
	// WallClockTimeout is the hard deadline after which the child is
	// force-killed.
	WallClockTimeout time.Duration // default: 45s

	// StderrLimit bounds the stderr excerpt kept for diagnostics.
	StderrLimit int // default: 2048
}

// RateLimitConfig controls per-client API rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 2
	Burst             int     // default: 5
}

// CacheConfig controls the in-memory scrape result cache.
type CacheConfig struct {
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("DISTILL_HOST", "0.0.0.0"),
			Port: envIntOr("DISTILL_PORT", 8080),
			Mode: envOr("DISTILL_MODE", "release"),
		},
		Pool: PoolConfig{
			Capacity:        envIntOr("DISTILL_POOL_CAPACITY", 3),
			IdleTimeout:     envDurationOr("DISTILL_POOL_IDLE_TIMEOUT", 3*time.Minute),
			ReclaimInterval: envDurationOr("DISTILL_POOL_RECLAIM_INTERVAL", 30*time.Second),
			Headless:        envBoolOr("DISTILL_HEADLESS", true),
			NoSandbox:       envBoolOr("DISTILL_NO_SANDBOX", false),
			BrowserBin:      os.Getenv("DISTILL_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavTimeout:   envDurationOr("DISTILL_NAV_TIMEOUT", 20*time.Second),
			SettleDelay:  envDurationOr("DISTILL_SETTLE_DELAY", 4*time.Second),
			SelectorWait: envDurationOr("DISTILL_SELECTOR_WAIT", 5*time.Second),
			Stealth:      envBoolOr("DISTILL_STEALTH", true),
			UserAgent:    envOr("DISTILL_USER_AGENT", defaultUserAgent),
		},
		Isolated: IsolatedConfig{
			WallClockTimeout: envDurationOr("DISTILL_ISOLATED_TIMEOUT", 45*time.Second),
			StderrLimit:      envIntOr("DISTILL_ISOLATED_STDERR_LIMIT", 2048),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("DISTILL_RATE_RPS", 2.0),
			Burst:             envIntOr("DISTILL_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("DISTILL_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("DISTILL_LOG_LEVEL", "info"),
			Format: envOr("DISTILL_LOG_FORMAT", "json"),
		},
		Heuristics: LoadHeuristics(os.Getenv("DISTILL_HEURISTICS_FILE")),
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
