package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Scroll  ScrollConfig
	Card    CardConfig
	Store   StoreConfig
	Enrich  EnrichConfig
	Status  StatusConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: false, the results page behaves best with a window

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for the browser and the HTTP engine.
	Proxy string

	// Stealth injects the stealth script into every page.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block on the results page.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// WindowWidth and WindowHeight size the browser viewport.
	WindowWidth  int // default: 1366
	WindowHeight int // default: 900

	// RenderTimeout bounds a single page render by the browser engine.
	RenderTimeout time.Duration // default: 30s
}

// ScrollConfig controls the results feed scroll loop.
type ScrollConfig struct {
	Increment    int           // default: 500 px
	Pause        time.Duration // default: 1.5s
	StallWait    time.Duration // default: 10s
	StallLimit   int           // default: 3
	MaxRetries   int           // default: 3
	ErrorBackoff time.Duration // default: 2s
	FeedWait     time.Duration // default: 10s

	// InitialWait is slept after the results page is first loaded.
	InitialWait time.Duration // default: 5s
}

// CardConfig controls the per-card click/read/back sequence.
type CardConfig struct {
	DetailPause time.Duration // default: 1s
	BackPause   time.Duration // default: 500ms
	DetailWait  time.Duration // default: 3s
}

// StoreConfig controls the record file.
type StoreConfig struct {
	// RecordsPath is the CSV file harvested records are appended to.
	RecordsPath string // default: "gmaps_data.csv"
}

// EnrichConfig controls the email enrichment pass.
type EnrichConfig struct {
	// Input is the record file to enrich.
	Input string // default: "gmaps_data.csv"

	// Output is the enriched CSV file.
	Output string // default: "gmaps_data_with_emails.csv"

	// Rate is the number of website fetches allowed per second.
	Rate float64 // default: 1

	// Timeout bounds a single website fetch.
	Timeout time.Duration // default: 10s

	// FollowContact fetches a contact page when the homepage has no email.
	FollowContact bool // default: true

	// BrowserFallback escalates to the browser for JS-only websites.
	BrowserFallback bool // default: false

	// CacheEntries caps the fetched page cache.
	CacheEntries int // default: 500

	// CacheTTL is how long a fetched page is reused.
	CacheTTL time.Duration // default: 1h
}

// StatusConfig controls the optional progress server.
type StatusConfig struct {
	// Addr enables the status server when non-empty, e.g. ":8090".
	Addr string

	// Mode is the gin mode: "debug", "release" or "test".
	Mode string // default: "release"

	// APIKeys, when set, are required on every route except health.
	APIKeys []string

	// RequestsPerSecond and Burst limit each client of the status server.
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// WebhookConfig controls completion notifications.
type WebhookConfig struct {
	// URL enables notifications when non-empty.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first; variables already
// set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &Config{
		Browser: BrowserConfig{
			Headless:             envBoolOr("GMAPS_HEADLESS", false),
			NoSandbox:            envBoolOr("GMAPS_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("GMAPS_BROWSER_BIN"),
			Proxy:                os.Getenv("GMAPS_PROXY"),
			Stealth:              envBoolOr("GMAPS_STEALTH", true),
			BlockedResourceTypes: envSliceOr("GMAPS_BLOCKED_RESOURCES", []string{"Font", "Media"}),
			WindowWidth:          envIntOr("GMAPS_WINDOW_WIDTH", 1366),
			WindowHeight:         envIntOr("GMAPS_WINDOW_HEIGHT", 900),
			RenderTimeout:        envDurationOr("GMAPS_RENDER_TIMEOUT", 30*time.Second),
		},
		Scroll: ScrollConfig{
			Increment:    envIntOr("GMAPS_SCROLL_INCREMENT", 500),
			Pause:        envDurationOr("GMAPS_SCROLL_PAUSE", 1500*time.Millisecond),
			StallWait:    envDurationOr("GMAPS_STALL_WAIT", 10*time.Second),
			StallLimit:   envIntOr("GMAPS_STALL_LIMIT", 3),
			MaxRetries:   envIntOr("GMAPS_MAX_RETRIES", 3),
			ErrorBackoff: envDurationOr("GMAPS_ERROR_BACKOFF", 2*time.Second),
			FeedWait:     envDurationOr("GMAPS_FEED_WAIT", 10*time.Second),
			InitialWait:  envDurationOr("GMAPS_INITIAL_WAIT", 5*time.Second),
		},
		Card: CardConfig{
			DetailPause: envDurationOr("GMAPS_DETAIL_PAUSE", time.Second),
			BackPause:   envDurationOr("GMAPS_BACK_PAUSE", 500*time.Millisecond),
			DetailWait:  envDurationOr("GMAPS_DETAIL_WAIT", 3*time.Second),
		},
		Store: StoreConfig{
			RecordsPath: envOr("GMAPS_RECORDS", "gmaps_data.csv"),
		},
		Enrich: EnrichConfig{
			Input:           envOr("GMAPS_ENRICH_INPUT", "gmaps_data.csv"),
			Output:          envOr("GMAPS_ENRICH_OUTPUT", "gmaps_data_with_emails.csv"),
			Rate:            envFloatOr("GMAPS_ENRICH_RATE", 1.0),
			Timeout:         envDurationOr("GMAPS_ENRICH_TIMEOUT", 10*time.Second),
			FollowContact:   envBoolOr("GMAPS_FOLLOW_CONTACT", true),
			BrowserFallback: envBoolOr("GMAPS_BROWSER_FALLBACK", false),
			CacheEntries:    envIntOr("GMAPS_CACHE_ENTRIES", 500),
			CacheTTL:        envDurationOr("GMAPS_CACHE_TTL", time.Hour),
		},
		Status: StatusConfig{
			Addr: os.Getenv("GMAPS_STATUS_ADDR"),
			Mode: envOr("GMAPS_STATUS_MODE", "release"),

			APIKeys:           envSliceOr("GMAPS_STATUS_API_KEYS", nil),
			RequestsPerSecond: envFloatOr("GMAPS_STATUS_RPS", 5.0),
			Burst:             envIntOr("GMAPS_STATUS_BURST", 10),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("GMAPS_WEBHOOK_URL"),
			Secret: os.Getenv("GMAPS_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("GMAPS_LOG_LEVEL", "info"),
			Format: envOr("GMAPS_LOG_FORMAT", "text"),
		},
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
