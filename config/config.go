package config

import (
	"os"
	"time"
)

// Config holds all application configuration. Values start from Default()
// and are overridden by CLI flags; the tool deliberately has no config file.
type Config struct {
	Fetch   FetchConfig
	Media   MediaConfig
	Browser BrowserConfig
	Log     LogConfig
}

// FetchConfig controls article retrieval.
type FetchConfig struct {
	// Timeout is the deadline for a single HTTP request.
	Timeout time.Duration // default: 30s

	// WarmupDelay is the pause between the warm-up root fetch and the
	// retried article fetch. It simulates human pacing, nothing more.
	WarmupDelay time.Duration // default: 1s

	// Proxy is an optional proxy URL (http, https, socks5) for page
	// fetches. Empty means direct connection.
	Proxy string

	// CurlBin is the external HTTP client used by the last-resort
	// strategy and the image download fallback.
	CurlBin string // default: "curl"

	// Selector optionally restricts the located body to elements
	// matching a CSS selector before rendering.
	Selector string
}

// MediaConfig controls image extraction and download.
type MediaConfig struct {
	// Dir is the directory images are written to, relative to the
	// working directory. Created if absent.
	Dir string // default: "_media"

	// RequestDelay is the fixed pacing delay between image downloads.
	RequestDelay time.Duration // default: 500ms
}

// BrowserConfig controls the optional headless-browser retrieval strategy.
type BrowserConfig struct {
	// Enabled inserts the browser strategy before the external-process
	// one. Off by default: launching Chrome is expensive and usually
	// unnecessary.
	Enabled bool

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Default returns the configuration defaults. The proxy falls back to
// MEDIUMDL_PROXY so shell setups can avoid repeating the flag.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			WarmupDelay: time.Second,
			Proxy:       os.Getenv("MEDIUMDL_PROXY"),
			CurlBin:     "curl",
		},
		Media: MediaConfig{
			Dir:          "_media",
			RequestDelay: 500 * time.Millisecond,
		},
		Browser: BrowserConfig{
			Enabled:  false,
			Headless: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
