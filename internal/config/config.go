package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docsearch"

	// DefaultSeedURL is the first page of the Neovim user manual.
	DefaultSeedURL = "https://neovim.io/doc/user"

	// DefaultOutputPath is where tag URLs are written, one per line.
	DefaultOutputPath = "./out.txt"

	// DefaultConcurrency is the number of pages fetched at once.
	// The documentation site is small and static, so a handful of
	// connections is enough to finish in seconds without hammering it.
	DefaultConcurrency = 4

	// DefaultBufferSize is the capacity of the result stream between the
	// crawler and the output writer.
	DefaultBufferSize = 16

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies docsearch in HTTP requests.
	DefaultUserAgent = "docsearch/1.0 (+https://github.com/nao1215/docsearch)"

	// DefaultMaxBodySize limits the response body size parsed per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTagSelector matches help-tag anchors in the Neovim manual.
	DefaultTagSelector = ".help-tag, .help-tag-right"
)

// Config holds all options for a crawl.
// It is populated from defaults, then the config file, then CLI flags, and
// passed to the command that wires the crawler.
type Config struct {
	// SeedURL is the first page fetched. It must be an absolute http(s) URL.
	SeedURL string

	// AllowedDomains lists the hosts the crawl may fetch from.
	// When empty, the seed's host is used.
	AllowedDomains []string

	// IgnorePatterns are URL path globs that are never followed,
	// such as "/doc/api/*" or "*.pdf".
	IgnorePatterns []string

	// OutputPath is the file that receives one tag URL per line.
	// "-" writes to stdout.
	OutputPath string

	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	// BufferSize is the capacity of the result stream.
	// Zero makes the crawler wait for the writer on every page.
	BufferSize int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of body bytes parsed per page.
	MaxBodySize int64

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// TagSelector is the CSS selector for tag elements.
	TagSelector string

	// TagText uses the element text as the tag instead of its inner HTML.
	TagText bool

	// SummaryFile, when set, receives a Markdown summary of the crawl.
	SummaryFile string

	// SaveToDB stores every run and its tags in SQLite under DBDir.
	SaveToDB bool

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/docsearch on Linux).
	DBDir string

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// while the crawl runs.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches the log format from text to JSON.
	JSONLog bool

	// ConfigFilePath is the explicit configuration file, if any.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		SeedURL:     DefaultSeedURL,
		OutputPath:  DefaultOutputPath,
		Concurrency: DefaultConcurrency,
		BufferSize:  DefaultBufferSize,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		TagSelector: DefaultTagSelector,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for docsearch.
// On Linux: ~/.local/share/docsearch
// On macOS: ~/Library/Application Support/docsearch
// On Windows: %LOCALAPPDATA%\docsearch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docsearch.
// On Linux: ~/.config/docsearch
// On macOS: ~/Library/Application Support/docsearch
// On Windows: %APPDATA%\docsearch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Domains returns the hosts the crawl is restricted to.
// Without explicit AllowedDomains this is the seed's host.
func (c *Config) Domains() []string {
	if len(c.AllowedDomains) > 0 {
		return c.AllowedDomains
	}
	u, err := url.Parse(c.SeedURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return []string{strings.ToLower(u.Hostname())}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SeedURL) == "" {
		return ErrNoSeed
	}

	seed, err := url.Parse(c.SeedURL)
	if err != nil || (seed.Scheme != "http" && seed.Scheme != "https") || seed.Hostname() == "" {
		return ErrInvalidSeed
	}

	domains := c.Domains()
	if len(domains) == 0 {
		return ErrNoAllowedDomain
	}
	if !slices.Contains(lowerAll(domains), strings.ToLower(seed.Hostname())) {
		return ErrSeedOutsideDomains
	}

	if c.OutputPath == "" {
		return ErrNoOutput
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BufferSize < 0 {
		return ErrInvalidBufferSize
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if strings.TrimSpace(c.TagSelector) == "" {
		return ErrEmptySelector
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
