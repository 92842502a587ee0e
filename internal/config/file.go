package config

import "time"

// File represents the structure of the docsearch configuration file.
// Every field is optional; unset fields keep the value they already have.
type File struct {
	// Seed is the first page to fetch.
	Seed string `yaml:"seed,omitempty"`

	// AllowedDomains restricts the crawl to these hosts.
	AllowedDomains []string `yaml:"allowedDomains,omitempty"`

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// Output is the path of the tag list.
	Output string `yaml:"output,omitempty"`

	// Crawl holds fetcher and engine tuning.
	Crawl CrawlSection `yaml:"crawl,omitempty"`

	// Scrape holds tag extraction settings.
	Scrape ScrapeSection `yaml:"scrape,omitempty"`

	// Summary is the path of the Markdown crawl summary.
	Summary string `yaml:"summary,omitempty"`

	// Database enables the SQLite tag store.
	Database DatabaseSection `yaml:"database,omitempty"`

	// MetricsAddr serves Prometheus metrics while crawling.
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// CrawlSection configures fetching.
type CrawlSection struct {
	Concurrency int               `yaml:"concurrency,omitempty"`
	BufferSize  *int              `yaml:"bufferSize,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	UserAgent   string            `yaml:"userAgent,omitempty"`
	MaxBodySize int64             `yaml:"maxBodySize,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// ScrapeSection configures tag extraction.
type ScrapeSection struct {
	Selector string `yaml:"selector,omitempty"`
	TagText  bool   `yaml:"tagText,omitempty"`
}

// DatabaseSection configures the SQLite store.
type DatabaseSection struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// Apply copies every value set in the file onto c.
// Headers are merged; keys in the file win over keys already in c.
func (f *File) Apply(c *Config) {
	if f == nil {
		return
	}

	if f.Seed != "" {
		c.SeedURL = f.Seed
	}
	if len(f.AllowedDomains) > 0 {
		c.AllowedDomains = f.AllowedDomains
	}
	if len(f.IgnorePatterns) > 0 {
		c.IgnorePatterns = f.IgnorePatterns
	}
	if f.Output != "" {
		c.OutputPath = f.Output
	}

	if f.Crawl.Concurrency != 0 {
		c.Concurrency = f.Crawl.Concurrency
	}
	if f.Crawl.BufferSize != nil {
		c.BufferSize = *f.Crawl.BufferSize
	}
	if f.Crawl.Timeout != 0 {
		c.Timeout = f.Crawl.Timeout
	}
	if f.Crawl.UserAgent != "" {
		c.UserAgent = f.Crawl.UserAgent
	}
	if f.Crawl.MaxBodySize != 0 {
		c.MaxBodySize = f.Crawl.MaxBodySize
	}
	if f.Crawl.Proxy != "" {
		c.ProxyAddress = f.Crawl.Proxy
	}
	if len(f.Crawl.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Crawl.Headers))
		}
		for k, v := range f.Crawl.Headers {
			c.Headers[k] = v
		}
	}

	if f.Scrape.Selector != "" {
		c.TagSelector = f.Scrape.Selector
	}
	if f.Scrape.TagText {
		c.TagText = true
	}

	if f.Summary != "" {
		c.SummaryFile = f.Summary
	}
	if f.Database.Enabled {
		c.SaveToDB = true
	}
	if f.Database.Dir != "" {
		c.DBDir = f.Database.Dir
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}
}
