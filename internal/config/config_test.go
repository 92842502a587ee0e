package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default seed is the Neovim manual", func(t *testing.T) {
		t.Parallel()
		if cfg.SeedURL != "https://neovim.io/doc/user" {
			t.Errorf("expected SeedURL to be 'https://neovim.io/doc/user', got '%s'", cfg.SeedURL)
		}
	})

	t.Run("default output is ./out.txt", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputPath != "./out.txt" {
			t.Errorf("expected OutputPath to be './out.txt', got '%s'", cfg.OutputPath)
		}
	})

	t.Run("default domains come from the seed", func(t *testing.T) {
		t.Parallel()
		if got := cfg.Domains(); !slices.Equal(got, []string{"neovim.io"}) {
			t.Errorf("expected domains [neovim.io], got %v", got)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Concurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 4 {
			t.Errorf("expected Concurrency to be 4, got %d", cfg.Concurrency)
		}
	})

	t.Run("default selector matches help tags", func(t *testing.T) {
		t.Parallel()
		if cfg.TagSelector != ".help-tag, .help-tag-right" {
			t.Errorf("unexpected TagSelector %q", cfg.TagSelector)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with one broken rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"explicit domains including the seed host", func(c *Config) {
			c.AllowedDomains = []string{"example.com", "NeoVim.io"}
		}, nil},
		{"zero buffer is valid", func(c *Config) { c.BufferSize = 0 }, nil},
		{"empty seed", func(c *Config) { c.SeedURL = " " }, ErrNoSeed},
		{"relative seed", func(c *Config) { c.SeedURL = "doc/user" }, ErrInvalidSeed},
		{"non-http seed", func(c *Config) { c.SeedURL = "ftp://neovim.io/doc" }, ErrInvalidSeed},
		{"seed outside domains", func(c *Config) { c.AllowedDomains = []string{"example.com"} }, ErrSeedOutsideDomains},
		{"empty output", func(c *Config) { c.OutputPath = "" }, ErrNoOutput},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"negative buffer", func(c *Config) { c.BufferSize = -1 }, ErrInvalidBufferSize},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"blank selector", func(c *Config) { c.TagSelector = "  " }, ErrEmptySelector},
		{"database without directory", func(c *Config) {
			c.SaveToDB = true
			c.DBDir = ""
		}, ErrNoDBDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFileApply tests merging file values onto a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()

		zero := 0
		f := &File{
			Seed:           "https://example.com/docs/",
			AllowedDomains: []string{"example.com"},
			IgnorePatterns: []string{"*.pdf"},
			Output:         "tags.txt",
			Crawl: CrawlSection{
				Concurrency: 8,
				BufferSize:  &zero,
				Timeout:     5 * time.Second,
				UserAgent:   "custom",
				MaxBodySize: 1024,
				Proxy:       "127.0.0.1:1080",
				Headers:     map[string]string{"Cookie": "a=b"},
			},
			Scrape:      ScrapeSection{Selector: "code.tag", TagText: true},
			Summary:     "summary.md",
			Database:    DatabaseSection{Enabled: true, Dir: "/tmp/db"},
			MetricsAddr: ":9090",
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if cfg.SeedURL != "https://example.com/docs/" || cfg.OutputPath != "tags.txt" {
			t.Errorf("seed or output not applied: %+v", cfg)
		}
		if cfg.Concurrency != 8 || cfg.BufferSize != 0 || cfg.Timeout != 5*time.Second {
			t.Errorf("crawl section not applied: %+v", cfg)
		}
		if cfg.UserAgent != "custom" || cfg.MaxBodySize != 1024 || cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("fetch settings not applied: %+v", cfg)
		}
		if cfg.Headers["Cookie"] != "a=b" {
			t.Errorf("headers not applied: %v", cfg.Headers)
		}
		if cfg.TagSelector != "code.tag" || !cfg.TagText {
			t.Errorf("scrape section not applied: %+v", cfg)
		}
		if !cfg.SaveToDB || cfg.DBDir != "/tmp/db" || cfg.SummaryFile != "summary.md" || cfg.MetricsAddr != ":9090" {
			t.Errorf("outputs not applied: %+v", cfg)
		}
		if !slices.Equal(cfg.IgnorePatterns, []string{"*.pdf"}) {
			t.Errorf("ignore patterns not applied: %v", cfg.IgnorePatterns)
		}
	})

	t.Run("unset values keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg)

		if cfg.SeedURL != DefaultSeedURL || cfg.BufferSize != DefaultBufferSize || cfg.Concurrency != DefaultConcurrency {
			t.Errorf("defaults changed: %+v", cfg)
		}
	})

	t.Run("headers are merged", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Headers = map[string]string{"X-A": "1", "X-B": "1"}
		(&File{Crawl: CrawlSection{Headers: map[string]string{"X-B": "2"}}}).Apply(cfg)

		if cfg.Headers["X-A"] != "1" || cfg.Headers["X-B"] != "2" {
			t.Errorf("unexpected headers: %v", cfg.Headers)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()

		var f *File
		cfg := NewConfig()
		f.Apply(cfg)
		if cfg.SeedURL != DefaultSeedURL {
			t.Error("expected defaults to be kept")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.docsearch")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".docsearch")
		content := `seed: https://neovim.io/doc/user/
allowedDomains:
  - neovim.io
ignorePatterns:
  - "/doc/api/*"
output: tags.txt
crawl:
  concurrency: 2
  bufferSize: 0
  timeout: 10s
  headers:
    Authorization: "Bearer token"
scrape:
  tagText: true
database:
  enabled: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Seed != "https://neovim.io/doc/user/" {
			t.Errorf("unexpected seed %q", cfg.Seed)
		}
		if cfg.Crawl.Concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", cfg.Crawl.Concurrency)
		}
		if cfg.Crawl.BufferSize == nil || *cfg.Crawl.BufferSize != 0 {
			t.Errorf("expected explicit zero buffer size, got %v", cfg.Crawl.BufferSize)
		}
		if cfg.Crawl.Timeout != 10*time.Second {
			t.Errorf("expected timeout 10s, got %v", cfg.Crawl.Timeout)
		}
		if cfg.Crawl.Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header")
		}
		if !cfg.Scrape.TagText || !cfg.Database.Enabled {
			t.Errorf("expected flags to be set: %+v", cfg)
		}
		if len(cfg.IgnorePatterns) != 1 {
			t.Errorf("expected 1 ignore pattern, got %d", len(cfg.IgnorePatterns))
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".docsearch")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("seed: https://neovim.io/"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG data dir to end in %s, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG config dir to end in %s, got %q", AppName, dir)
	}
}
