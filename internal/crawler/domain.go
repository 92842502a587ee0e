package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DomainFilter decides which URLs belong to the crawl.
// A URL is allowed when it is http or https, its host exactly matches one
// of the configured hosts (case-insensitive, subdomains excluded) and its
// path matches none of the ignore patterns. An empty host list allows any
// host.
type DomainFilter struct {
	hosts          map[string]struct{}
	order          []string
	ignorePatterns []string
}

// NewDomainFilter returns a filter for the given hosts.
// Hosts are compared without port.
func NewDomainFilter(hosts ...string) *DomainFilter {
	f := &DomainFilter{hosts: make(map[string]struct{})}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, dup := f.hosts[h]; dup {
			continue
		}
		f.hosts[h] = struct{}{}
		f.order = append(f.order, h)
	}
	return f
}

// WithIgnorePatterns returns the filter after setting glob patterns for
// paths that must not be crawled (e.g. "/doc/api/*", "*.pdf").
func (f *DomainFilter) WithIgnorePatterns(patterns []string) *DomainFilter {
	f.ignorePatterns = append([]string(nil), patterns...)
	return f
}

// Hosts returns the allowed hosts in the order they were configured.
func (f *DomainFilter) Hosts() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.order...)
}

// AllowsHost reports whether u is an http(s) URL on an allowed host.
func (f *DomainFilter) AllowsHost(u *url.URL) bool {
	if u == nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if f == nil || len(f.hosts) == 0 {
		return true
	}
	_, ok := f.hosts[host]
	return ok
}

// Allows reports whether u should be enqueued.
func (f *DomainFilter) Allows(u *url.URL) bool {
	if !f.AllowsHost(u) {
		return false
	}
	if f == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range f.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

// matchPattern checks if a path matches a glob pattern.
//   - "/dir/*" matches "/dir" and anything below it
//   - "*.ext" matches any path ending in .ext
//   - anything else is matched with filepath.Match against the whole path
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		if strings.HasSuffix(path, "."+ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}
