package crawler

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/nao1215/docsearch/internal/model"
)

const (
	// DefaultTagSelector matches the elements that mark help-tag anchors.
	DefaultTagSelector = ".help-tag, .help-tag-right"

	// linkSelector matches the anchors followed during crawling.
	linkSelector = "a[href]"
)

// Scraper extracts help-tag URLs and new links from a fetched page.
// It holds compiled selectors only and is safe for concurrent use.
type Scraper struct {
	tagSelector  cascadia.Selector
	linkSelector cascadia.Selector

	// tagText uses the element's text instead of its inner HTML.
	tagText bool

	logger *slog.Logger
}

// ScraperOption configures a Scraper.
type ScraperOption func(*scraperConfig)

type scraperConfig struct {
	tagSelector string
	tagText     bool
	logger      *slog.Logger
}

// WithTagSelector replaces the CSS selector used for tag extraction.
func WithTagSelector(selector string) ScraperOption {
	return func(c *scraperConfig) {
		c.tagSelector = selector
	}
}

// WithTagText makes the scraper use an element's text content as the tag
// instead of its inner HTML.
func WithTagText(enabled bool) ScraperOption {
	return func(c *scraperConfig) {
		c.tagText = enabled
	}
}

// WithScraperLogger sets the logger used for skipped links.
func WithScraperLogger(logger *slog.Logger) ScraperOption {
	return func(c *scraperConfig) {
		c.logger = logger
	}
}

// NewScraper compiles the selectors. A selector that does not compile is a
// configuration error and is reported before any page is fetched.
func NewScraper(opts ...ScraperOption) (*Scraper, error) {
	cfg := scraperConfig{tagSelector: DefaultTagSelector}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	tagSel, err := cascadia.Compile(cfg.tagSelector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, cfg.tagSelector, err)
	}
	linkSel, err := cascadia.Compile(linkSelector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, linkSelector, err)
	}

	return &Scraper{
		tagSelector:  tagSel,
		linkSelector: linkSel,
		tagText:      cfg.tagText,
		logger:       cfg.logger,
	}, nil
}

// Scrape runs tag extraction and link discovery over page.
//
// Every discovered link that passes filter is marked in visited before
// Scrape returns, so a URL linked twice on the page, or by a page scraped
// concurrently, is returned only once across all calls.
func (s *Scraper) Scrape(page *model.Page, filter *DomainFilter, visited *VisitedSet) (*model.Result, []*url.URL) {
	tags := s.extractTags(page)
	links := s.discoverLinks(page, filter, visited)
	return model.NewResult(page.ResponseURL, tags), links
}

// extractTags builds one fragment URL per matching element on top of the
// page's response URL.
func (s *Scraper) extractTags(page *model.Page) []*url.URL {
	tags := make([]*url.URL, 0)
	page.Document.FindMatcher(s.tagSelector).Each(func(_ int, sel *goquery.Selection) {
		var content string
		if s.tagText {
			content = sel.Text()
		} else {
			content = innerHTML(sel.Get(0))
		}
		tags = append(tags, tagURL(page.ResponseURL, content))
	})
	return tags
}

// discoverLinks resolves every href, drops what the filter rejects and
// claims the rest in visited.
func (s *Scraper) discoverLinks(page *model.Page, filter *DomainFilter, visited *VisitedSet) []*url.URL {
	links := make([]*url.URL, 0)
	page.Document.FindMatcher(s.linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}

		ref := Resolve(page.ResponseURL, href)
		if ref.Kind == Malformed {
			s.logger.Debug("skipping malformed link",
				"page", page.ResponseURL.String(),
				"href", href,
				"error", ref.Err,
			)
			return
		}

		if !filter.Allows(ref.URL) {
			return
		}
		if !visited.Mark(ref.URL) {
			return
		}
		links = append(links, ref.URL)
	})
	return links
}
