package model

import "time"

// Summary describes one finished crawl run.
// It is rendered by the markdown summary writer and stored with the run
// in the result database.
type Summary struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// AllowedDomains are the hosts the crawl was restricted to.
	AllowedDomains []string `json:"allowed_domains"`

	// StartedAt is when the first fetch was scheduled.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the output stream closed.
	FinishedAt time.Time `json:"finished_at"`

	// PagesScraped is the number of pages that produced a Result.
	PagesScraped int `json:"pages_scraped"`

	// PagesFailed is the number of URLs whose fetch failed.
	PagesFailed int `json:"pages_failed"`

	// PagesRedirected is the number of scraped pages served from a URL
	// other than the one requested.
	PagesRedirected int `json:"pages_redirected"`

	// URLsVisited is the size of the visited set when the crawl ended.
	URLsVisited int `json:"urls_visited"`

	// TagsEmitted is the number of tag URLs written to the sinks.
	TagsEmitted int `json:"tags_emitted"`

	// Cancelled is true when the crawl stopped before the frontier drained.
	Cancelled bool `json:"cancelled"`

	// Output is where the tag URLs were written.
	Output string `json:"output,omitempty"`

	// TopPages lists the pages with the most tags, highest first.
	TopPages []PageStat `json:"top_pages,omitempty"`
}

// PageStat is the tag count of one scraped page.
type PageStat struct {
	URL  string `json:"url"`
	Tags int    `json:"tags"`
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
