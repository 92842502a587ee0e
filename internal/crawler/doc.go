// Package crawler implements the crawl-and-extract engine.
//
// # Architecture
//
// The Engine owns the visited set and the queue of pending URLs. Fetches run
// on a bounded set of worker goroutines; every fetched page is handed to the
// Scraper, which extracts help-tag URLs and discovers new same-domain links.
// Results are streamed on a bounded channel as pages complete.
//
// # Components
//
//   - Resolve / Normalize: canonicalize a raw href against a base URL
//   - VisitedSet: at-most-once visitation with a single check-and-insert
//   - DomainFilter: exact host allow-list plus optional ignored paths
//   - Scraper: tag extraction and link discovery over a parsed page
//   - HTTPFetcher: net/http based Fetcher that never leaves the domain
//   - Engine: scheduling, backpressure and cancellation
//
// # Usage
//
//	scraper, err := crawler.NewScraper()
//	if err != nil {
//		return err
//	}
//	fetcher, err := crawler.NewHTTPFetcher(crawler.WithRedirectFilter(filter))
//	if err != nil {
//		return err
//	}
//	engine := crawler.NewEngine(fetcher, scraper, crawler.WithDomainFilter(filter))
//	if err := engine.Visit("https://neovim.io/doc/user"); err != nil {
//		return err
//	}
//	for result := range engine.Run(ctx) {
//		// write result.Tags
//	}
//
// # Ordering
//
// Results arrive in fetch completion order, not discovery order. Within one
// Result the tags are sorted by their string form.
package crawler
