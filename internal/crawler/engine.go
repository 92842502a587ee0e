package crawler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docsearch/internal/model"
)

// Default engine settings.
const (
	// DefaultConcurrency is the number of fetches in flight at once.
	DefaultConcurrency = 4

	// DefaultBufferSize is the capacity of the result channel.
	DefaultBufferSize = 16
)

// Recorder observes crawl progress. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// FetchStarted is called before each fetch.
	FetchStarted()

	// FetchFailed is called when a fetch returns an error.
	FetchFailed(err error)

	// PageScraped is called after a Result was delivered.
	PageScraped(tags, newLinks int)
}

type nopRecorder struct{}

func (nopRecorder) FetchStarted() {}
func (nopRecorder) FetchFailed(error) {}
func (nopRecorder) PageScraped(int, int) {}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	// Visited is the size of the visited set.
	Visited int

	// Scraped is the number of Results delivered.
	Scraped int

	// Failed is the number of fetches that returned an error.
	Failed int

	// Tags is the number of tag URLs delivered.
	Tags int

	// Redirected is the number of scraped pages served from another URL.
	Redirected int

	// InFlight is the number of fetches currently running.
	InFlight int
}

// Engine drives the fetch, scrape and enqueue loop.
// It owns the visited set and the pending queue; pages are fetched by up
// to concurrency workers and their Results are sent on a bounded channel.
type Engine struct {
	fetcher     Fetcher
	scraper     *Scraper
	filter      *DomainFilter
	visited     *VisitedSet
	concurrency int
	bufferSize  int
	logger      *slog.Logger
	recorder    Recorder

	mu      sync.Mutex
	seeds   []*url.URL
	started bool

	scraped  atomic.Int64
	failed   atomic.Int64
	tags       atomic.Int64
	redirected atomic.Int64
	inFlight   atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAllowedDomains restricts the crawl to the given hosts.
func WithAllowedDomains(hosts ...string) EngineOption {
	return func(e *Engine) {
		e.filter = NewDomainFilter(hosts...)
	}
}

// WithDomainFilter sets the filter applied to seeds and discovered links.
func WithDomainFilter(filter *DomainFilter) EngineOption {
	return func(e *Engine) {
		e.filter = filter
	}
}

// WithConcurrency sets the maximum number of fetches in flight.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithBufferSize sets the capacity of the result channel.
// Zero makes every send wait for the consumer.
func WithBufferSize(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.bufferSize = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder sets a progress observer, such as a metrics collector.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// NewEngine creates an Engine. Without WithAllowedDomains or
// WithDomainFilter any http(s) host is allowed.
func NewEngine(fetcher Fetcher, scraper *Scraper, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:     fetcher,
		scraper:     scraper,
		filter:      NewDomainFilter(),
		visited:     NewVisitedSet(),
		concurrency: DefaultConcurrency,
		bufferSize:  DefaultBufferSize,
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	return e
}

// Visit enqueues a seed URL. It must be called before Run.
// The URL is normalized, checked against the domain filter and marked as
// visited, so a page linking back to the seed does not fetch it again.
func (e *Engine) Visit(raw string) error {
	u, err := Normalize(nil, raw)
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", raw, err)
	}
	if !e.filter.Allows(u) {
		return fmt.Errorf("%w: %s", ErrOutsideDomain, u)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrEngineStarted
	}
	if !e.visited.Mark(u) {
		return fmt.Errorf("%w: %s", ErrAlreadyVisited, u)
	}
	e.seeds = append(e.seeds, u)
	return nil
}

// Run starts the crawl and returns the result stream.
//
// The channel is closed when the queue is empty and no fetch is
// outstanding, or after ctx is cancelled and in-flight fetches returned.
// The consumer must drain the channel or cancel ctx. Run can be called
// once; later calls return a closed channel.
func (e *Engine) Run(ctx context.Context) <-chan *model.Result {
	out := make(chan *model.Result, e.bufferSize)

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		e.logger.Error("crawl already started, engine cannot be restarted")
		close(out)
		return out
	}
	e.started = true
	pending := e.seeds
	e.seeds = nil
	e.mu.Unlock()

	go func() {
		defer close(out)
		e.crawl(ctx, pending, out)
	}()

	return out
}

// Results is a pull-style view of Run. Stopping the iteration early
// cancels the crawl.
func (e *Engine) Results(ctx context.Context) iter.Seq[*model.Result] {
	return func(yield func(*model.Result) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := e.Run(ctx)
		for result := range results {
			if !yield(result) {
				cancel()
				for range results {
				}
				return
			}
		}
	}
}

// Stats returns a snapshot of the crawl counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Visited:    e.visited.Len(),
		Scraped:    int(e.scraped.Load()),
		Failed:     int(e.failed.Load()),
		Tags:       int(e.tags.Load()),
		Redirected: int(e.redirected.Load()),
		InFlight:   int(e.inFlight.Load()),
	}
}

// crawl is the coordinator loop. It is the only goroutine that touches
// pending; workers hand their discovered links back over discovered.
func (e *Engine) crawl(ctx context.Context, pending []*url.URL, out chan<- *model.Result) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	discovered := make(chan []*url.URL)
	running := 0

	e.logger.Info("crawl started",
		"seeds", len(pending),
		"allowedDomains", e.filter.Hosts(),
		"concurrency", e.concurrency,
	)

	for {
		for len(pending) > 0 && running < e.concurrency && ctx.Err() == nil {
			target := pending[0]
			pending[0] = nil
			pending = pending[1:]

			running++
			e.inFlight.Add(1)
			g.Go(func() error {
				discovered <- e.process(ctx, target, out)
				return nil
			})
		}

		if running == 0 {
			break
		}

		links := <-discovered
		running--
		e.inFlight.Add(-1)
		if ctx.Err() == nil {
			pending = append(pending, links...)
		}
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	stats := e.Stats()
	if ctx.Err() != nil {
		e.logger.Warn("crawl cancelled",
			"reason", ctx.Err(),
			"unfetched", len(pending),
			"scraped", stats.Scraped,
		)
		return
	}
	e.logger.Info("crawl finished",
		"visited", stats.Visited,
		"scraped", stats.Scraped,
		"failed", stats.Failed,
		"tags", stats.Tags,
	)
}

// process fetches and scrapes one URL, delivers its Result and returns the
// newly claimed links. A failed fetch returns nil and the URL stays visited.
func (e *Engine) process(ctx context.Context, target *url.URL, out chan<- *model.Result) []*url.URL {
	e.recorder.FetchStarted()

	page, err := e.fetcher.Fetch(ctx, target)
	if err == nil && !e.filter.AllowsHost(page.ResponseURL) {
		err = fmt.Errorf("%w: %s", ErrRedirectOutsideDomain, page.ResponseURL)
	}
	if err != nil {
		e.failed.Add(1)
		e.recorder.FetchFailed(err)
		if !errors.Is(err, context.Canceled) {
			e.logger.Warn("fetch failed", "url", target.String(), "error", err)
		}
		return nil
	}

	result, links := e.scraper.Scrape(page, e.filter, e.visited)

	select {
	case out <- result:
	case <-ctx.Done():
		return nil
	}

	e.scraped.Add(1)
	e.tags.Add(int64(len(result.Tags)))
	if page.Redirected() {
		e.redirected.Add(1)
		e.logger.Debug("page redirected",
			"requested", target.String(),
			"final", page.ResponseURL.String(),
		)
	}
	e.recorder.PageScraped(len(result.Tags), len(links))

	e.logger.Debug("page scraped",
		"url", page.ResponseURL.String(),
		"tags", len(result.Tags),
		"newLinks", len(links),
	)

	return links
}
