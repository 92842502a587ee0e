// Package metrics exposes crawl progress as Prometheus metrics.
//
// A Collector implements crawler.Recorder, so it is handed to the engine
// with crawler.WithRecorder. Metrics live on the Collector's own registry
// and are served by Server on /metrics while the crawl runs.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/docsearch/internal/crawler"
)

const namespace = "docsearch"

// Failure reasons used as the "reason" label.
const (
	ReasonStatus    = "status"
	ReasonNotHTML   = "not_html"
	ReasonRedirect  = "redirect"
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
	ReasonOther     = "other"
)

// Collector records crawl progress. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	fetches       prometheus.Counter
	failures      *prometheus.CounterVec
	pages         prometheus.Counter
	tags          prometheus.Counter
	links         prometheus.Counter
	tagsPerPage   prometheus.Histogram
	statsFuncsSet bool
}

// NewCollector creates a Collector with its own registry, including the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of page fetches started.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Total number of failed page fetches.",
		}, []string{"reason"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_scraped_total",
			Help:      "Total number of pages scraped and delivered.",
		}),
		tags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tags_emitted_total",
			Help:      "Total number of help-tag URLs emitted.",
		}),
		links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_enqueued_total",
			Help:      "Total number of new links added to the crawl queue.",
		}),
		tagsPerPage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tags_per_page",
			Help:      "Number of help tags found per page.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}

	c.registry.MustRegister(
		c.fetches,
		c.failures,
		c.pages,
		c.tags,
		c.links,
		c.tagsPerPage,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// FetchStarted implements crawler.Recorder.
func (c *Collector) FetchStarted() {
	c.fetches.Inc()
}

// FetchFailed implements crawler.Recorder.
func (c *Collector) FetchFailed(err error) {
	c.failures.WithLabelValues(Reason(err)).Inc()
}

// PageScraped implements crawler.Recorder.
func (c *Collector) PageScraped(tags, newLinks int) {
	c.pages.Inc()
	c.tags.Add(float64(tags))
	c.links.Add(float64(newLinks))
	c.tagsPerPage.Observe(float64(tags))
}

// WatchEngine exposes the engine's visited and in-flight counters as
// gauges. Only the first call has an effect.
func (c *Collector) WatchEngine(stats func() crawler.Stats) {
	if c.statsFuncsSet {
		return
	}
	c.statsFuncsSet = true

	c.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "urls_visited",
			Help:      "Number of URLs claimed by the crawl.",
		}, func() float64 { return float64(stats().Visited) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetches_in_flight",
			Help:      "Number of fetches currently running.",
		}, func() float64 { return float64(stats().InFlight) }),
	)
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reason maps a fetch error to a failure label.
func Reason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, crawler.ErrUnexpectedStatus):
		return ReasonStatus
	case errors.Is(err, crawler.ErrNotHTML):
		return ReasonNotHTML
	case errors.Is(err, crawler.ErrRedirectOutsideDomain):
		return ReasonRedirect
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ReasonTimeout
	}
	return ReasonOther
}
