package report

import (
	"cmp"
	"slices"
	"sync"

	"github.com/nao1215/docsearch/internal/model"
)

// DefaultTopPages is the number of pages listed in a summary.
const DefaultTopPages = 10

// Collector is a Writer that keeps per-page tag counts for the summary.
// It writes nothing itself.
type Collector struct {
	mu    sync.Mutex
	pages []model.PageStat
	tags  int
	top   int
}

// NewCollector creates a Collector that reports the top pages by tag count.
// A non-positive top uses DefaultTopPages.
func NewCollector(top int) *Collector {
	if top <= 0 {
		top = DefaultTopPages
	}
	return &Collector{top: top}
}

// Write records the tag count of result's page.
func (c *Collector) Write(result *model.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages = append(c.pages, model.PageStat{URL: result.PageURL.String(), Tags: len(result.Tags)})
	c.tags += len(result.Tags)
	return nil
}

// Close is a no-op.
func (c *Collector) Close() error {
	return nil
}

// Fill sets TagsEmitted and TopPages on summary.
func (c *Collector) Fill(summary *model.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := slices.Clone(c.pages)
	slices.SortStableFunc(sorted, func(a, b model.PageStat) int {
		if n := cmp.Compare(b.Tags, a.Tags); n != 0 {
			return n
		}
		return cmp.Compare(a.URL, b.URL)
	})
	sorted = slices.DeleteFunc(sorted, func(p model.PageStat) bool { return p.Tags == 0 })
	if len(sorted) > c.top {
		sorted = sorted[:c.top]
	}

	summary.TagsEmitted = c.tags
	summary.TopPages = sorted
}
