package model

import (
	"net/url"
	"slices"
	"strings"
)

// Result is the extraction output for one successfully scraped page.
// Tags holds a set of help-tag URLs; it may be empty.
type Result struct {
	// PageURL is the resolved response URL of the scraped page.
	PageURL *url.URL

	// Tags are the help-tag fragment URLs found on the page,
	// deduplicated and sorted by their string form.
	Tags []*url.URL
}

// NewResult builds a Result from the given tags, removing duplicates.
func NewResult(pageURL *url.URL, tags []*url.URL) *Result {
	seen := make(map[string]struct{}, len(tags))
	unique := make([]*url.URL, 0, len(tags))
	for _, tag := range tags {
		key := TagString(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, tag)
	}

	slices.SortFunc(unique, func(a, b *url.URL) int {
		return strings.Compare(TagString(a), TagString(b))
	})

	return &Result{PageURL: pageURL, Tags: unique}
}

// TagStrings returns the string form of every tag in order.
func (r *Result) TagStrings() []string {
	out := make([]string, len(r.Tags))
	for i, tag := range r.Tags {
		out[i] = TagString(tag)
	}
	return out
}

// TagString returns the line form of a tag URL. An element with no content
// still yields a tag, so an empty fragment keeps its "#" separator, which
// url.URL.String drops.
func TagString(tag *url.URL) string {
	s := tag.String()
	if tag.Fragment == "" && tag.RawFragment == "" {
		return s + "#"
	}
	return s
}
