package crawler

import (
	"net/url"
	"sync"
)

// VisitedSet records every URL that was scheduled for fetching.
// A URL is inserted at most once and never removed. Mark is the only
// mutation; it checks and inserts under one lock so two concurrent scrapes
// can never both claim the same URL.
type VisitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewVisitedSet returns an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// Mark inserts u and reports whether it was not yet present.
// A false return means some other caller already owns u.
func (v *VisitedSet) Mark(u *url.URL) bool {
	key := u.String()

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[key]; ok {
		return false
	}
	v.urls[key] = struct{}{}
	return true
}

// Contains reports whether u has been marked.
func (v *VisitedSet) Contains(u *url.URL) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.urls[u.String()]
	return ok
}

// Len returns the number of marked URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}
