package crawler

import "errors"

// Errors returned by the crawler package.
// Callers use errors.Is to tell them apart; most are wrapped with the
// offending URL for context.
var (
	// ErrMalformedURL is returned when a link cannot be parsed at all.
	ErrMalformedURL = errors.New("malformed URL")

	// ErrRelativeWithoutBase is returned when a relative reference is
	// normalized without a base URL to resolve it against.
	ErrRelativeWithoutBase = errors.New("relative URL without a base")

	// ErrInvalidSelector is returned by NewScraper when a CSS selector
	// does not compile.
	ErrInvalidSelector = errors.New("invalid CSS selector")

	// ErrOutsideDomain is returned by Engine.Visit when the URL's host is
	// not one of the allowed domains.
	ErrOutsideDomain = errors.New("URL is outside the allowed domains")

	// ErrAlreadyVisited is returned by Engine.Visit when the URL is
	// already in the visited set.
	ErrAlreadyVisited = errors.New("URL already visited")

	// ErrEngineStarted is returned by Engine.Visit after Run was called.
	ErrEngineStarted = errors.New("crawl already started")

	// ErrUnexpectedStatus is returned when the server answers with a
	// non-2xx status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrRedirectOutsideDomain is returned when a redirect points to a host
	// outside the allowed domains. The redirect is not followed.
	ErrRedirectOutsideDomain = errors.New("redirect leaves the allowed domains")
)
