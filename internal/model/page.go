package model

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Page is the fetched representation of one URL.
// It is owned by the fetch step, handed to the scraper and then dropped.
type Page struct {
	// RequestedURL is the URL the crawler asked for.
	RequestedURL *url.URL

	// ResponseURL is the final URL after redirects.
	// Help-tag URLs are built on top of this URL, not RequestedURL.
	ResponseURL *url.URL

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the value of the Content-Type response header.
	ContentType string

	// Document is the parsed DOM of the response body.
	Document *goquery.Document
}

// Redirected reports whether the page was served from a different URL
// than the one requested.
func (p *Page) Redirected() bool {
	if p.RequestedURL == nil || p.ResponseURL == nil {
		return false
	}
	return p.RequestedURL.String() != p.ResponseURL.String()
}
