// Package model defines the data structures shared by the crawler, the
// report writers and the result store.
//
// This package contains the following main types:
//   - Page: a fetched page with its resolved response URL and parsed DOM
//   - Result: the help-tag URLs extracted from one page
//   - Summary: counters describing one crawl run
//
// The types live in their own package so that crawler, report and database
// can share them without import cycles.
package model
