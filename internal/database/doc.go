// Package database provides SQLite-based storage for docsearch runs.
//
// The TagDB stores:
//   - one row per crawl run with its final counters
//   - the pages scraped in each run with their tag counts
//   - every emitted tag URL together with its decoded tag text
//
// Stored runs can be listed, searched by tag text and compared to find
// tags added or removed between two crawls of the same manual. SQLite is
// accessed through modernc.org/sqlite, which needs no cgo.
package database
