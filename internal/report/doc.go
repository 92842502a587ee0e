// Package report writes crawl output.
//
// Results flow through Writer implementations while the crawl runs:
//   - LineWriter: the tag list, one URL per line
//   - Collector: per-page tag counts for the summary
//   - MultiWriter: fans a result out to several Writers
//
// When the crawl ends, a SummaryWriter renders the run:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a chart
//   - JSONWriter: a JSON document for tool integration
package report
