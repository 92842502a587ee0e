package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/docsearch/internal/model"
)

// SimpleWriter prints a plain-text crawl summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the top pages section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the top pages section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                  DOCSEARCH CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Seed:           %s\n", summary.Seed)
	fmt.Fprintf(&sb, "Domains:        %s\n", formatDomains(summary.AllowedDomains))
	fmt.Fprintf(&sb, "Duration:       %s\n", summary.Duration().Round(time.Millisecond))
	if summary.Cancelled {
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "  Pages scraped: %d\n", summary.PagesScraped)
	fmt.Fprintf(&sb, "  Pages failed:  %d\n", summary.PagesFailed)
	if summary.PagesRedirected > 0 {
		fmt.Fprintf(&sb, "  Redirected:    %d\n", summary.PagesRedirected)
	}
	fmt.Fprintf(&sb, "  URLs visited:  %d\n", summary.URLsVisited)
	fmt.Fprintf(&sb, "  Tags emitted:  %d\n", summary.TagsEmitted)
	if summary.Output != "" {
		fmt.Fprintf(&sb, "  Written to:    %s\n", summary.Output)
	}

	if w.verbose && len(summary.TopPages) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\nTOP PAGES\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		for _, p := range summary.TopPages {
			fmt.Fprintf(&sb, "  %5d  %s\n", p.Tags, p.URL)
		}
	}

	return io.WriteString(w.output, sb.String())
}
