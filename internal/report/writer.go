package report

import (
	"errors"
	"io"

	"github.com/nao1215/docsearch/internal/model"
)

// Writer consumes crawl results as they are produced.
// A Write error is fatal for the crawl; the caller cancels and stops.
type Writer interface {
	// Write records one page's tags.
	Write(result *model.Result) error

	// Close flushes buffered output and releases the destination.
	Close() error
}

// SummaryWriter renders a finished run.
type SummaryWriter interface {
	// WriteSummary outputs the summary.
	// Returns the number of bytes written and any error encountered.
	WriteSummary(summary *model.Summary) (int, error)
}

// MultiWriter fans every result out to several Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write passes result to every Writer in order.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.Result) error {
	for _, w := range m.writers {
		if err := w.Write(result); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every Writer, even after a failure, and joins the errors.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
