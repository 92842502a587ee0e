package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/docsearch/internal/model"
)

// StdoutPath makes CreateLineWriter write to standard output.
const StdoutPath = "-"

// LineWriter writes every tag URL on its own line, in arrival order.
// Each line is the URL's string form followed by a single "\n"; there are
// no headers, no blank lines and no other separators.
type LineWriter struct {
	buf    *bufio.Writer
	closer io.Closer
	lines  int
}

// NewLineWriter creates a LineWriter over w. If w is an io.Closer it is
// closed by Close.
func NewLineWriter(w io.Writer) *LineWriter {
	lw := &LineWriter{buf: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		lw.closer = c
	}
	return lw
}

// CreateLineWriter creates or truncates the file at path, creating parent
// directories as needed. StdoutPath selects standard output, which is
// flushed but never closed.
func CreateLineWriter(path string) (*LineWriter, error) {
	if path == StdoutPath {
		return &LineWriter{buf: bufio.NewWriter(os.Stdout)}, nil
	}

	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return NewLineWriter(f), nil
}

// Write appends the tags of result.
func (w *LineWriter) Write(result *model.Result) error {
	for _, tag := range result.Tags {
		if _, err := w.buf.WriteString(model.TagString(tag)); err != nil {
			return fmt.Errorf("failed to write tag: %w", err)
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write tag: %w", err)
		}
		w.lines++
	}
	return nil
}

// Flush writes buffered lines to the destination.
func (w *LineWriter) Flush() error {
	return w.buf.Flush()
}

// Lines returns the number of lines written so far.
func (w *LineWriter) Lines() int {
	return w.lines
}

// Close flushes and closes the destination.
func (w *LineWriter) Close() error {
	flushErr := w.buf.Flush()
	if w.closer == nil {
		return flushErr
	}
	closeErr := w.closer.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// createFile creates path and its parent directories.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // Output path is user-provided
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
