package database

import (
	"context"

	"github.com/nao1215/docsearch/internal/model"
)

// RunWriter stores streamed results under one run.
// It satisfies report.Writer so the database can sit next to the tag
// list in a report.MultiWriter.
type RunWriter struct {
	ctx   context.Context //nolint:containedctx // Writer.Write has no context parameter
	db    *TagDB
	runID int64
}

// NewRunWriter creates a RunWriter. ctx bounds every insert.
func NewRunWriter(ctx context.Context, db *TagDB, runID int64) *RunWriter {
	return &RunWriter{ctx: ctx, db: db, runID: runID}
}

// RunID returns the run the writer stores into.
func (w *RunWriter) RunID() int64 {
	return w.runID
}

// Write stores result.
func (w *RunWriter) Write(result *model.Result) error {
	return w.db.SaveResult(w.ctx, w.runID, result)
}

// Close is a no-op; the database is closed by its owner.
func (w *RunWriter) Close() error {
	return nil
}
