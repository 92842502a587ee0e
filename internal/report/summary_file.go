package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nao1215/docsearch/internal/model"
)

// WriteSummaryFile writes summary to path. A ".json" extension selects
// JSON; anything else is written as Markdown.
func WriteSummaryFile(path string, summary *model.Summary) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}

	var w SummaryWriter
	if strings.EqualFold(filepath.Ext(path), ".json") {
		w = NewJSONWriter(f, WithPrettyPrint())
	} else {
		w = NewMarkdownWriter(f)
	}

	if _, err := w.WriteSummary(summary); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}
