package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docsearch/internal/model"
)

// MarkdownWriter renders a crawl summary as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeTopPages(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("docsearch Crawl Summary")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + summary.Seed + "`"},
		{"Allowed Domains", formatDomains(summary.AllowedDomains)},
		{"Started", formatTime(summary.StartedAt)},
		{"Finished", formatTime(summary.FinishedAt)},
		{"Duration", summary.Duration().Round(time.Millisecond).String()},
		{"Status", statusText(summary)},
	}
	if summary.Output != "" {
		rows = append(rows, []string{"Output", "`" + summary.Output + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCounts writes the counter table, a chart and a status alert.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Counts")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages Scraped", strconv.Itoa(summary.PagesScraped)},
			{"Pages Failed", strconv.Itoa(summary.PagesFailed)},
			{"Pages Redirected", strconv.Itoa(summary.PagesRedirected)},
			{"URLs Visited", strconv.Itoa(summary.URLsVisited)},
			{"**Tags Emitted**", "**" + strconv.Itoa(summary.TagsEmitted) + "**"},
		},
	})
	md.PlainText("")

	if summary.PagesScraped+summary.PagesFailed > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)
	if summary.PagesScraped > 0 {
		chart.LabelAndIntValue("Scraped", uint64(summary.PagesScraped)) //nolint:gosec // counter is never negative
	}
	if summary.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.PagesFailed)) //nolint:gosec // counter is never negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Cancelled:
		md.Warningf("Crawl was cancelled. %d URL(s) were visited; the tag list is partial.", summary.URLsVisited)
	case summary.PagesFailed > 0:
		md.Importantf("%d page(s) could not be fetched and contributed no tags.", summary.PagesFailed)
	case summary.TagsEmitted == 0:
		md.Note("No help tags were found. Check the seed URL and the tag selector.")
	default:
		md.Tip("Crawl completed without fetch errors.")
	}
	md.PlainText("")
}

// writeTopPages lists the pages with the most tags.
func (w *MarkdownWriter) writeTopPages(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Top Pages")
	md.PlainText("")

	if len(summary.TopPages) == 0 {
		md.PlainText("No page contained help tags.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.TopPages))
	for i, p := range summary.TopPages {
		rows[i] = []string{strconv.Itoa(i + 1), truncateString(p.URL, 80), strconv.Itoa(p.Tags)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Page", "Tags"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docsearch](https://github.com/nao1215/docsearch)*")
}

func statusText(summary *model.Summary) string {
	if summary.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

func formatDomains(domains []string) string {
	if len(domains) == 0 {
		return "any"
	}
	return strings.Join(domains, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
