package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/netspider/internal/model"
)

// MarkdownWriter outputs the status in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the status in Markdown format.
func (w *MarkdownWriter) Write(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSummary(md, status)
	w.writeEntries(md, "Next Up", status.NextUp)
	w.writeEntries(md, "Recently Visited", status.RecentlyVisited)
	w.writeRuns(md, status)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by netspider at %s*", status.GeneratedAt.Format(timeLayout))

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, status *Status) {
	md.H1("Crawl Status")
	md.PlainText("")

	location := status.Location
	if location == "" {
		location = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Store", titleCase(status.Backend)},
			{"Location", "`" + location + "`"},
			{"Pending", strconv.Itoa(status.Pending)},
			{"Visited", strconv.Itoa(status.Visited)},
			{"Companies", strconv.Itoa(status.Companies)},
			{"Progress", fmt.Sprintf("%.1f%%", status.Progress())},
		},
	})
	md.PlainText("")

	if status.Pending+status.Visited > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Frontier Progress"),
			piechart.WithShowData(true),
		)
		if status.Visited > 0 {
			chart.LabelAndIntValue("Visited", uint64(status.Visited))
		}
		if status.Pending > 0 {
			chart.LabelAndIntValue("Pending", uint64(status.Pending))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case status.Done():
		md.Tip("The frontier is exhausted. Every known profile has been visited.")
	case status.Visited == 0 && status.Pending == 0:
		md.Note("Nothing stored yet. The next crawl seeds the frontier from the connection list.")
	default:
		md.Importantf("%d profile(s) still pending.", status.Pending)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, title string, entries []model.Entry) {
	md.H2(title)
	md.PlainText("")
	if len(entries) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{"`" + truncateString(e.ID, 40) + "`", truncateString(e.Label, 40)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Label"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRuns(md *markdown.Markdown, status *Status) {
	if len(status.Runs) == 0 {
		return
	}
	md.H2("Runs")
	md.PlainText("")

	rows := make([][]string, len(status.Runs))
	for i, r := range status.Runs {
		errText := r.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			r.StartedAt.Format(timeLayout),
			titleCase(r.Status),
			strconv.Itoa(r.Visited),
			duration(r),
			truncateString(errText, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Status", "Visited", "Duration", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
