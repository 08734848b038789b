package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/store"
)

// TextWriter outputs human-readable text for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files or other tools.
type TextWriter struct {
	baseWriter

	// verbose includes the document samples.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose includes the next-up and recently-visited samples.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the status in human-readable format.
func (w *TextWriter) Write(status *Status) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                    NETSPIDER STATUS\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Store:      %s", titleCase(status.Backend))
	if status.Location != "" {
		fmt.Fprintf(&sb, " (%s)", status.Location)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Pending:    %d\n", status.Pending)
	fmt.Fprintf(&sb, "Visited:    %d\n", status.Visited)
	fmt.Fprintf(&sb, "Companies:  %d\n", status.Companies)
	fmt.Fprintf(&sb, "Progress:   %.1f%%\n", status.Progress())
	if status.Done() {
		sb.WriteString("State:      Complete\n")
	}

	if w.verbose {
		w.writeEntries(&sb, "NEXT UP", status.NextUp)
		w.writeEntries(&sb, "RECENTLY VISITED", status.RecentlyVisited)
	}

	if len(status.Runs) > 0 {
		sb.WriteString("\nRUNS\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		for _, r := range status.Runs {
			fmt.Fprintf(&sb, "%s  %-8s %5d visited  %s\n",
				r.StartedAt.Format(timeLayout), titleCase(r.Status), r.Visited, duration(r))
			if r.Error != "" {
				fmt.Fprintf(&sb, "    error: %s\n", truncateString(r.Error, 72))
			}
		}
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *TextWriter) writeEntries(sb *strings.Builder, title string, entries []model.Entry) {
	fmt.Fprintf(sb, "\n%s\n", title)
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	if len(entries) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(sb, "  %-30s %s\n", truncateString(e.ID, 30), truncateString(e.Label, 27))
	}
}

// duration formats the run length, or "-" while the run has no finish time.
func duration(r store.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}
