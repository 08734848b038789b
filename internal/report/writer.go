package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer renders a Status in one format.
//
// Design decision: every format sits behind the same interface so the status
// command picks the format once and the destination (terminal or file) is
// just the io.Writer handed to the constructor.
type Writer interface {
	// Write renders status and returns the number of bytes written.
	Write(status *Status) (int, error)
}

// MultiWriter fans one status out to several writers, in order.
type MultiWriter []Writer

// NewMultiWriter combines writers.
func NewMultiWriter(writers ...Writer) MultiWriter {
	return MultiWriter(writers)
}

// Write renders status with each writer and stops at the first failure.
// The byte count covers every writer that ran.
func (m MultiWriter) Write(status *Status) (int, error) {
	total := 0
	for _, w := range m {
		n, err := w.Write(status)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for timestamps by the text and Markdown writers.
const timeLayout = "2006-01-02 15:04:05 MST"

// titleCase turns run statuses and backend names into display labels.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// truncateString shortens s to at most maxLen runes, ending in "..." when
// there is room for it.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	switch {
	case len(r) <= maxLen:
		return s
	case maxLen <= 3:
		return string(r[:maxLen])
	default:
		return string(r[:maxLen-3]) + "..."
	}
}
