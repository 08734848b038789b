// Package report renders the state of a crawl for the status command.
//
// This package contains writers for different output formats:
//   - TextWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a progress chart for sharing
//
// Design decision: We separate report writing from collecting the data
// (Collect reads the store once into a Status) so that every writer renders
// exactly the same snapshot and new formats need no storage access.
package report
