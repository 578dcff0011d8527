// Package report renders validity reports.
//
//   - JSONWriter: the flat score mapping, or {"error": "..."}
//   - FullJSONWriter: the flat mapping wrapped with run metadata
//   - MarkdownWriter: tables, a contribution pie chart and a verdict alert
//   - SimpleWriter: aligned plain text for terminals
//
// Report data lives in the model package; this package only formats it.
package report
