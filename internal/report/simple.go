package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/validity/internal/model"
)

// SimpleWriter outputs an aligned plain-text report for terminals.
type SimpleWriter struct {
	baseWriter

	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds weights, contributions and warnings to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// nameWidth fits the longest score name, "Final Validity Score".
const nameWidth = len(model.FinalScoreName)

// Write outputs the report as plain text.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	sb.WriteString("Validity Report\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Query:  %s\n", report.Query)
	fmt.Fprintf(&sb, "URL:    %s\n", report.URL)
	if report.Title != "" {
		fmt.Fprintf(&sb, "Title:  %s\n", report.Title)
	}
	fmt.Fprintf(&sb, "Status: %s\n\n", status(report))

	if report.Failed() {
		fmt.Fprintf(&sb, "Error: %s\n", report.Error)
		return io.WriteString(w.output, sb.String())
	}

	for _, f := range report.Fields() {
		if f.Component == "" {
			sb.WriteString(strings.Repeat("-", 60) + "\n")
		}
		fmt.Fprintf(&sb, "%-*s %7s", nameWidth, f.Name, formatScore(f.Score))
		if w.verbose && f.Component != "" {
			fmt.Fprintf(&sb, "  x %.2f = %6s", f.Weight, formatScore(f.Contribution))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\n%s\n", Verdict(report.Final))

	if w.verbose && len(report.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warning)
		}
	}

	return io.WriteString(w.output, sb.String())
}
