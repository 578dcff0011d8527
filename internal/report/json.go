package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/validity/internal/model"
)

// JSONWriter outputs the flat report: six named scores, or only "error".
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	return w.writeJSON(report)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps the flat report with metadata about the run.
type JSONReport struct {
	Version       string        `json:"version"`
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	URL           string        `json:"url"`
	Title         string        `json:"title,omitempty"`
	EvaluatedAt   time.Time     `json:"evaluated_at"`
	DurationMS    int64         `json:"duration_ms"`
	Degraded      bool          `json:"degraded"`
	Warnings      []string      `json:"warnings,omitempty"`
	Weights       model.Weights `json:"weights"`
	BiasLabel     string        `json:"bias_label,omitempty"`
	CitationCount int           `json:"citation_count"`
	Report        *model.Report `json:"report"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.Report, version string) *JSONReport {
	return &JSONReport{
		Version:       version,
		ID:            report.ID,
		Query:         report.Query,
		URL:           report.URL,
		Title:         report.Title,
		EvaluatedAt:   report.EvaluatedAt,
		DurationMS:    report.Duration.Milliseconds(),
		Degraded:      report.Degraded,
		Warnings:      report.Warnings,
		Weights:       report.Weights,
		BiasLabel:     report.BiasLabel,
		CitationCount: report.CitationCount,
		Report:        report,
	}
}

// FullJSONWriter outputs reports wrapped with metadata.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.Report) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
