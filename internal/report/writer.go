package report

import (
	"io"
	"strconv"

	"github.com/nao1215/validity/internal/model"
)

// Writer writes a validity report in some format.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.Report) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all Writers and stops on the first error.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
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

// formatScore renders a score with two decimals.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Verdict bands of the final score.
const (
	bandHigh     = 80.0
	bandModerate = 60.0
	bandLow      = 40.0
)

// Verdict describes a final score in words.
func Verdict(final float64) string {
	switch {
	case final >= bandHigh:
		return "High validity"
	case final >= bandModerate:
		return "Moderate validity"
	case final >= bandLow:
		return "Low validity"
	default:
		return "Very low validity"
	}
}

// status summarizes how the evaluation ended.
func status(r *model.Report) string {
	switch {
	case r.Failed():
		return "Error"
	case r.Degraded:
		return "Degraded (page could not be fetched)"
	default:
		return "Complete"
	}
}
