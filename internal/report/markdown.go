package report

import (
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/validity/internal/model"
)

// MarkdownWriter outputs reports in Markdown for sharing and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if report.Failed() {
		md.Cautionf("The page could not be rated: %s", report.Error)
		md.PlainText("")
	} else {
		w.writeScores(md, report)
		w.writeWarnings(md, report)
	}
	md.PlainText("---")
	md.PlainText("*Generated by validity*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Validity Report")
	md.PlainText("")

	rows := [][]string{
		{"Query", report.Query},
		{"URL", "`" + report.URL + "`"},
	}
	if report.Title != "" {
		rows = append(rows, []string{"Title", report.Title})
	}
	rows = append(rows,
		[]string{"Evaluated", report.EvaluatedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", status(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.Report) {
	md.H2("Scores")
	md.PlainText("")

	fields := report.Fields()
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		name := f.Name
		if f.Component == "" {
			name = "**" + name + "**"
		}
		rows = append(rows, []string{
			name,
			formatScore(f.Score),
			strconv.FormatFloat(f.Weight, 'f', 2, 64),
			formatScore(f.Contribution),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Component", "Score", "Weight", "Contribution"},
		Rows:   rows,
	})
	md.PlainText("")

	details := make([]string, 0, 2)
	if report.BiasLabel != "" {
		details = append(details, "Sentiment label: "+report.BiasLabel)
	}
	details = append(details, "Citations found: "+strconv.Itoa(report.CitationCount))
	md.BulletList(details...)
	md.PlainText("")

	if report.Final > 0 {
		w.writePieChart(md, fields)
	}
	w.writeAlert(md, report)
}

// writePieChart shows how much each component adds to the final score.
// The chart takes integer slices, so contributions are rounded to points.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, fields []model.Field) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Contribution to the Final Score"),
		piechart.WithShowData(true),
	)

	count := 0
	for _, f := range fields {
		if f.Component == "" {
			continue
		}
		points := math.Round(f.Contribution)
		if points <= 0 {
			continue
		}
		chart.LabelAndIntValue(f.Name, uint64(points))
		count++
	}
	if count == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	verdict := Verdict(report.Final)
	switch {
	case report.Final >= bandHigh:
		md.Tip(verdict + ": the page is relevant and comes from a trusted source.")
	case report.Final >= bandModerate:
		md.Note(verdict + ": cross-check important claims.")
	case report.Final >= bandLow:
		md.Importantf("%s (%s). Treat this page with caution.", verdict, formatScore(report.Final))
	default:
		md.Warningf("%s (%s). This page is unlikely to answer the query reliably.", verdict, formatScore(report.Final))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, report *model.Report) {
	if len(report.Warnings) == 0 {
		return
	}
	md.H2("Warnings")
	md.PlainText("")
	md.BulletList(report.Warnings...)
	md.PlainText("")
}
