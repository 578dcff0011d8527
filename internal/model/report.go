package model

import (
	"encoding/json"
	"time"
)

// Report is the flat validity report returned to callers.
// It either carries an error and nothing else, or all six named scores.
type Report struct {
	// ID is the evaluation ID.
	ID string

	// Query and URL are the inputs of the evaluation.
	Query string
	URL   string

	// Title is the fetched page title.
	Title string

	// Error is set when the evaluation failed. No score is meaningful then.
	Error string

	// Scores are the component scores.
	Scores Scores

	// Final is the weighted validity score.
	Final float64

	// BiasLabel and CitationCount explain the bias and citation scores.
	BiasLabel     string
	CitationCount int

	// Weights used to compute Final.
	Weights Weights

	// Degraded is true when the page could not be fetched and defaults were used.
	Degraded bool

	// Warnings are non-fatal problems met during the evaluation.
	Warnings []string

	// EvaluatedAt is when the evaluation started.
	EvaluatedAt time.Time

	// Duration is the time spent evaluating.
	Duration time.Duration
}

// NewReport builds a Report from a finished evaluation.
func NewReport(e *Evaluation) *Report {
	r := &Report{
		ID:          e.ID,
		Query:       e.Query,
		URL:         e.URL,
		Title:       e.Title,
		Weights:     e.Weights,
		Degraded:    e.Degraded,
		Warnings:    append([]string(nil), e.Warnings...),
		EvaluatedAt: e.StartedAt,
		Duration:    e.Duration,
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
		return r
	}
	r.Scores = e.Scores
	r.Final = e.Final
	r.BiasLabel = e.BiasLabel
	r.CitationCount = e.CitationCount
	return r
}

// Failed reports whether the report carries an error.
func (r *Report) Failed() bool {
	return r.Error != ""
}

// Fields returns the named scores in report order, or nil for a failed report.
func (r *Report) Fields() []Field {
	if r.Failed() {
		return nil
	}
	fields := make([]Field, 0, len(Components())+1)
	for _, c := range Components() {
		fields = append(fields, Field{
			Name:         c.DisplayName(),
			Component:    c,
			Score:        r.Scores.Get(c),
			Weight:       r.Weights.Get(c),
			Contribution: r.Weights.Contribution(c, r.Scores),
		})
	}
	fields = append(fields, Field{Name: FinalScoreName, Score: r.Final, Weight: r.Weights.Sum(), Contribution: r.Final})
	return fields
}

// Field is one named score of a report.
type Field struct {
	Name         string
	Component    Component
	Score        float64
	Weight       float64
	Contribution float64
}

// MarshalJSON encodes the report as a flat mapping from score name to value,
// or as {"error": "..."} when the evaluation failed.
func (r *Report) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	m := make(map[string]float64, len(Components())+1)
	for _, f := range r.Fields() {
		m[f.Name] = f.Score
	}
	return json.Marshal(m)
}
