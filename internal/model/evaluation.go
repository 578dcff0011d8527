package model

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Evaluation is the state of one validity rating while it moves through
// the pipeline. Each step reads what earlier steps produced and fills in
// its own part. An Evaluation is created per call and never shared.
type Evaluation struct {
	// ID identifies this evaluation in logs and metrics.
	ID string

	// Query is the user's original search query.
	Query string

	// URL is the page being rated.
	URL string

	// Host is the lower-cased hostname of URL, without port.
	Host string

	// Title is the page title, if the fetch succeeded.
	Title string

	// Content is the concatenated paragraph text of the page.
	// Empty when the page had no paragraphs or when a failed fetch was degraded.
	Content string

	// Scores collects the component scores.
	Scores Scores

	// BiasLabel is the normalized top sentiment label behind the bias score.
	BiasLabel string

	// CitationCount is the raw count behind the citation score.
	CitationCount int

	// Final is the weighted validity score, set by the aggregate step.
	Final float64

	// Weights used for the final score.
	Weights Weights

	// Degraded is true when a fetch failure was replaced by empty content.
	Degraded bool

	// Warnings are non-fatal problems met during the evaluation.
	Warnings []string

	// Err is the error that stopped the evaluation, if any.
	Err error

	// PerformedSteps lists the names of the steps that ran, in order.
	PerformedSteps []string

	// StartedAt is when the evaluation was created.
	StartedAt time.Time

	// Duration is the wall time spent in the pipeline.
	Duration time.Duration
}

// NewEvaluation creates an evaluation for query and rawURL with the given weights.
func NewEvaluation(query, rawURL string, weights Weights) *Evaluation {
	return &Evaluation{
		ID:             uuid.NewString(),
		Query:          query,
		URL:            rawURL,
		Host:           hostOf(rawURL),
		Weights:        weights,
		Warnings:       make([]string, 0),
		PerformedSteps: make([]string, 0),
		StartedAt:      time.Now(),
	}
}

// AddWarning records a non-fatal problem.
func (e *Evaluation) AddWarning(msg string) {
	e.Warnings = append(e.Warnings, msg)
}

// Failed reports whether the evaluation was stopped by an error.
func (e *Evaluation) Failed() bool {
	return e.Err != nil
}

// hostOf returns the lower-cased hostname of rawURL, or "" if it cannot be parsed.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
