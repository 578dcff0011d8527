// Package pipeline runs the steps that turn a (query, URL) pair into a
// validity report.
//
// The default pipeline is:
//
//	fetch -> domain_trust -> similarity -> fact_check -> bias -> citation -> aggregate
//
// Steps run one after another on a shared *model.Evaluation. The first
// step error stops the run and becomes the report's error. The fetch step
// is the exception: under the degrade policy it records a warning, leaves
// the page text empty and lets the content scorers fall back to their
// empty-input scores.
//
// Each step runs inside an OpenTelemetry span and its duration is recorded
// in the metrics recorder when one is configured.
package pipeline
