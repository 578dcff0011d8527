// Package metrics records pipeline timings and scores with Prometheus.
//
// validity is a one-shot CLI, so nothing is served over HTTP. Metrics are
// written in the text exposition format to a file that node_exporter's
// textfile collector can pick up.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "validity"

// Evaluation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// ErrNoRecorder is returned by WriteTextfile on a nil Recorder.
var ErrNoRecorder = errors.New("metrics recorder is not configured")

// Recorder owns a private registry. A nil *Recorder ignores every call.
type Recorder struct {
	registry       *prometheus.Registry
	stepDuration   *prometheus.HistogramVec
	stepErrors     *prometheus.CounterVec
	componentScore *prometheus.GaugeVec
	finalScore     prometheus.Gauge
	evaluations    *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"step"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_errors_total",
			Help:      "Pipeline steps that returned an error.",
		}, []string{"step"}),
		componentScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_score",
			Help:      "Last component score (0-100).",
		}, []string{"component"}),
		finalScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Last final validity score (0-100).",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations by outcome.",
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(r.stepDuration, r.stepErrors, r.componentScore, r.finalScore, r.evaluations)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStep records the duration of a step, and an error if it failed.
func (r *Recorder) ObserveStep(step string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		r.stepErrors.WithLabelValues(step).Inc()
	}
}

// SetComponentScore records a component score.
func (r *Recorder) SetComponentScore(component string, score float64) {
	if r == nil {
		return
	}
	r.componentScore.WithLabelValues(component).Set(score)
}

// SetFinalScore records the final score.
func (r *Recorder) SetFinalScore(score float64) {
	if r == nil {
		return
	}
	r.finalScore.Set(score)
}

// CountEvaluation increments the evaluation counter for outcome.
func (r *Recorder) CountEvaluation(outcome string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return ErrNoRecorder
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
