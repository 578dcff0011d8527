package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nao1215/validity/internal/metrics"
	"github.com/nao1215/validity/internal/model"
)

const tracerName = "github.com/nao1215/validity/internal/pipeline"

// Step is one stage of an evaluation. Each step reads what earlier steps
// stored on the Evaluation and writes its own result back to it: the fetch
// step fills in the page text, each scoring step sets one component score.
//
// Design decision: steps are an interface rather than plain functions so a
// step can carry its collaborator (fetcher, model client, API client) and
// report a stable name. The name is the span name suffix and the metrics
// label, so renaming a step changes dashboards.
type Step interface {
	// Do runs the step against e. It must respect ctx cancellation.
	// A returned error ends the evaluation; recoverable conditions such
	// as empty page text are expressed as a score, not an error.
	Do(ctx context.Context, e *model.Evaluation) error

	// Name returns the step's name for logs, spans and metrics.
	Name() string
}

// Pipeline runs steps in order on a single Evaluation.
//
// Design decision: the pipeline always stops at the first failing step.
// A missing component would silently skew the weighted final score, so a
// partial result is never reported as a score. Degrading on fetch errors
// is handled inside the fetch step, not by skipping steps here.
type Pipeline struct {
	// steps is the ordered list of steps to execute.
	steps []Step

	// logger receives per-step debug and failure records.
	logger *slog.Logger

	// metrics records step durations and the final scores.
	// Nil disables metrics.
	metrics *metrics.Recorder

	// tracer opens one span per evaluation and one child span per step.
	tracer trace.Tracer
}

// Option configures a Pipeline using the functional options pattern.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records step durations and scores in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) {
		p.metrics = r
	}
}

// New creates a new Pipeline with the given options.
// Steps are added with AddStep or AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:  make([]Step, 0),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps on e. Cancellation is checked before each step;
// steps handle their own timeouts. The first error is stored in e.Err and
// returned.
func (p *Pipeline) Execute(ctx context.Context, e *model.Evaluation) error {
	ctx, span := p.tracer.Start(ctx, "validity.evaluate", trace.WithAttributes(
		attribute.String("evaluation.id", e.ID),
		attribute.String("evaluation.host", e.Host),
	))
	defer span.End()

	err := p.run(ctx, e)
	if err != nil {
		e.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.record(e)
	return err
}

func (p *Pipeline) run(ctx context.Context, e *model.Evaluation) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"evaluation", e.ID,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"evaluation", e.ID,
		)

		if err := p.runStep(ctx, step, e); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"evaluation", e.ID,
				"url", e.URL,
				"error", err,
			)
			return err
		}

		e.PerformedSteps = append(e.PerformedSteps, step.Name())
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, e *model.Evaluation) error {
	ctx, span := p.tracer.Start(ctx, "validity.step."+step.Name(),
		trace.WithAttributes(attribute.String("step", step.Name())))
	defer span.End()

	start := time.Now()
	err := step.Do(ctx, e)
	p.metrics.ObserveStep(step.Name(), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// record exports the outcome of a finished evaluation.
func (p *Pipeline) record(e *model.Evaluation) {
	switch {
	case e.Failed():
		p.metrics.CountEvaluation(metrics.OutcomeFailed)
		return
	case e.Degraded:
		p.metrics.CountEvaluation(metrics.OutcomeDegraded)
	default:
		p.metrics.CountEvaluation(metrics.OutcomeOK)
	}
	for _, c := range model.Components() {
		p.metrics.SetComponentScore(string(c), e.Scores.Get(c))
	}
	p.metrics.SetFinalScore(e.Final)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Evaluate rates rawURL for query and returns the report. Errors are
// reported inside the report, never returned.
func Evaluate(ctx context.Context, p *Pipeline, query, rawURL string, weights model.Weights) *model.Report {
	e := model.NewEvaluation(query, rawURL, weights)
	_ = p.Execute(ctx, e) // the error is kept in e.Err
	e.Duration = time.Since(e.StartedAt)
	return model.NewReport(e)
}
