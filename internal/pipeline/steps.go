package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/validity/internal/config"
	"github.com/nao1215/validity/internal/fetch"
	"github.com/nao1215/validity/internal/model"
	"github.com/nao1215/validity/internal/scorer"
)

// Step names.
const (
	StepFetch       = "fetch"
	StepDomainTrust = "domain_trust"
	StepSimilarity  = "similarity"
	StepFactCheck   = "fact_check"
	StepBias        = "bias"
	StepCitation    = "citation"
	StepAggregate   = "aggregate"
)

// PageFetcher downloads a page. *fetch.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// FetchStep downloads the page and applies the fetch failure policy.
type FetchStep struct {
	fetcher PageFetcher
	policy  config.FetchPolicy
	logger  *slog.Logger
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(f PageFetcher, policy config.FetchPolicy, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{fetcher: f, policy: policy, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches e.URL into e.Content. Under the fail policy a fetch error is
// returned as *model.FetchError; under the degrade policy it becomes a
// warning and the content stays empty.
func (s *FetchStep) Do(ctx context.Context, e *model.Evaluation) error {
	page, err := s.fetcher.Fetch(ctx, e.URL)
	if err != nil {
		fetchErr := &model.FetchError{URL: e.URL, Err: err}
		if s.policy != config.FetchPolicyDegrade {
			return fetchErr
		}
		s.logger.Warn("fetch failed, continuing with empty content",
			"url", e.URL,
			"error", err,
		)
		e.Degraded = true
		e.Content = ""
		e.AddWarning(fetchErr.Error())
		return nil
	}

	e.Content = page.Text
	e.Title = page.Title
	if page.Truncated {
		e.AddWarning("page body exceeded the size limit and was truncated")
	}
	if page.Text == "" {
		e.AddWarning("page has no paragraph text")
	}
	return nil
}

// DomainTrustStep scores the host of the page.
type DomainTrustStep struct {
	truster scorer.DomainTruster
}

// NewDomainTrustStep creates a DomainTrustStep.
func NewDomainTrustStep(t scorer.DomainTruster) *DomainTrustStep {
	return &DomainTrustStep{truster: t}
}

// Name returns the step name.
func (s *DomainTrustStep) Name() string {
	return StepDomainTrust
}

// Do sets the domain trust score.
func (s *DomainTrustStep) Do(ctx context.Context, e *model.Evaluation) error {
	score, err := s.truster.DomainTrust(ctx, e.Host)
	if err != nil {
		return fmt.Errorf("domain trust lookup failed: %w", err)
	}
	e.Scores.DomainTrust = model.Clamp(score)
	return nil
}

// SimilarityStep scores how relevant the page is to the query.
type SimilarityStep struct {
	similarity *scorer.Similarity
}

// NewSimilarityStep creates a SimilarityStep.
func NewSimilarityStep(s *scorer.Similarity) *SimilarityStep {
	return &SimilarityStep{similarity: s}
}

// Name returns the step name.
func (s *SimilarityStep) Name() string {
	return StepSimilarity
}

// Do sets the relevance score.
func (s *SimilarityStep) Do(ctx context.Context, e *model.Evaluation) error {
	score, err := s.similarity.Score(ctx, e.Query, e.Content)
	if err != nil {
		return fmt.Errorf("similarity scoring failed: %w", err)
	}
	e.Scores.Relevance = score
	return nil
}

// FactCheckStep scores the page's claims.
type FactCheckStep struct {
	checker scorer.FactChecker
}

// NewFactCheckStep creates a FactCheckStep.
func NewFactCheckStep(c scorer.FactChecker) *FactCheckStep {
	return &FactCheckStep{checker: c}
}

// Name returns the step name.
func (s *FactCheckStep) Name() string {
	return StepFactCheck
}

// Do sets the fact-check score. Pages without text score 0.
func (s *FactCheckStep) Do(ctx context.Context, e *model.Evaluation) error {
	if e.Content == "" {
		e.Scores.FactCheck = 0
		return nil
	}
	score, err := s.checker.FactCheck(ctx, e.Content)
	if err != nil {
		return fmt.Errorf("fact-check failed: %w", err)
	}
	e.Scores.FactCheck = model.Clamp(score)
	return nil
}

// BiasStep scores the tone of the page.
type BiasStep struct {
	bias *scorer.Bias
}

// NewBiasStep creates a BiasStep.
func NewBiasStep(b *scorer.Bias) *BiasStep {
	return &BiasStep{bias: b}
}

// Name returns the step name.
func (s *BiasStep) Name() string {
	return StepBias
}

// Do sets the bias score and label.
func (s *BiasStep) Do(ctx context.Context, e *model.Evaluation) error {
	score, label, err := s.bias.Score(ctx, e.Content)
	if err != nil {
		return fmt.Errorf("bias scoring failed: %w", err)
	}
	e.Scores.Bias = score
	e.BiasLabel = label
	return nil
}

// CitationStep scores how often the page is cited.
type CitationStep struct {
	counter scorer.CitationCounter
}

// NewCitationStep creates a CitationStep.
func NewCitationStep(c scorer.CitationCounter) *CitationStep {
	return &CitationStep{counter: c}
}

// Name returns the step name.
func (s *CitationStep) Name() string {
	return StepCitation
}

// Do sets the citation count and score.
func (s *CitationStep) Do(ctx context.Context, e *model.Evaluation) error {
	count, err := s.counter.CitationCount(ctx, e.URL)
	if err != nil {
		return fmt.Errorf("citation lookup failed: %w", err)
	}
	e.CitationCount = count
	e.Scores.Citation = scorer.CitationScore(count)
	return nil
}

// AggregateStep blends the component scores into the final score.
type AggregateStep struct{}

// NewAggregateStep creates an AggregateStep.
func NewAggregateStep() *AggregateStep {
	return &AggregateStep{}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return StepAggregate
}

// Do sets e.Final from e.Weights and e.Scores.
func (s *AggregateStep) Do(_ context.Context, e *model.Evaluation) error {
	e.Final = model.Clamp(e.Weights.Combine(e.Scores))
	return nil
}
