package pipeline

import (
	"errors"
	"log/slog"

	"github.com/nao1215/validity/internal/config"
	"github.com/nao1215/validity/internal/fetch"
	"github.com/nao1215/validity/internal/scorer"
)

var (
	// ErrNoEmbedder is returned by DefaultPipeline without an embedding model.
	ErrNoEmbedder = errors.New("pipeline requires an embedder")

	// ErrNoClassifier is returned by DefaultPipeline without a sentiment model.
	ErrNoClassifier = errors.New("pipeline requires a classifier")
)

// Dependencies are the collaborators of the default pipeline.
// Nil optional fields get their placeholder implementation.
type Dependencies struct {
	// Fetcher downloads pages. Defaults to fetch.New().
	Fetcher PageFetcher

	// FetchPolicy decides what a fetch error does. Defaults to fail.
	FetchPolicy config.FetchPolicy

	// DomainTruster defaults to the constant placeholder score.
	DomainTruster scorer.DomainTruster

	// Embedder is required.
	Embedder scorer.Embedder

	// Classifier is required.
	Classifier scorer.Classifier

	// BiasPolicy defaults to scorer.DefaultBiasPolicy when its table is nil.
	BiasPolicy scorer.BiasPolicy

	// FactChecker defaults to scorer.NoFactCheck.
	FactChecker scorer.FactChecker

	// CitationCounter defaults to scorer.NoCitations.
	CitationCounter scorer.CitationCounter

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultPipeline builds the seven-step validity pipeline.
func DefaultPipeline(deps Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if deps.Classifier == nil {
		return nil, ErrNoClassifier
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Fetcher == nil {
		deps.Fetcher = fetch.New(fetch.WithLogger(deps.Logger))
	}
	if deps.FetchPolicy == "" {
		deps.FetchPolicy = config.FetchPolicyFail
	}
	if deps.DomainTruster == nil {
		deps.DomainTruster = scorer.Constant(scorer.DefaultDomainTrust)
	}
	if deps.BiasPolicy.Labels == nil {
		deps.BiasPolicy = scorer.DefaultBiasPolicy()
	}
	if deps.FactChecker == nil {
		deps.FactChecker = scorer.NoFactCheck{}
	}
	if deps.CitationCounter == nil {
		deps.CitationCounter = scorer.NoCitations{}
	}

	p := New(append([]Option{WithLogger(deps.Logger)}, opts...)...)
	p.AddSteps(
		NewFetchStep(deps.Fetcher, deps.FetchPolicy, deps.Logger),
		NewDomainTrustStep(deps.DomainTruster),
		NewSimilarityStep(scorer.NewSimilarity(deps.Embedder)),
		NewFactCheckStep(deps.FactChecker),
		NewBiasStep(scorer.NewBias(deps.Classifier, deps.BiasPolicy)),
		NewCitationStep(deps.CitationCounter),
		NewAggregateStep(),
	)
	return p, nil
}
