// Package scorer holds the capabilities that produce the component scores.
//
// Every capability is a small interface so the pipeline does not care
// whether a score comes from a constant, a lookup table, a model server
// or a third-party API:
//
//	DomainTruster    host -> trust score
//	Similarity       (query, text) -> relevance score, via an Embedder
//	Bias             text -> bias score, via a Classifier and a BiasPolicy
//	FactChecker      text -> fact-check score
//	CitationCounter  url -> citation count, normalized by CitationScore
//
// Scores leaving this package are always within [0, 100].
package scorer
