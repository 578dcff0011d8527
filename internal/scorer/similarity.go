package scorer

import (
	"context"
	"fmt"

	"github.com/nao1215/validity/internal/inference"
	"github.com/nao1215/validity/internal/model"
)

// Embedder turns texts into vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// Similarity scores how relevant page text is to a query.
type Similarity struct {
	embedder Embedder
}

// NewSimilarity creates a Similarity scorer.
func NewSimilarity(e Embedder) *Similarity {
	return &Similarity{embedder: e}
}

// Score returns cosine(query, text) * 100. Empty text scores 0 and the
// model is not called.
func (s *Similarity) Score(ctx context.Context, query, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query, text})
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("%w: %d embeddings for 2 inputs", inference.ErrUnexpectedResponse, len(vectors))
	}

	return model.Clamp(inference.CosineSimilarity(vectors[0], vectors[1]) * 100), nil
}
