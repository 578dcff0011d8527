package scorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/validity/internal/inference"
	"github.com/nao1215/validity/internal/model"
)

const (
	// MaxBiasInputRunes is how much of the page text the classifier sees.
	MaxBiasInputRunes = 512

	// EmptyTextBiasScore is the bias score of a page without text.
	EmptyTextBiasScore = 50.0
)

// Sentiment labels understood by the default policy.
const (
	LabelPositive = "POSITIVE"
	LabelNeutral  = "NEUTRAL"
	LabelNegative = "NEGATIVE"
)

// ErrNoPrediction is returned when the classifier yields no label.
var ErrNoPrediction = errors.New("classifier returned no prediction")

// labelAliases maps raw labels of common sentiment models to policy labels.
// cardiffnlp/twitter-roberta-base-sentiment emits LABEL_0..2;
// finiteautomata/bertweet-base-sentiment-analysis emits NEG/NEU/POS.
var labelAliases = map[string]string{
	"LABEL_0": LabelNegative,
	"LABEL_1": LabelNeutral,
	"LABEL_2": LabelPositive,
	"NEG":     LabelNegative,
	"NEU":     LabelNeutral,
	"POS":     LabelPositive,
}

// NormalizeLabel upper-cases a classifier label and resolves model aliases.
func NormalizeLabel(label string) string {
	l := cases.Upper(language.Und).String(strings.TrimSpace(label))
	if alias, ok := labelAliases[l]; ok {
		return alias
	}
	return l
}

// Classifier predicts sentiment labels for text, highest score first.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]inference.Prediction, error)
}

// BiasPolicy maps a sentiment label to a bias score.
type BiasPolicy struct {
	Labels   map[string]float64
	Fallback float64
}

// DefaultBiasPolicy scores POSITIVE 100, NEUTRAL 50 and everything else 30.
func DefaultBiasPolicy() BiasPolicy {
	return BiasPolicy{
		Labels: map[string]float64{
			LabelPositive: 100,
			LabelNeutral:  50,
		},
		Fallback: 30,
	}
}

// NewBiasPolicy builds a policy from configured values. Nil labels keep the
// default table; a nil fallback keeps the default fallback.
func NewBiasPolicy(labels map[string]float64, fallback *float64) BiasPolicy {
	p := DefaultBiasPolicy()
	if labels != nil {
		p.Labels = make(map[string]float64, len(labels))
		for l, s := range labels {
			p.Labels[NormalizeLabel(l)] = s
		}
	}
	if fallback != nil {
		p.Fallback = *fallback
	}
	return p
}

// Score returns the bias score of a label.
func (p BiasPolicy) Score(label string) float64 {
	if s, ok := p.Labels[NormalizeLabel(label)]; ok {
		return model.Clamp(s)
	}
	return model.Clamp(p.Fallback)
}

// Bias turns the top sentiment label of the page into a bias score.
type Bias struct {
	classifier Classifier
	policy     BiasPolicy
}

// NewBias creates a Bias scorer.
func NewBias(c Classifier, policy BiasPolicy) *Bias {
	return &Bias{classifier: c, policy: policy}
}

// Score classifies the first MaxBiasInputRunes runes of text. It returns
// the policy score and the normalized top label. Empty text scores
// EmptyTextBiasScore without calling the model.
func (b *Bias) Score(ctx context.Context, text string) (float64, string, error) {
	if text == "" {
		return EmptyTextBiasScore, "", nil
	}

	preds, err := b.classifier.Classify(ctx, Truncate(text, MaxBiasInputRunes))
	if err != nil {
		return 0, "", fmt.Errorf("classification failed: %w", err)
	}
	if len(preds) == 0 {
		return 0, "", ErrNoPrediction
	}

	label := NormalizeLabel(preds[0].Label)
	return b.policy.Score(label), label, nil
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
