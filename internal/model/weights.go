package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Weight validation errors.
var (
	// ErrNegativeWeight is returned when any weight is below zero.
	ErrNegativeWeight = errors.New("invalid weights: every weight must be non-negative")

	// ErrNonFiniteWeight is returned when any weight is NaN or infinite.
	ErrNonFiniteWeight = errors.New("invalid weights: every weight must be a finite number")

	// ErrWeightSum is returned when the weights do not add up to 1.
	ErrWeightSum = errors.New("invalid weights: weights must sum to 1")

	// ErrUnknownPreset is returned by Preset for an unregistered name.
	ErrUnknownPreset = errors.New("unknown weight preset")
)

// weightSumTolerance absorbs float rounding in user supplied weights.
const weightSumTolerance = 1e-6

// Weights is the linear blend applied to the component scores.
// The final validity score is the sum of each score multiplied by its weight.
type Weights struct {
	DomainTrust float64 `json:"domain_trust" yaml:"domain_trust"`
	Relevance   float64 `json:"relevance" yaml:"relevance"`
	FactCheck   float64 `json:"fact_check" yaml:"fact_check"`
	Bias        float64 `json:"bias" yaml:"bias"`
	Citation    float64 `json:"citation" yaml:"citation"`
}

// Preset names.
const (
	// PresetBalanced blends all five components.
	PresetBalanced = "balanced"

	// PresetRelevance only looks at relevance and bias.
	PresetRelevance = "relevance"
)

var presets = map[string]Weights{
	PresetBalanced: {
		DomainTrust: 0.3,
		Relevance:   0.3,
		FactCheck:   0.2,
		Bias:        0.1,
		Citation:    0.1,
	},
	PresetRelevance: {
		Relevance: 0.7,
		Bias:      0.3,
	},
}

// DefaultWeights returns the balanced preset.
func DefaultWeights() Weights {
	return presets[PresetBalanced]
}

// Preset returns the weights registered under name.
func Preset(name string) (Weights, error) {
	w, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return w, nil
}

// PresetNames returns the registered preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the weight of the given component.
func (w Weights) Get(c Component) float64 {
	switch c {
	case ComponentDomainTrust:
		return w.DomainTrust
	case ComponentRelevance:
		return w.Relevance
	case ComponentFactCheck:
		return w.FactCheck
	case ComponentBias:
		return w.Bias
	case ComponentCitation:
		return w.Citation
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.DomainTrust + w.Relevance + w.FactCheck + w.Bias + w.Citation
}

// Validate checks that the weights are finite, non-negative and sum to 1.
func (w Weights) Validate() error {
	for _, c := range Components() {
		v := w.Get(c)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNonFiniteWeight, c, v)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrNegativeWeight, c, v)
		}
	}
	if !(math.Abs(w.Sum()-1) <= weightSumTolerance) {
		return fmt.Errorf("%w: got %v", ErrWeightSum, w.Sum())
	}
	return nil
}

// Combine returns the weighted sum of the scores.
func (w Weights) Combine(s Scores) float64 {
	return w.DomainTrust*s.DomainTrust +
		w.Relevance*s.Relevance +
		w.FactCheck*s.FactCheck +
		w.Bias*s.Bias +
		w.Citation*s.Citation
}

// Contribution returns how much the component adds to the final score.
func (w Weights) Contribution(c Component, s Scores) float64 {
	return w.Get(c) * s.Get(c)
}
