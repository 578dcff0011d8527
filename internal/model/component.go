package model

import "math"

// Component identifies one of the scores that feed the final validity score.
type Component string

const (
	// ComponentDomainTrust is the authority/reputation score of the site.
	ComponentDomainTrust Component = "domain_trust"

	// ComponentRelevance is the semantic similarity between query and page text.
	ComponentRelevance Component = "relevance"

	// ComponentFactCheck reflects what fact-checkers say about the page's claims.
	ComponentFactCheck Component = "fact_check"

	// ComponentBias is the sentiment-derived bias proxy.
	ComponentBias Component = "bias"

	// ComponentCitation is the normalized scholarly citation count.
	ComponentCitation Component = "citation"
)

// Components returns every component in report order.
func Components() []Component {
	return []Component{
		ComponentDomainTrust,
		ComponentRelevance,
		ComponentFactCheck,
		ComponentBias,
		ComponentCitation,
	}
}

// DisplayName returns the label used for the component in reports.
func (c Component) DisplayName() string {
	switch c {
	case ComponentDomainTrust:
		return "Domain Trust"
	case ComponentRelevance:
		return "Content Relevance"
	case ComponentFactCheck:
		return "Fact-Check Score"
	case ComponentBias:
		return "Bias Score"
	case ComponentCitation:
		return "Citation Score"
	default:
		return string(c)
	}
}

// FinalScoreName is the report label of the weighted final score.
const FinalScoreName = "Final Validity Score"

// Score bounds shared by every component.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Clamp limits v to the [MinScore, MaxScore] range. NaN maps to MinScore.
func Clamp(v float64) float64 {
	if v < MinScore || math.IsNaN(v) {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Scores holds the five component scores of one evaluation.
type Scores struct {
	DomainTrust float64 `json:"domain_trust"`
	Relevance   float64 `json:"relevance"`
	FactCheck   float64 `json:"fact_check"`
	Bias        float64 `json:"bias"`
	Citation    float64 `json:"citation"`
}

// Get returns the score of the given component.
func (s Scores) Get(c Component) float64 {
	switch c {
	case ComponentDomainTrust:
		return s.DomainTrust
	case ComponentRelevance:
		return s.Relevance
	case ComponentFactCheck:
		return s.FactCheck
	case ComponentBias:
		return s.Bias
	case ComponentCitation:
		return s.Citation
	default:
		return 0
	}
}
