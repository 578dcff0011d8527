package config

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/nao1215/validity/internal/model"
)

// File is the structure of the .validity YAML configuration file.
// Every field is optional; unset fields keep the value from NewConfig.
type File struct {
	// OnFetchError is "fail" or "degrade".
	OnFetchError string `yaml:"on_fetch_error,omitempty"`

	// Timeout bounds the page fetch, e.g. "10s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Preset selects a named weight preset. Ignored when Weights is set.
	Preset string `yaml:"preset,omitempty"`

	// Weights is a custom weight vector.
	Weights *model.Weights `yaml:"weights,omitempty"`

	// Inference configures the model servers.
	Inference InferenceFile `yaml:"inference,omitempty"`

	// FactCheck configures the fact-check lookup.
	FactCheck FactCheckFile `yaml:"fact_check,omitempty"`

	// Citation configures the citation lookup.
	Citation EndpointFile `yaml:"citation,omitempty"`

	// DomainTrust configures the domain trust estimator.
	DomainTrust DomainTrustFile `yaml:"domain_trust,omitempty"`

	// Bias configures the label to score policy.
	Bias BiasFile `yaml:"bias,omitempty"`
}

// InferenceFile holds model server settings.
type InferenceFile struct {
	EmbeddingURL  string        `yaml:"embedding_url,omitempty"`
	ClassifierURL string        `yaml:"classifier_url,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
}

// EndpointFile overrides an external lookup endpoint.
type EndpointFile struct {
	Endpoint string `yaml:"endpoint,omitempty"`
}

// FactCheckFile configures the claim search.
type FactCheckFile struct {
	Endpoint string `yaml:"endpoint,omitempty"`

	// Language restricts reviews to a BCP-47 code such as "en".
	Language string `yaml:"language,omitempty"`
}

// DomainTrustFile holds the static domain trust table.
type DomainTrustFile struct {
	// Default replaces the placeholder score for unknown domains.
	Default *float64 `yaml:"default,omitempty"`

	// Domains maps a domain to its trust score. Subdomains inherit the score.
	Domains map[string]float64 `yaml:"domains,omitempty"`

	// Database enables or disables the SQLite trust table.
	Database *bool `yaml:"database,omitempty"`
}

// BiasFile holds the bias policy table.
type BiasFile struct {
	Labels  map[string]float64 `yaml:"labels,omitempty"`
	Default *float64           `yaml:"default,omitempty"`
}

// Apply copies the values set in f onto c.
func (f *File) Apply(c *Config) error {
	if f.OnFetchError != "" {
		p, err := ParseFetchPolicy(f.OnFetchError)
		if err != nil {
			return err
		}
		c.FetchPolicy = p
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}

	switch {
	case f.Weights != nil:
		c.Weights = *f.Weights
	case f.Preset != "":
		w, err := model.Preset(f.Preset)
		if err != nil {
			return err
		}
		c.Weights = w
	}

	if f.Inference.EmbeddingURL != "" {
		c.EmbeddingURL = f.Inference.EmbeddingURL
	}
	if f.Inference.ClassifierURL != "" {
		c.ClassifierURL = f.Inference.ClassifierURL
	}
	if f.Inference.Timeout > 0 {
		c.InferenceTimeout = f.Inference.Timeout
	}
	if f.FactCheck.Endpoint != "" {
		c.FactCheckEndpoint = f.FactCheck.Endpoint
	}
	if f.FactCheck.Language != "" {
		c.FactCheckLanguage = f.FactCheck.Language
	}
	if f.Citation.Endpoint != "" {
		c.ScholarEndpoint = f.Citation.Endpoint
	}

	if f.DomainTrust.Default != nil {
		c.DomainTrustDefault = *f.DomainTrust.Default
	}
	if c.DomainTrust == nil {
		c.DomainTrust = make(map[string]float64)
	}
	for domain, score := range f.DomainTrust.Domains {
		c.DomainTrust[normalizeDomain(domain)] = score
	}
	if f.DomainTrust.Database != nil {
		c.UseTrustDB = *f.DomainTrust.Database
	}

	if len(f.Bias.Labels) > 0 {
		c.BiasLabels = maps.Clone(f.Bias.Labels)
	}
	if f.Bias.Default != nil {
		v := *f.Bias.Default
		c.BiasFallback = &v
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("configuration file weights: %w", err)
	}
	return nil
}

func normalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
}
