package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/validity/internal/log"
	"github.com/nao1215/validity/internal/model"
)

// AppName is used for XDG directories and the keyring service.
const AppName = "validity"

// FetchPolicy decides what happens when the page cannot be fetched.
type FetchPolicy string

const (
	// FetchPolicyFail stops the evaluation and reports only the fetch error.
	FetchPolicyFail FetchPolicy = "fail"

	// FetchPolicyDegrade continues with empty page text and empty-input defaults.
	FetchPolicyDegrade FetchPolicy = "degrade"
)

// ParseFetchPolicy converts s to a FetchPolicy.
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch FetchPolicy(s) {
	case FetchPolicyFail, FetchPolicyDegrade:
		return FetchPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFetchPolicy, s)
	}
}

// Default configuration values.
const (
	// DefaultTimeout bounds the page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultInferenceTimeout bounds each model server call.
	DefaultInferenceTimeout = 60 * time.Second

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultDomainTrust is the placeholder authority score used when no
	// lookup source knows the domain.
	DefaultDomainTrust = 60.0

	// DefaultUserAgent identifies validity in HTTP requests.
	DefaultUserAgent = "validity/1.0 (+https://github.com/nao1215/validity)"

	// DefaultMaxBodySize limits how much of a page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultEmbeddingURL is a local text-embeddings-inference server running
	// sentence-transformers/all-MiniLM-L6-v2.
	DefaultEmbeddingURL = "http://127.0.0.1:8080"

	// DefaultClassifierURL is a local text-embeddings-inference server running
	// cardiffnlp/twitter-roberta-base-sentiment.
	DefaultClassifierURL = "http://127.0.0.1:8081"

	// DefaultFactCheckEndpoint is the Google Fact Check Tools claim search API.
	DefaultFactCheckEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

	// DefaultScholarEndpoint is the SerpAPI search endpoint.
	DefaultScholarEndpoint = "https://serpapi.com/search.json"
)

// Config holds all options of one validity run.
// It is built from defaults, the configuration file and CLI flags, in that order.
type Config struct {
	// Query is the user's search query.
	Query string

	// URL is the page to rate.
	URL string

	// Timeout bounds the page fetch.
	Timeout time.Duration

	// InferenceTimeout bounds each call to a model server.
	InferenceTimeout time.Duration

	// UserAgent is sent with the page request.
	UserAgent string

	// MaxBodySize is the maximum number of bytes read from the page.
	MaxBodySize int64

	// FetchPolicy selects fail-fast or degrade behavior on fetch errors.
	FetchPolicy FetchPolicy

	// Weights is the blend used for the final score.
	Weights model.Weights

	// EmbeddingURL is the base URL of the sentence-embedding server.
	EmbeddingURL string

	// ClassifierURL is the base URL of the sentiment classification server.
	ClassifierURL string

	// InferenceToken is sent as a bearer token to both model servers, if set.
	InferenceToken string

	// FactCheckEndpoint and FactCheckAPIKey configure the fact-check lookup.
	// Without an API key the fact-check score is 0.
	FactCheckEndpoint string
	FactCheckAPIKey   string

	// FactCheckLanguage restricts claim reviews to one language. Empty means all.
	FactCheckLanguage string

	// ScholarEndpoint and SerpAPIKey configure the citation lookup.
	// Without an API key the citation count is 0.
	ScholarEndpoint string
	SerpAPIKey      string

	// DomainTrustDefault is the placeholder trust score.
	DomainTrustDefault float64

	// DomainTrust maps domains to trust scores from the configuration file.
	DomainTrust map[string]float64

	// UseTrustDB enables the SQLite domain trust table.
	UseTrustDB bool

	// DBDir is the directory of the SQLite database.
	DBDir string

	// BiasLabels maps classifier labels to bias scores. Nil means the default policy.
	BiasLabels map[string]float64

	// BiasFallback is the bias score for labels missing from BiasLabels. Nil means the default.
	BiasFallback *float64

	// ProxyAddress is an external Tor SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseEmbeddedTor starts a Tor daemon through tornago for the fetch.
	UseEmbeddedTor bool

	// TorStartupTimeout bounds the embedded daemon bootstrap.
	TorStartupTimeout time.Duration

	// JSONReport and MarkdownReport select the output format. Plain text otherwise.
	JSONReport     bool
	MarkdownReport bool

	// DetailedJSON adds metadata around the flat JSON scores.
	DetailedJSON bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// MetricsFile writes Prometheus metrics in textfile-collector format.
	MetricsFile string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// ConfigFilePath is an explicit configuration file.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:            DefaultTimeout,
		InferenceTimeout:   DefaultInferenceTimeout,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		FetchPolicy:        FetchPolicyFail,
		Weights:            model.DefaultWeights(),
		EmbeddingURL:       DefaultEmbeddingURL,
		ClassifierURL:      DefaultClassifierURL,
		FactCheckEndpoint:  DefaultFactCheckEndpoint,
		ScholarEndpoint:    DefaultScholarEndpoint,
		DomainTrustDefault: DefaultDomainTrust,
		DomainTrust:        make(map[string]float64),
		UseTrustDB:         true,
		DBDir:              XDGDataDir(),
		TorStartupTimeout:  DefaultTorStartupTimeout,
		LogFormat:          log.FormatText,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/validity on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/validity on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Query == "" {
		return ErrNoQuery
	}
	if c.URL == "" {
		return ErrNoURL
	}
	if c.Timeout <= 0 || c.InferenceTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if _, err := ParseFetchPolicy(string(c.FetchPolicy)); err != nil {
		return err
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ProxyAddress != "" && c.UseEmbeddedTor {
		return ErrConflictingTor
	}
	if c.EmbeddingURL == "" {
		return ErrNoEmbeddingEndpoint
	}
	if c.ClassifierURL == "" {
		return ErrNoClassifierEndpoint
	}
	if !validScore(c.DomainTrustDefault) {
		return fmt.Errorf("%w: domain trust default %v", ErrInvalidScore, c.DomainTrustDefault)
	}
	for domain, score := range c.DomainTrust {
		if !validScore(score) {
			return fmt.Errorf("%w: domain %s has %v", ErrInvalidScore, domain, score)
		}
	}
	for label, score := range c.BiasLabels {
		if !validScore(score) {
			return fmt.Errorf("%w: bias label %s has %v", ErrInvalidScore, label, score)
		}
	}
	if c.BiasFallback != nil && !validScore(*c.BiasFallback) {
		return fmt.Errorf("%w: bias fallback %v", ErrInvalidScore, *c.BiasFallback)
	}
	return nil
}

func validScore(v float64) bool {
	return v >= model.MinScore && v <= model.MaxScore
}
