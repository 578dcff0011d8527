package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoQuery is returned when the search query is empty.
	ErrNoQuery = errors.New("no query specified")

	// ErrNoURL is returned when the URL to rate is empty.
	ErrNoURL = errors.New("no URL specified")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrUnknownFetchPolicy is returned for an on_fetch_error value other than fail or degrade.
	ErrUnknownFetchPolicy = errors.New("unknown fetch error policy: must be \"fail\" or \"degrade\"")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidScore is returned when a configured score lies outside 0..100.
	ErrInvalidScore = errors.New("invalid score: must be between 0 and 100")

	// ErrConflictingTor is returned when both --proxy and --tor are set.
	ErrConflictingTor = errors.New("conflicting Tor options: --proxy and --tor cannot be used together")

	// ErrNoEmbeddingEndpoint is returned when no embedding server is configured.
	ErrNoEmbeddingEndpoint = errors.New("no embedding endpoint configured")

	// ErrNoClassifierEndpoint is returned when no classifier server is configured.
	ErrNoClassifierEndpoint = errors.New("no classifier endpoint configured")
)
