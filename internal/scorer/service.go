package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/validity/internal/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultServiceTimeout bounds one third-party API call.
const DefaultServiceTimeout = 15 * time.Second

// ServiceError is a non-2xx answer from a third-party scoring API.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Message)
}

// ServiceOption configures the HTTP side of an API-backed scorer.
type ServiceOption func(*service)

// WithServiceHTTPClient replaces the HTTP client.
func WithServiceHTTPClient(hc *http.Client) ServiceOption {
	return func(s *service) {
		if hc != nil {
			s.http = hc
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// service is the shared HTTP plumbing of GoogleFactCheck and ScholarCitations.
type service struct {
	name   string
	http   *http.Client
	logger *slog.Logger
}

func newService(name string, opts []ServiceOption) service {
	s := service{
		name: name,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultServiceTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// getJSON issues a GET and decodes a JSON body into out.
// The endpoint may carry an API key in its query. Errors returned from here
// end up in reports, so the key is masked in them as well as in logs.
func (s service) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", s.name, redactURLError(err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", s.name, redactURLError(err))
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	s.logger.Debug("service call",
		"service", s.name,
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &ServiceError{
			Service:    s.name,
			StatusCode: resp.StatusCode,
			Message:    serviceErrorMessage(data),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", s.name, err)
	}
	return nil
}

// redactURLError masks secret query parameters in the URL that
// *url.Error prints.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = log.SanitizeURLs(uerr.URL)
	}
	return err
}

// serviceErrorMessage understands Google's {"error":{"message":...}} and
// SerpAPI's {"error":"..."} bodies.
func serviceErrorMessage(data []byte) string {
	var google struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &google) == nil && google.Error.Message != "" {
		return google.Error.Message
	}
	var serp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &serp) == nil && serp.Error != "" {
		return serp.Error
	}
	return strings.TrimSpace(string(data))
}
