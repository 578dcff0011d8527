package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds one model call. Cold CPU models can be slow.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

var (
	// ErrInvalidBaseURL is returned for endpoints that are not absolute http(s) URLs.
	ErrInvalidBaseURL = errors.New("inference endpoint must be an absolute http or https URL")

	// ErrUnexpectedResponse is returned when a server answers with the wrong shape.
	ErrUnexpectedResponse = errors.New("unexpected response from inference server")

	// ErrNoInputs is returned by Embed when called without inputs.
	ErrNoInputs = errors.New("no inputs to embed")
)

// APIError is a non-2xx answer from the model server.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference server %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("inference server %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Prediction is one label of a classifier output.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Client calls a TEI-compatible server.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" with every call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(baseURL), "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type embedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	var vectors [][]float64
	if err := c.post(ctx, "embed", embedRequest{Inputs: inputs, Truncate: true}, &vectors); err != nil {
		return nil, err
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", ErrUnexpectedResponse, len(vectors), len(inputs))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", ErrUnexpectedResponse, i)
		}
	}
	return vectors, nil
}

type predictRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

// Classify returns the label distribution for text, highest score first.
func (c *Client) Classify(ctx context.Context, text string) ([]Prediction, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "predict", predictRequest{Inputs: text, Truncate: true}, &raw); err != nil {
		return nil, err
	}

	preds, err := decodePredictions(raw)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Score > preds[j].Score
	})
	return preds, nil
}

// decodePredictions accepts both the flat and the batched (nested) shape.
func decodePredictions(raw json.RawMessage) ([]Prediction, error) {
	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("%w: no predictions", ErrUnexpectedResponse)
		}
		return flat, nil
	}

	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("%w: no predictions", ErrUnexpectedResponse)
	}
	return nested[0], nil
}

func (c *Client) post(ctx context.Context, route string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.baseURL.JoinPath(route).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	c.logger.Debug("inference call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

// errorMessage extracts TEI's {"error": "..."} message, or the raw body.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
