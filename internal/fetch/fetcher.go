package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/validity/internal/tor"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 << 20

	// DefaultUserAgent identifies the fetcher to servers.
	DefaultUserAgent = "validity/1.0 (+https://github.com/nao1215/validity)"
)

// Page is the result of a successful fetch.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// Title is the trimmed <title> text.
	Title string

	// Text is the paragraph text used for scoring.
	Text string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ContentType is the response Content-Type header.
	ContentType string

	// Truncated is true when the body exceeded the size limit.
	Truncated bool
}

// Fetcher downloads pages. It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	torEnabled  bool
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTorClient routes every request through Tor and enables onion URLs.
func WithTorClient(c *tor.Client) Option {
	return func(f *Fetcher) {
		if c == nil {
			return
		}
		hc := c.HTTPClient()
		hc.Transport = otelhttp.NewTransport(hc.Transport)
		f.client = hc
		f.torEnabled = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()),
		},
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TorEnabled reports whether requests go through Tor.
func (f *Fetcher) TorEnabled() bool {
	return f.torEnabled
}

// Fetch downloads rawURL and extracts its paragraph text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := f.checkURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: finalURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	doc, err := parseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{
		URL:         finalURL,
		Title:       doc.title,
		Text:        doc.text,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Truncated:   bodyRemains(resp.Body),
	}

	f.logger.Debug("fetched page",
		"url", finalURL,
		"status", resp.StatusCode,
		"text_length", len(page.Text),
		"truncated", page.Truncated,
		"duration", time.Since(start))

	return page, nil
}

// checkURL validates the scheme and host and applies the onion rules.
func (f *Fetcher) checkURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, ErrMissingHost
	}

	if tor.IsOnionHost(host) {
		if !f.torEnabled {
			return nil, ErrOnionRequiresTor
		}
		if err := tor.ValidateHost(host); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// bodyRemains reports whether unread bytes are left after the size limit.
func bodyRemains(r io.Reader) bool {
	var b [1]byte
	n, _ := r.Read(b[:])
	return n > 0
}
