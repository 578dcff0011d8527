package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme (only http and https are allowed)")

	// ErrMissingHost is returned for URLs without a host.
	ErrMissingHost = errors.New("URL has no host")

	// ErrOnionRequiresTor is returned when an onion URL is fetched without Tor.
	ErrOnionRequiresTor = errors.New("onion URLs require Tor (use --tor or --proxy)")
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error formats the status the way HTTP clients commonly report it,
// e.g. "404 Client Error: Not Found for url: https://example.com/x".
func (e *StatusError) Error() string {
	kind := "HTTP Error"
	switch {
	case e.StatusCode >= 400 && e.StatusCode < 500:
		kind = "Client Error"
	case e.StatusCode >= 500 && e.StatusCode < 600:
		kind = "Server Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, http.StatusText(e.StatusCode), e.URL)
}
