// Package log provides slog loggers that never print API secrets.
//
// validity talks to several authenticated services (fact-check API,
// SerpAPI, model servers). Their keys travel in headers and query strings,
// which are easy to log by accident. SecureHandler wraps any slog.Handler
// and masks:
//   - attributes whose key names a secret (api_key, token, authorization, ...)
//   - values shaped like known API keys or bearer tokens
//   - key= / api_key= / token= parameters inside logged URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
