package tor

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidOnionAddress is returned for a .onion host that is not a valid v3 address.
	ErrInvalidOnionAddress = errors.New("invalid onion address: expected a v3 address with a valid checksum")

	// ErrNotRunning is returned when a client is requested from a stopped embedded daemon.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")
)
