// Package tor lets validity fetch pages through the Tor network.
//
// Two modes are supported:
//   - an existing SOCKS5 proxy (for example a local Tor daemon on 127.0.0.1:9050)
//   - an embedded Tor daemon started through tornago
//
// The package also validates v3 onion addresses so that a mistyped
// .onion URL is rejected before any network traffic happens.
package tor
