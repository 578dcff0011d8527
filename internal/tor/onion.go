package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionSuffix is the top-level suffix of every onion service.
	OnionSuffix = ".onion"

	// onionV3Version is the trailing version byte of a v3 address.
	onionV3Version = 0x03
)

var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is fixed by the Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host belongs to an onion service.
// Subdomains such as www.<address>.onion count as onion hosts.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(host, ".")), OnionSuffix)
}

// ServiceAddress strips subdomains from an onion host, leaving "<56 chars>.onion".
func ServiceAddress(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsValidV3Address checks the format and the SHA3-256 checksum of a v3 onion address.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) | checksum (2) | version (1)
	if decoded[34] != onionV3Version {
		return false
	}
	want, err := AddressFromPublicKey(decoded[:32])
	return err == nil && want == address
}

// ValidateHost returns ErrInvalidOnionAddress when host is an onion host
// that does not carry a valid v3 address. Other hosts pass unchanged.
func ValidateHost(host string) error {
	if !IsOnionHost(host) {
		return nil
	}
	if !IsValidV3Address(ServiceAddress(host)) {
		return ErrInvalidOnionAddress
	}
	return nil
}

// computeV3Checksum returns the first 2 bytes of SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}

// AddressFromPublicKey builds the v3 onion address of an ed25519 public key.
func AddressFromPublicKey(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", ErrInvalidOnionAddress
	}

	data := make([]byte, 35)
	copy(data[:32], pubkey)
	copy(data[32:34], computeV3Checksum(pubkey, onionV3Version))
	data[34] = onionV3Version

	return strings.ToLower(base32.StdEncoding.EncodeToString(data)) + OnionSuffix, nil
}
