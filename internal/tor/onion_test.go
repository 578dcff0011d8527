package tor

import (
	"errors"
	"strings"
	"testing"
)

// validAddress builds a v3 address from a fixed public key.
func validAddress(t *testing.T) string {
	t.Helper()

	pubkey := make([]byte, 32)
	for i := range pubkey {
		pubkey[i] = byte(i)
	}
	addr, err := AddressFromPublicKey(pubkey)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %v", err)
	}
	return addr
}

// TestIsValidV3Address tests onion address validation.
func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	addr := validAddress(t)

	t.Run("generated address is valid", func(t *testing.T) {
		t.Parallel()
		if !IsValidV3Address(addr) {
			t.Errorf("expected %s to be valid", addr)
		}
	})

	t.Run("upper case is accepted", func(t *testing.T) {
		t.Parallel()
		if !IsValidV3Address(strings.ToUpper(addr)) {
			t.Error("expected upper-case address to be valid")
		}
	})

	t.Run("corrupted checksum is rejected", func(t *testing.T) {
		t.Parallel()
		runes := []rune(addr)
		// flip a character inside the pubkey part
		if runes[0] == 'a' {
			runes[0] = 'b'
		} else {
			runes[0] = 'a'
		}
		if IsValidV3Address(string(runes)) {
			t.Error("expected corrupted address to be invalid")
		}
	})

	t.Run("v2 length is rejected", func(t *testing.T) {
		t.Parallel()
		if IsValidV3Address("facebookcorewwwi.onion") {
			t.Error("expected v2 address to be invalid")
		}
	})

	t.Run("invalid base32 characters are rejected", func(t *testing.T) {
		t.Parallel()
		if IsValidV3Address(strings.Repeat("0", 56) + ".onion") {
			t.Error("expected address with digit 0 to be invalid")
		}
	})
}

// TestValidateHost tests host validation for fetch targets.
func TestValidateHost(t *testing.T) {
	t.Parallel()

	addr := validAddress(t)

	tests := []struct {
		name    string
		host    string
		wantErr error
	}{
		{name: "clearnet host", host: "example.com", wantErr: nil},
		{name: "valid onion", host: addr, wantErr: nil},
		{name: "onion subdomain", host: "www." + addr, wantErr: nil},
		{name: "bogus onion", host: "abc.onion", wantErr: ErrInvalidOnionAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateHost(tt.host); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateHost(%q) = %v, want %v", tt.host, err, tt.wantErr)
			}
		})
	}
}
