package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Version is the version byte for v3 onion addresses.
	OnionV3Version = 0x03

	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"
)

// onionV3Pattern matches v3 onion addresses (56 base32 characters + .onion).
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// onionV2Pattern matches v2 onion addresses (16 base32 characters + .onion).
var onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

// checksumPrefix is the prefix used in v3 onion address checksum calculation.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host is in the .onion pseudo top-level domain.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// IsValidV3Address checks if the given address is a valid v3 onion address.
// It performs both format validation and checksum verification.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil {
		return false
	}

	// 32 bytes ed25519 public key, 2 bytes checksum, 1 byte version.
	if len(decoded) != 35 {
		return false
	}

	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]
	if version != OnionV3Version {
		return false
	}

	expected := computeV3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// computeV3Checksum computes the checksum bytes for a v3 onion address.
// The checksum is the first 2 bytes of SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}

// IsV2Address checks if the given address matches the v2 onion address format.
// V2 addresses were retired in October 2021 and no longer resolve.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// ValidateOnionHost returns nil for a valid v3 onion host,
// ErrV2AddressDeprecated for a v2 host and ErrInvalidOnionAddress otherwise.
func ValidateOnionHost(host string) error {
	switch {
	case IsValidV3Address(host):
		return nil
	case IsV2Address(host):
		return ErrV2AddressDeprecated
	default:
		return ErrInvalidOnionAddress
	}
}

// ReachableHost returns a predicate telling whether a host can be dialed.
//
// Without a proxy, onion hosts are never reachable. Through a proxy,
// onion hosts must be valid v3 addresses; anything else would only cost
// a circuit build that is certain to fail. Clearnet hosts are always
// reachable.
func ReachableHost(viaProxy bool) func(host string) bool {
	return func(host string) bool {
		if !IsOnionHost(host) {
			return true
		}
		return viaProxy && ValidateOnionHost(host) == nil
	}
}

// ComputeV3AddressFromPublicKey computes the v3 onion address from an
// ed25519 public key. The public key must be exactly 32 bytes.
func ComputeV3AddressFromPublicKey(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", ErrInvalidOnionAddress
	}

	checksum := computeV3Checksum(pubkey, OnionV3Version)

	addressData := make([]byte, 35)
	copy(addressData[:32], pubkey)
	copy(addressData[32:34], checksum)
	addressData[34] = OnionV3Version

	encoded := base32.StdEncoding.EncodeToString(addressData)
	return strings.ToLower(encoded) + OnionSuffix, nil
}
