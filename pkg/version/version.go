// Package version provides protocol version parsing, comparison, and the
// capability bitmask a configured pipeline advertises.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the protocol version implemented by this library.
const Current = "2.0"

// Version represents a parsed "major.minor" protocol version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether a peer speaking other can be served by v:
// the major versions match and v is at least as new in its minor.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major && v.Minor >= other.Minor
}

// ProtocolID returns the protocol identifier for a major version: "remus/N".
// Callers that negotiate over TLS use it as the ALPN value.
func ProtocolID(major uint16) string {
	return fmt.Sprintf("remus/%d", major)
}

// MajorFromProtocolID extracts the major version from a protocol identifier.
func MajorFromProtocolID(id string) (uint16, error) {
	if !strings.HasPrefix(id, "remus/") {
		return 0, fmt.Errorf("not a remus protocol identifier: %q", id)
	}

	suffix := id[len("remus/"):]
	if suffix == "" {
		return 0, fmt.Errorf("empty major version in protocol identifier: %q", id)
	}

	major, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid major version in protocol identifier %q: %w", id, err)
	}

	return uint16(major), nil
}
