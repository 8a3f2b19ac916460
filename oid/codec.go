// Package oid parses the index suffix of fully-qualified OIDs and renders OID-encoded addresses.
package oid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedOID - The OID does not match the expected index shape.
var ErrMalformedOID = errors.New("malformed OID")

// IPv6OctetCount - Octets in an OID-encoded IPv6 address.
const IPv6OctetCount = 16

// Normalize strips a leading dot and a leading "iso" label so walks from different agents compare equal.
func Normalize(oid string) string {
	oid = strings.TrimPrefix(oid, ".")
	if strings.HasPrefix(oid, "iso.") {
		oid = "1." + strings.TrimPrefix(oid, "iso.")
	}
	return oid
}

// components splits an OID into its numeric components.
func components(oid string) ([]uint64, error) {
	normalized := Normalize(oid)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty OID", ErrMalformedOID)
	}
	parts := strings.Split(normalized, ".")
	values := make([]uint64, len(parts))
	for i, part := range parts {
		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: component %v is not numeric", ErrMalformedOID, oid, i)
		}
		values[i] = value
	}
	return values, nil
}

// suffix returns the components of oid after prefix, or all of them when prefix is empty.
func suffix(oid string, prefix string) ([]uint64, error) {
	all, err := components(oid)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return all, nil
	}
	prefixComponents, err := components(prefix)
	if err != nil {
		return nil, err
	}
	if len(all) < len(prefixComponents) {
		return nil, fmt.Errorf("%w: %q is not under %q", ErrMalformedOID, oid, prefix)
	}
	for i, value := range prefixComponents {
		if all[i] != value {
			return nil, fmt.Errorf("%w: %q is not under %q", ErrMalformedOID, oid, prefix)
		}
	}
	return all[len(prefixComponents):], nil
}

// ExtractTrailingIndex returns the last numeric component of an OID.
// For example "1.3.6.1.2.1.2.2.1.8.3" returns 3.
func ExtractTrailingIndex(oid string) (int, error) {
	values, err := components(oid)
	if err != nil {
		return 0, err
	}
	return int(values[len(values)-1]), nil
}

// ExtractAddressIndex parses an OID whose row key is an embedded address.
// The address is the last octetCount components and the index is the component right before them.
// At least octetCount+1 components must follow the table prefix (which may be empty).
func ExtractAddressIndex(oid string, prefix string, octetCount int) (int, []byte, error) {
	if octetCount <= 0 {
		return 0, nil, fmt.Errorf("%w: non-positive octet count %v", ErrMalformedOID, octetCount)
	}
	values, err := suffix(oid, prefix)
	if err != nil {
		return 0, nil, err
	}
	if len(values) < octetCount+1 {
		return 0, nil, fmt.Errorf("%w: %q: want at least %v components after the table prefix, got %v",
			ErrMalformedOID, oid, octetCount+1, len(values))
	}

	addressValues := values[len(values)-octetCount:]
	octets := make([]byte, octetCount)
	for i, value := range addressValues {
		if value > 255 {
			return 0, nil, fmt.Errorf("%w: %q: address octet %v out of range", ErrMalformedOID, oid, value)
		}
		octets[i] = byte(value)
	}
	index := int(values[len(values)-octetCount-1])
	return index, octets, nil
}

// RenderAddress groups octets pairwise into zero-padded lowercase hextets joined by colons.
// Sixteen octets give an uncompressed IPv6 literal. A trailing odd octet forms its own group.
func RenderAddress(octets []byte) string {
	var builder strings.Builder
	for i := 0; i < len(octets); i += 2 {
		if i > 0 {
			builder.WriteByte(':')
		}
		if i+1 < len(octets) {
			fmt.Fprintf(&builder, "%02x%02x", octets[i], octets[i+1])
		} else {
			fmt.Fprintf(&builder, "%02x", octets[i])
		}
	}
	return builder.String()
}

// ParseAddress is the inverse of RenderAddress for even-length octet sequences.
func ParseAddress(address string) ([]byte, error) {
	if address == "" {
		return nil, fmt.Errorf("empty address")
	}
	groups := strings.Split(address, ":")
	octets := make([]byte, 0, 2*len(groups))
	for _, group := range groups {
		if len(group) != 4 {
			return nil, fmt.Errorf("address %q: group %q is not 4 hex digits", address, group)
		}
		value, err := strconv.ParseUint(group, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", address, err)
		}
		octets = append(octets, byte(value>>8), byte(value))
	}
	return octets, nil
}
