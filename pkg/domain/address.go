package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of a ledger identity.
const AddressLength = 20

// Address identifies a party, the treasury, or any other account on the
// ledger. It is a domain primitive: construct via ParseAddress at trust
// boundaries to enforce the format; direct casting bypasses validation.
type Address [AddressLength]byte

// ZeroAddress is the null identity. It is never a valid party and is used
// as the burn destination in transfer probes.
var ZeroAddress = Address{}

// ParseAddress validates and returns an Address from its 0x-prefixed hex
// representation.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(raw) != AddressLength*2 {
		return a, fmt.Errorf("address must be %d hex characters: %q", AddressLength*2, s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for test fixtures and constants.
// It panics on invalid input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the 0x-prefixed lowercase hex representation.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool {
	return bytes.Equal(a[:], ZeroAddress[:])
}

// MarshalText implements encoding.TextMarshaler so addresses serialize as
// hex strings in JSON payloads and event records.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
