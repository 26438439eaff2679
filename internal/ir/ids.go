package ir

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// IDLength is the width in bytes of object identifiers and addresses.
const IDLength = 32

// ID identifies a record. IDs are minted by the identity registry and are
// never reused, even after the record they named has been deleted.
type ID [IDLength]byte

// ZeroID is the unassigned identifier.
var ZeroID ID

// IsZero reports whether the identifier is unassigned.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// String returns the 0x-prefixed hex form.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Short returns an abbreviated form for log lines.
func (id ID) Short() string {
	return "0x" + hex.EncodeToString(id[:4])
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses a hex identifier. The 0x prefix is optional and short
// forms are left-padded with zeros, so "0x2" is a valid identifier.
func ParseID(s string) (ID, error) {
	var id ID
	if err := parseFixedHex(s, id[:]); err != nil {
		return ZeroID, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}

// Address identifies a principal that may hold records.
type Address [IDLength]byte

// ZeroAddress is the unassigned address.
var ZeroAddress Address

// IsZero reports whether the address is unassigned.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the 0x-prefixed hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns an abbreviated form for log lines.
func (a Address) Short() string {
	return "0x" + hex.EncodeToString(a[:4])
}

// MarshalText implements encoding.TextMarshaler.
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

// ParseAddress parses a hex address with the same rules as ParseID.
func ParseAddress(s string) (Address, error) {
	var a Address
	if err := parseFixedHex(s, a[:]); err != nil {
		return ZeroAddress, fmt.Errorf("parse address %q: %w", s, err)
	}
	return a, nil
}

// parseFixedHex decodes s into dst, left-padding short input.
func parseFixedHex(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return fmt.Errorf("empty hex string")
	}
	if len(s) > 2*len(dst) {
		return fmt.Errorf("hex string longer than %d bytes", len(dst))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	clear(dst)
	copy(dst[len(dst)-len(raw):], raw)
	return nil
}
