package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainObject  = "objstore/object/v1"
	DomainSlot    = "objstore/slot/v1"
	DomainEvent   = "objstore/event/v1"
	DomainAddress = "objstore/address/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + part0 + 0x00 + part1 ...)
// The null byte separators prevent boundary ambiguity between parts.
func hashWithDomain(domain string, parts ...[]byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write([]byte{0x00})
		h.Write(p)
	}
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ObjectID derives a record identifier from the creating transaction's
// digest and the registry counter. The counter is strictly increasing over
// the registry's lifetime, so two calls never yield the same ID.
func ObjectID(digest string, counter int64) ID {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(counter))
	return ID(hashWithDomain(DomainObject, []byte(digest), seq[:]))
}

// SlotID derives the identity of a dynamic slot from its owner and key.
// keyType is the qualified type name of the key; keyData is its canonical
// encoding. Equal keys of different types address different slots.
func SlotID(owner ID, keyType string, keyData []byte) ID {
	return ID(hashWithDomain(DomainSlot, owner[:], []byte(keyType), keyData))
}

// AddressFromLabel derives a stable address from a human label such as
// "alice". Used by scenarios and the CLI; real deployments supply
// addresses directly.
func AddressFromLabel(label string) Address {
	return Address(hashWithDomain(DomainAddress, []byte(label)))
}

// EventID computes the content-addressed ID of a journal event.
// Returns error if fields cannot be canonically marshaled.
func EventID(digest string, seq int64, kind string, fields IRObject) (string, error) {
	obj := IRObject{
		"digest": IRString(digest),
		"seq":    IRInt(seq),
		"kind":   IRString(kind),
		"fields": fields,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	sum := hashWithDomain(DomainEvent, canonical)
	return hex.EncodeToString(sum[:]), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(digest string, seq int64, kind string, fields IRObject) string {
	id, err := EventID(digest, seq, kind, fields)
	if err != nil {
		panic(err)
	}
	return id
}
