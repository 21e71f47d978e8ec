// Package models holds the registry's domain types. Identities are opaque
// principal references supplied by the caller's host environment; the
// registry never interprets them beyond equality.
package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	dErrors "attestry/pkg/domain-errors"
)

// Identity is an opaque principal reference (attestor, subject or admin).
type Identity string

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}

// HashSize is the fixed length of a payload digest.
const HashSize = 32

// Hash is a 32-byte payload digest. It is stored and compared, never
// recomputed or verified by the registry.
type Hash [HashSize]byte

// HashFromBytes validates the fixed length and copies b into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, dErrors.New(dErrors.CodeInvalidHash, fmt.Sprintf("payload hash must be %d bytes, got %d", HashSize, len(b)))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a 64-character hex digest.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, dErrors.New(dErrors.CodeInvalidHash, "payload hash is not valid hex")
	}
	return HashFromBytes(b)
}

// String returns the lowercase hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string, enforcing the fixed length.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Attestation is an immutable signed statement by an issuer about a subject.
//
// Invariants:
//   - ID matches the counter value allocated when the record was committed
//   - PayloadHash is unique across the instance's lifetime (replay index)
//   - records are never mutated or deleted after commit
//
// The signature is opaque: the registry stores it alongside the hash but
// performs no cryptographic verification.
type Attestation struct {
	ID          uint64   `json:"id"`
	Issuer      Identity `json:"issuer"`
	Subject     Identity `json:"subject"`
	Timestamp   uint64   `json:"timestamp"`
	PayloadHash Hash     `json:"payload_hash"`
	Signature   []byte   `json:"signature"`
}
