package store

import (
	"strconv"
	"strings"

	"attestry/internal/attestation/models"
)

// The key space partitions the registry's five record families. Derivation is
// pure and never fails; any identity or hash maps to exactly one key and no
// two families can collide because each carries its own prefix.
const (
	adminKey   = "admin"
	counterKey = "counter"

	attestorKeyPrefix    = "attestor:"
	attestationKeyPrefix = "attestation:"
	usedHashKeyPrefix    = "usedhash:"
)

// sanitizeKeySegment encodes identity-derived segments so the ':' family
// delimiter cannot appear in them. The encoding is injective ('_' is the
// escape character and is escaped first), so no two identities can derive
// the same key.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	return strings.ReplaceAll(s, ":", "_c")
}

// AttestorKey derives the flag key for an identity.
func AttestorKey(identity models.Identity) string {
	return attestorKeyPrefix + sanitizeKeySegment(string(identity))
}

// AttestationKey derives the record key for an allocated identifier.
func AttestationKey(id uint64) string {
	return attestationKeyPrefix + strconv.FormatUint(id, 10)
}

// UsedHashKey derives the replay-marker key for a payload hash. The hex form
// is fixed-length, so no sanitization is needed.
func UsedHashKey(hash models.Hash) string {
	return usedHashKeyPrefix + hash.String()
}

// AdminKey returns the singleton admin marker key.
func AdminKey() string { return adminKey }

// CounterKey returns the singleton identifier-counter key.
func CounterKey() string { return counterKey }
