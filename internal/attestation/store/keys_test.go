package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attestry/internal/attestation/models"
)

func TestKeyFamiliesAreDistinct(t *testing.T) {
	hash := models.Hash{0xab}
	keys := []string{
		AdminKey(),
		CounterKey(),
		AttestorKey("alice"),
		AttestationKey(0),
		UsedHashKey(hash),
	}
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup, "duplicate key %q", k)
		seen[k] = struct{}{}
	}
}

func TestAttestorKeySanitizesDelimiter(t *testing.T) {
	// An identity embedding the delimiter must not alias another segment.
	hostile := AttestorKey("alice:admin")
	plain := AttestorKey("alice")
	assert.NotEqual(t, plain, hostile)
	assert.NotContains(t, hostile[len("attestor:"):], ":")
}

func TestAttestorKeyEncodingIsInjective(t *testing.T) {
	// Identities are caller-controlled, so the segment encoding must never
	// map two distinct identities onto one key. "a:b" vs "a_b" is the
	// classic collision of a plain replace; the rest exercise the escape
	// character itself.
	assert.NotEqual(t, AttestorKey("a:b"), AttestorKey("a_b"))

	identities := []models.Identity{
		"a:b", "a_b", "a_cb", "a__b", "a_:b", "a::b", "a:_b", "plain",
	}
	seen := make(map[string]models.Identity, len(identities))
	for _, identity := range identities {
		key := AttestorKey(identity)
		prev, dup := seen[key]
		assert.False(t, dup, "identities %q and %q derive the same key %q", prev, identity, key)
		seen[key] = identity
	}
}

func TestAttestationKeysAreUniquePerID(t *testing.T) {
	assert.NotEqual(t, AttestationKey(0), AttestationKey(1))
	assert.Equal(t, "attestation:42", AttestationKey(42))
}

func TestUsedHashKeysDifferPerHash(t *testing.T) {
	a := models.Hash{1}
	b := models.Hash{2}
	assert.NotEqual(t, UsedHashKey(a), UsedHashKey(b))
}
