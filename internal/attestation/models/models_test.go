package models

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestry/pkg/domain-errors"
)

func TestHashFromBytes(t *testing.T) {
	t.Run("accepts exactly 32 bytes", func(t *testing.T) {
		b := bytes.Repeat([]byte{0xAB}, HashSize)
		h, err := HashFromBytes(b)
		require.NoError(t, err)
		assert.Equal(t, b, h[:])
	})

	t.Run("rejects short input", func(t *testing.T) {
		_, err := HashFromBytes([]byte{1, 2, 3})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})

	t.Run("rejects long input", func(t *testing.T) {
		_, err := HashFromBytes(bytes.Repeat([]byte{1}, HashSize+1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})
}

func TestHashFromHex(t *testing.T) {
	t.Run("round trips through hex", func(t *testing.T) {
		h, err := HashFromBytes(bytes.Repeat([]byte{0x5C}, HashSize))
		require.NoError(t, err)

		parsed, err := HashFromHex(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := HashFromHex("zz")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := HashFromHex("abcd")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})
}

func TestAttestationJSONRoundTrip(t *testing.T) {
	hash, err := HashFromBytes(bytes.Repeat([]byte{0x11}, HashSize))
	require.NoError(t, err)

	att := Attestation{
		ID:          7,
		Issuer:      "issuer",
		Subject:     "subject",
		Timestamp:   1234,
		PayloadHash: hash,
		Signature:   []byte("opaque-signature"),
	}

	data, err := json.Marshal(att)
	require.NoError(t, err)

	var got Attestation
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, att, got)
}

func TestAttestationJSONRejectsMalformedHash(t *testing.T) {
	var att Attestation
	err := json.Unmarshal([]byte(`{"id":1,"payload_hash":"abcd"}`), &att)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
}
