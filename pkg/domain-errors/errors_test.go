package domainerrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Numeric values are a compatibility surface; renumbering breaks external
// callers.
func TestCodesAreStable(t *testing.T) {
	want := map[Code]uint32{
		CodeAlreadyInitialized:        1,
		CodeNotInitialized:            2,
		CodeUnauthorizedAttestor:      3,
		CodeAttestorAlreadyRegistered: 4,
		CodeAttestorNotRegistered:     5,
		CodeReplayAttack:              6,
		CodeInvalidTimestamp:          7,
		CodeAttestationNotFound:       8,
		CodeInvalidHash:               9,
	}
	seen := make(map[uint32]Code)
	for code, value := range want {
		assert.Equal(t, value, uint32(code))
		prev, dup := seen[value]
		require.False(t, dup, "codes %v and %v share value %d", prev, code, value)
		seen[value] = code
	}
}

func TestHasCode(t *testing.T) {
	err := New(CodeReplayAttack, "hash already attested")
	assert.True(t, HasCode(err, CodeReplayAttack))
	assert.False(t, HasCode(err, CodeInvalidHash))
	assert.False(t, HasCode(nil, CodeReplayAttack))

	wrapped := fmt.Errorf("record: %w", err)
	assert.True(t, HasCode(wrapped, CodeReplayAttack))
	assert.Equal(t, CodeReplayAttack, CodeOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	err := New(CodeInvalidTimestamp, "timestamp is in the future")
	assert.Equal(t, "invalid_timestamp: timestamp is in the future", err.Error())
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeAlreadyInitialized:        http.StatusConflict,
		CodeNotInitialized:            http.StatusServiceUnavailable,
		CodeUnauthorizedAttestor:      http.StatusForbidden,
		CodeAttestorAlreadyRegistered: http.StatusConflict,
		CodeAttestorNotRegistered:     http.StatusConflict,
		CodeReplayAttack:              http.StatusConflict,
		CodeInvalidTimestamp:          http.StatusBadRequest,
		CodeAttestationNotFound:       http.StatusNotFound,
		CodeInvalidHash:               http.StatusBadRequest,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %v", code)
	}
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code(0)))
}
