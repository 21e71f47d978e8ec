// Package domainerrors defines the coded errors surfaced by the attestation
// registry. Each failure mode carries a stable numeric code so external
// callers (and compatibility tests against other deployments of the registry)
// can match on the code rather than on message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a registry failure mode. Values are stable and must never
// be renumbered: downstream systems persist and compare them.
type Code uint32

const (
	// CodeAlreadyInitialized: initialize called on an instance that already
	// has an admin.
	CodeAlreadyInitialized Code = 1

	// CodeNotInitialized: a call that requires an admin arrived before
	// initialize succeeded.
	CodeNotInitialized Code = 2

	// CodeUnauthorizedAttestor: the caller lacks the admin or attestor
	// capability the operation requires.
	CodeUnauthorizedAttestor Code = 3

	// CodeAttestorAlreadyRegistered: add called for an identity whose flag is
	// already active.
	CodeAttestorAlreadyRegistered Code = 4

	// CodeAttestorNotRegistered: remove called for an identity that is not an
	// active attestor.
	CodeAttestorNotRegistered Code = 5

	// CodeReplayAttack: the payload hash was already consumed by an earlier
	// attestation.
	CodeReplayAttack Code = 6

	// CodeInvalidTimestamp: the attestation timestamp is zero or later than
	// the current time.
	CodeInvalidTimestamp Code = 7

	// CodeAttestationNotFound: lookup by an identifier that was never
	// allocated.
	CodeAttestationNotFound Code = 8

	// CodeInvalidHash: the payload hash is not exactly 32 bytes. Historically
	// this slot was named after a public-key check; the value is kept so the
	// code stays distinct from the others.
	CodeInvalidHash Code = 9
)

// String returns the snake_case name used in transport envelopes.
func (c Code) String() string {
	switch c {
	case CodeAlreadyInitialized:
		return "already_initialized"
	case CodeNotInitialized:
		return "not_initialized"
	case CodeUnauthorizedAttestor:
		return "unauthorized_attestor"
	case CodeAttestorAlreadyRegistered:
		return "attestor_already_registered"
	case CodeAttestorNotRegistered:
		return "attestor_not_registered"
	case CodeReplayAttack:
		return "replay_attack"
	case CodeInvalidTimestamp:
		return "invalid_timestamp"
	case CodeAttestationNotFound:
		return "attestation_not_found"
	case CodeInvalidHash:
		return "invalid_hash"
	default:
		return fmt.Sprintf("unknown_code_%d", uint32(c))
	}
}

// Error is a coded domain error. Services construct these; the transport
// layer translates them to the host's error-reporting convention.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or 0 when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return 0
}

// ToHTTPStatus maps a registry code to the status the HTTP dispatch layer
// reports. Unknown codes fall through to 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeAlreadyInitialized, CodeAttestorAlreadyRegistered, CodeAttestorNotRegistered, CodeReplayAttack:
		return http.StatusConflict
	case CodeNotInitialized:
		return http.StatusServiceUnavailable
	case CodeUnauthorizedAttestor:
		return http.StatusForbidden
	case CodeInvalidTimestamp, CodeInvalidHash:
		return http.StatusBadRequest
	case CodeAttestationNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
