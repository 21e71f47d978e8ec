package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage backends return these
// (optionally wrapped) so the state layer and services can translate them
// into domain errors without knowing which backend produced them.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key does not exist in the store (or its TTL elapsed)
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, malformed fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
