// Package store implements the registry's persistence layer: key derivation,
// TTL lifecycle classes, the pluggable key-value backends and the typed state
// accessors the operation layer consumes.
package store

import (
	"context"
	"time"
)

// Mutation is a single keyed write inside an atomic batch.
type Mutation struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// KV is the capability-scoped key-value interface injected into the state
// layer. Implementations are interchangeable: the in-memory fake backs unit
// tests, Redis and Postgres back deployments.
//
// Every write carries a TTL; the backend must refresh the key's expiry on
// each write so records are not reclaimed while still in use.
type KV interface {
	// Get returns the value at key, or sentinel.ErrNotFound when the key is
	// absent or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value at key and (re)sets its expiry to now+ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Apply performs all mutations or none of them. Backends must not expose
	// a state where only part of the batch is visible.
	Apply(ctx context.Context, mutations []Mutation) error
}
