package store

import (
	"context"
	"sync"
	"time"

	"attestry/pkg/platform/sentinel"
)

// Clock abstracts time.Now so tests can advance expiry deterministically.
type Clock func() time.Time

// InMemoryKV keeps all records in a map with per-key expiry. It is the test
// double for the Redis and Postgres backends and a usable backend for
// single-process deployments; it intentionally favors clarity over
// performance.
type InMemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   Clock
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryKVOption configures an InMemoryKV instance.
type InMemoryKVOption func(*InMemoryKV)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) InMemoryKVOption {
	return func(kv *InMemoryKV) {
		if clock != nil {
			kv.clock = clock
		}
	}
}

// NewInMemoryKV constructs an empty in-memory store.
func NewInMemoryKV(opts ...InMemoryKVOption) *InMemoryKV {
	kv := &InMemoryKV{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (kv *InMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	entry, ok := kv.entries[key]
	if !ok || kv.clock().After(entry.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), entry.value...), nil
}

func (kv *InMemoryKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.set(key, value, ttl)
	return nil
}

// Apply holds the lock across the whole batch, so either every mutation is
// visible or none is.
func (kv *InMemoryKV) Apply(_ context.Context, mutations []Mutation) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for _, m := range mutations {
		kv.set(m.Key, m.Value, m.TTL)
	}
	return nil
}

func (kv *InMemoryKV) set(key string, value []byte, ttl time.Duration) {
	kv.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: kv.clock().Add(ttl),
	}
}
