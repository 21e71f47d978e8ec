package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"attestry/internal/attestation/models"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

// Flag encodings for attestor and replay markers. Removed attestors are
// tombstoned rather than deleted so expiry and lookup semantics stay uniform
// across the key family.
var (
	flagActive   = []byte("1")
	flagInactive = []byte("0")
)

// State exposes the registry's typed record families over an injected KV
// backend. It owns key derivation, value encoding and lifecycle class
// assignment; authorization and sequencing live in the service layer.
type State struct {
	kv KV
}

// NewState wraps a KV backend.
func NewState(kv KV) *State {
	return &State{kv: kv}
}

// HasAdmin reports whether initialize has succeeded on this instance.
func (s *State) HasAdmin(ctx context.Context) (bool, error) {
	_, err := s.kv.Get(ctx, AdminKey())
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAdmin writes the admin marker and refreshes its instance-class horizon.
func (s *State) SetAdmin(ctx context.Context, admin models.Identity) error {
	if err := s.kv.Put(ctx, AdminKey(), []byte(admin), InstanceTTL); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

// Admin returns the admin identity, or CodeNotInitialized when none is set.
func (s *State) Admin(ctx context.Context) (models.Identity, error) {
	val, err := s.kv.Get(ctx, AdminKey())
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeNotInitialized, "registry has no admin")
	}
	if err != nil {
		return "", fmt.Errorf("get admin: %w", err)
	}
	return models.Identity(val), nil
}

// SetAttestor writes the identity's flag. Removal writes the inactive
// tombstone instead of deleting the key.
func (s *State) SetAttestor(ctx context.Context, attestor models.Identity, registered bool) error {
	val := flagInactive
	if registered {
		val = flagActive
	}
	if err := s.kv.Put(ctx, AttestorKey(attestor), val, PersistentTTL); err != nil {
		return fmt.Errorf("set attestor flag: %w", err)
	}
	return nil
}

// IsAttestor reads the identity's flag; absence means false.
func (s *State) IsAttestor(ctx context.Context, attestor models.Identity) (bool, error) {
	val, err := s.kv.Get(ctx, AttestorKey(attestor))
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get attestor flag: %w", err)
	}
	return string(val) == string(flagActive), nil
}

// NextID returns the identifier the next attestation will receive. The
// counter starts at 0 and only CommitAttestation advances it, so returned
// identifiers are dense and strictly increasing across commits.
func (s *State) NextID(ctx context.Context) (uint64, error) {
	val, err := s.kv.Get(ctx, CounterKey())
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	counter, err := strconv.ParseUint(string(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode counter %q: %w", val, err)
	}
	return counter, nil
}

// IsHashUsed reads the replay marker for a payload hash; absence means false.
func (s *State) IsHashUsed(ctx context.Context, hash models.Hash) (bool, error) {
	val, err := s.kv.Get(ctx, UsedHashKey(hash))
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get used-hash marker: %w", err)
	}
	return string(val) == string(flagActive), nil
}

// Attestation loads a record by identifier.
func (s *State) Attestation(ctx context.Context, id uint64) (models.Attestation, error) {
	val, err := s.kv.Get(ctx, AttestationKey(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Attestation{}, dErrors.New(dErrors.CodeAttestationNotFound, fmt.Sprintf("no attestation with id %d", id))
	}
	if err != nil {
		return models.Attestation{}, fmt.Errorf("get attestation %d: %w", id, err)
	}
	var att models.Attestation
	if err := json.Unmarshal(val, &att); err != nil {
		return models.Attestation{}, fmt.Errorf("decode attestation %d: %w", id, err)
	}
	return att, nil
}

// CommitAttestation persists a freshly built record as one atomic batch:
// the counter advances to att.ID+1, the record is written at its identifier
// and the payload hash is marked used. The caller must have built att.ID from
// NextID under its own serialization; the batch guarantees no partial state
// survives a failure.
func (s *State) CommitAttestation(ctx context.Context, att models.Attestation) error {
	record, err := json.Marshal(att)
	if err != nil {
		return fmt.Errorf("encode attestation %d: %w", att.ID, err)
	}
	mutations := []Mutation{
		{Key: CounterKey(), Value: []byte(strconv.FormatUint(att.ID+1, 10)), TTL: InstanceTTL},
		{Key: AttestationKey(att.ID), Value: record, TTL: PersistentTTL},
		{Key: UsedHashKey(att.PayloadHash), Value: flagActive, TTL: PersistentTTL},
	}
	if err := s.kv.Apply(ctx, mutations); err != nil {
		return fmt.Errorf("commit attestation %d: %w", att.ID, err)
	}
	return nil
}
