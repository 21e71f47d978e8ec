// Package service implements the registry's operation layer: authorization,
// input validation, replay defense and the commit sequencing over the state
// layer. Handlers stay thin; everything that decides whether a write is valid
// lives here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"attestry/internal/attestation/events"
	"attestry/internal/attestation/models"
	"attestry/internal/attestation/store"
	dErrors "attestry/pkg/domain-errors"
)

// Clock abstracts time.Now so timestamp validation is testable.
type Clock func() time.Time

// Metrics is the subset of instrumentation the service reports to. A nil
// implementation is allowed.
type Metrics interface {
	IncAttestationsRecorded()
	IncReplaysRejected()
}

// Service is the single writer over the registry state. The mutex serializes
// mutating calls so the check-then-write sequences (replay index, registry
// flags, counter) cannot interleave; deployments that already serialize calls
// at the host level pay only an uncontended lock.
type Service struct {
	mu      sync.Mutex
	state   *store.State
	events  events.Publisher
	logger  *slog.Logger
	metrics Metrics
	clock   Clock
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for operational reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New wires the operation layer over a state store and an event publisher.
func New(state *store.State, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		state:  state,
		events: publisher,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Initialize sets the admin identity. It must be the first successful
// mutating call in the instance's lifetime; a second call fails.
func (s *Service) Initialize(ctx context.Context, admin models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	has, err := s.state.HasAdmin(ctx)
	if err != nil {
		return err
	}
	if has {
		return dErrors.New(dErrors.CodeAlreadyInitialized, "admin is already set")
	}
	if err := s.state.SetAdmin(ctx, admin); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "registry initialized", "admin", admin)
	return nil
}

// TransferAdmin hands the admin capability to a new identity. Only the
// current admin may call it.
func (s *Service) TransferAdmin(ctx context.Context, caller, newAdmin models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.state.SetAdmin(ctx, newAdmin); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin transferred", "from", caller, "to", newAdmin)
	return nil
}

// AddAttestor authorizes an identity to record attestations. Admin only.
func (s *Service) AddAttestor(ctx context.Context, caller, attestor models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	registered, err := s.state.IsAttestor(ctx, attestor)
	if err != nil {
		return err
	}
	if registered {
		return dErrors.New(dErrors.CodeAttestorAlreadyRegistered, fmt.Sprintf("%s is already an attestor", attestor))
	}
	if err := s.state.SetAttestor(ctx, attestor, true); err != nil {
		return err
	}
	if err := s.events.Publish(ctx, events.AttestorAdded{Attestor: attestor}); err != nil {
		return fmt.Errorf("publish attestor added: %w", err)
	}
	return nil
}

// RemoveAttestor revokes an identity's attestor capability. The flag is
// tombstoned, not deleted. Admin only.
func (s *Service) RemoveAttestor(ctx context.Context, caller, attestor models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	registered, err := s.state.IsAttestor(ctx, attestor)
	if err != nil {
		return err
	}
	if !registered {
		return dErrors.New(dErrors.CodeAttestorNotRegistered, fmt.Sprintf("%s is not an attestor", attestor))
	}
	if err := s.state.SetAttestor(ctx, attestor, false); err != nil {
		return err
	}
	if err := s.events.Publish(ctx, events.AttestorRemoved{Attestor: attestor}); err != nil {
		return fmt.Errorf("publish attestor removed: %w", err)
	}
	return nil
}

// RecordInput carries the caller-supplied fields of a new attestation.
type RecordInput struct {
	Issuer      models.Identity
	Subject     models.Identity
	Timestamp   uint64
	PayloadHash []byte
	Signature   []byte
}

// Record validates and commits a new attestation:
//
//  1. the registry must be initialized
//  2. the authenticated caller must be the declared issuer and a registered
//     attestor
//  3. the timestamp must be non-zero and not in the future
//  4. the payload hash must be exactly 32 bytes and never seen before
//
// The counter advance, record write and replay marker are committed as one
// atomic batch, then the recorded event is published. Any failure aborts the
// whole call with no partial writes observable afterwards.
func (s *Service) Record(ctx context.Context, caller models.Identity, input RecordInput) (models.Attestation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	has, err := s.state.HasAdmin(ctx)
	if err != nil {
		return models.Attestation{}, err
	}
	if !has {
		return models.Attestation{}, dErrors.New(dErrors.CodeNotInitialized, "registry has no admin")
	}

	if caller != input.Issuer {
		return models.Attestation{}, dErrors.New(dErrors.CodeUnauthorizedAttestor, "caller must be the issuer")
	}
	registered, err := s.state.IsAttestor(ctx, caller)
	if err != nil {
		return models.Attestation{}, err
	}
	if !registered {
		return models.Attestation{}, dErrors.New(dErrors.CodeUnauthorizedAttestor, fmt.Sprintf("%s is not an attestor", caller))
	}

	if input.Timestamp == 0 {
		return models.Attestation{}, dErrors.New(dErrors.CodeInvalidTimestamp, "timestamp must be non-zero")
	}
	if now := uint64(s.clock().Unix()); input.Timestamp > now {
		return models.Attestation{}, dErrors.New(dErrors.CodeInvalidTimestamp, "timestamp is in the future")
	}

	hash, err := models.HashFromBytes(input.PayloadHash)
	if err != nil {
		return models.Attestation{}, err
	}

	used, err := s.state.IsHashUsed(ctx, hash)
	if err != nil {
		return models.Attestation{}, err
	}
	if used {
		if s.metrics != nil {
			s.metrics.IncReplaysRejected()
		}
		return models.Attestation{}, dErrors.New(dErrors.CodeReplayAttack, "payload hash was already attested")
	}

	id, err := s.state.NextID(ctx)
	if err != nil {
		return models.Attestation{}, err
	}
	att := models.Attestation{
		ID:          id,
		Issuer:      input.Issuer,
		Subject:     input.Subject,
		Timestamp:   input.Timestamp,
		PayloadHash: hash,
		Signature:   input.Signature,
	}
	if err := s.state.CommitAttestation(ctx, att); err != nil {
		return models.Attestation{}, err
	}

	if err := s.events.Publish(ctx, events.AttestationRecorded{
		ID:          att.ID,
		Issuer:      att.Issuer,
		Subject:     att.Subject,
		Timestamp:   att.Timestamp,
		PayloadHash: att.PayloadHash,
	}); err != nil {
		return models.Attestation{}, fmt.Errorf("publish attestation recorded: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncAttestationsRecorded()
	}
	s.logger.InfoContext(ctx, "attestation recorded", "id", att.ID, "issuer", att.Issuer, "subject", att.Subject)
	return att, nil
}

// GetAttestation loads a record by identifier.
func (s *Service) GetAttestation(ctx context.Context, id uint64) (models.Attestation, error) {
	return s.state.Attestation(ctx, id)
}

// GetAdmin returns the admin identity.
func (s *Service) GetAdmin(ctx context.Context) (models.Identity, error) {
	return s.state.Admin(ctx)
}

// IsAttestor reports whether an identity holds an active attestor flag.
func (s *Service) IsAttestor(ctx context.Context, identity models.Identity) (bool, error) {
	return s.state.IsAttestor(ctx, identity)
}

func (s *Service) requireAdmin(ctx context.Context, caller models.Identity) error {
	admin, err := s.state.Admin(ctx)
	if err != nil {
		return err
	}
	if caller != admin {
		return dErrors.New(dErrors.CodeUnauthorizedAttestor, "caller is not the admin")
	}
	return nil
}
