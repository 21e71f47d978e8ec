// Package events defines the registry's outbound notifications and the
// publishers that deliver them. Events are the only output observable by
// third parties besides call return values, so every successful mutating
// operation emits exactly one.
package events

import (
	"context"
	"log/slog"
	"sync"

	"attestry/internal/attestation/models"
)

// Event is a named notification payload. Name returns the stable event name
// used as the routing key by transports.
type Event interface {
	Name() string
}

// AttestorAdded announces that the admin authorized a new attestor.
type AttestorAdded struct {
	Attestor models.Identity `json:"attestor"`
}

func (AttestorAdded) Name() string { return "attestor.added" }

// AttestorRemoved announces that the admin revoked an attestor.
type AttestorRemoved struct {
	Attestor models.Identity `json:"attestor"`
}

func (AttestorRemoved) Name() string { return "attestor.removed" }

// AttestationRecorded announces a committed attestation.
type AttestationRecorded struct {
	ID          uint64          `json:"id"`
	Issuer      models.Identity `json:"issuer"`
	Subject     models.Identity `json:"subject"`
	Timestamp   uint64          `json:"timestamp"`
	PayloadHash models.Hash     `json:"payload_hash"`
}

func (AttestationRecorded) Name() string { return "attestation.recorded" }

// Publisher delivers events to an external collaborator. Publishing is
// fail-closed: a non-nil error must fail the operation that produced the
// event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. It is the default sink
// when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "registry event", "event", event.Name(), "payload", event)
	return nil
}

// MemoryPublisher records events in order so tests can assert emissions.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
