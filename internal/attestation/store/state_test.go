package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attestry/internal/attestation/models"
	dErrors "attestry/pkg/domain-errors"
)

type StateSuite struct {
	suite.Suite
	state *State
	kv    *InMemoryKV
	ctx   context.Context
	now   time.Time
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.kv = NewInMemoryKV(WithClock(func() time.Time { return s.now }))
	s.state = NewState(s.kv)
	s.ctx = context.Background()
}

func (s *StateSuite) testAttestation(id uint64, hash models.Hash) models.Attestation {
	return models.Attestation{
		ID:          id,
		Issuer:      "issuer",
		Subject:     "subject",
		Timestamp:   1000,
		PayloadHash: hash,
		Signature:   []byte("sig"),
	}
}

func (s *StateSuite) TestAdminLifecycle() {
	has, err := s.state.HasAdmin(s.ctx)
	s.Require().NoError(err)
	s.False(has)

	_, err = s.state.Admin(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotInitialized))

	s.Require().NoError(s.state.SetAdmin(s.ctx, "alice"))

	has, err = s.state.HasAdmin(s.ctx)
	s.Require().NoError(err)
	s.True(has)

	admin, err := s.state.Admin(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Identity("alice"), admin)
}

func (s *StateSuite) TestAttestorFlagDefaultsFalse() {
	registered, err := s.state.IsAttestor(s.ctx, "bob")
	s.Require().NoError(err)
	s.False(registered)
}

func (s *StateSuite) TestAttestorFlagTombstone() {
	s.Require().NoError(s.state.SetAttestor(s.ctx, "bob", true))
	registered, err := s.state.IsAttestor(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(registered)

	// Removal writes an inactive marker rather than deleting the key.
	s.Require().NoError(s.state.SetAttestor(s.ctx, "bob", false))
	registered, err = s.state.IsAttestor(s.ctx, "bob")
	s.Require().NoError(err)
	s.False(registered)

	_, err = s.kv.Get(s.ctx, AttestorKey("bob"))
	s.Require().NoError(err, "tombstoned flag should still exist in the store")
}

func (s *StateSuite) TestCounterStartsAtZero() {
	id, err := s.state.NextID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), id)
}

func (s *StateSuite) TestCommitAdvancesCounter() {
	for want := uint64(0); want < 5; want++ {
		id, err := s.state.NextID(s.ctx)
		s.Require().NoError(err)
		s.Equal(want, id)

		att := s.testAttestation(id, models.Hash{byte(want)})
		s.Require().NoError(s.state.CommitAttestation(s.ctx, att))
	}
	id, err := s.state.NextID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(5), id)
}

func (s *StateSuite) TestCommitMarksHashUsed() {
	hash := models.Hash{0xaa}
	used, err := s.state.IsHashUsed(s.ctx, hash)
	s.Require().NoError(err)
	s.False(used)

	s.Require().NoError(s.state.CommitAttestation(s.ctx, s.testAttestation(0, hash)))

	used, err = s.state.IsHashUsed(s.ctx, hash)
	s.Require().NoError(err)
	s.True(used)
}

func (s *StateSuite) TestAttestationRoundTrip() {
	att := s.testAttestation(0, models.Hash{0x01, 0x02})
	s.Require().NoError(s.state.CommitAttestation(s.ctx, att))

	got, err := s.state.Attestation(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal(att, got)
}

func (s *StateSuite) TestAttestationNotFound() {
	_, err := s.state.Attestation(s.ctx, 99)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAttestationNotFound))
}

func (s *StateSuite) TestLifecycleClassesDiverge() {
	s.Require().NoError(s.state.SetAdmin(s.ctx, "alice"))
	s.Require().NoError(s.state.CommitAttestation(s.ctx, s.testAttestation(0, models.Hash{0xbb})))

	// Past the instance horizon but inside the persistent one: admin and
	// counter are reclaimed, the attestation and replay marker survive.
	s.now = s.now.Add(45 * 24 * time.Hour)

	has, err := s.state.HasAdmin(s.ctx)
	s.Require().NoError(err)
	s.False(has)

	id, err := s.state.NextID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), id)

	_, err = s.state.Attestation(s.ctx, 0)
	s.Require().NoError(err)

	used, err := s.state.IsHashUsed(s.ctx, models.Hash{0xbb})
	s.Require().NoError(err)
	s.True(used)
}
