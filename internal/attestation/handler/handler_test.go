package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"attestry/internal/attestation/events"
	"attestry/internal/attestation/models"
	"attestry/internal/attestation/service"
	"attestry/internal/attestation/store"
	"attestry/internal/platform/logger"
	"attestry/internal/platform/token"
)

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	tokens *token.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := logger.New()
	registry := service.New(
		store.NewState(store.NewInMemoryKV()),
		events.NewMemoryPublisher(),
		service.WithLogger(log),
	)
	s.tokens = token.NewService("test-signing-key", "attestry", "attestry")

	router := chi.NewRouter()
	New(registry, log, s.tokens).Register(router)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) request(method, path, identity string, body any) *http.Response {
	s.T().Helper()

	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if identity != "" {
		bearer, err := s.tokens.GenerateToken(identity, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, into any) {
	s.T().Helper()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

func recordBody(issuer string, hashByte byte) map[string]any {
	hash := make([]byte, models.HashSize)
	hash[0] = hashByte
	return map[string]any{
		"issuer":       issuer,
		"subject":      "subject",
		"timestamp":    1000,
		"payload_hash": fmt.Sprintf("%x", hash),
		"signature":    base64.StdEncoding.EncodeToString([]byte("sig")),
	}
}

func (s *HandlerSuite) TestRejectsMissingToken() {
	resp := s.request(http.MethodGet, "/v1/registry/admin", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestInitializeDefaultsToCaller() {
	resp := s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp = s.request(http.MethodGet, "/v1/registry/admin", "alice", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var body map[string]string
	s.decode(resp, &body)
	s.Equal("alice", body["admin"])
}

func (s *HandlerSuite) TestInitializeTwiceConflicts() {
	resp := s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp = s.request(http.MethodPost, "/v1/registry/initialize", "bob", map[string]any{})
	s.Equal(http.StatusConflict, resp.StatusCode)
	var body map[string]string
	s.decode(resp, &body)
	s.Equal("already_initialized", body["error"])
}

func (s *HandlerSuite) TestAttestorFlow() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})

	resp := s.request(http.MethodPost, "/v1/attestors", "alice", map[string]any{"attestor": "bob"})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp = s.request(http.MethodGet, "/v1/attestors/bob", "alice", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var status map[string]any
	s.decode(resp, &status)
	s.Equal(true, status["registered"])

	resp = s.request(http.MethodDelete, "/v1/attestors/bob", "alice", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.request(http.MethodGet, "/v1/attestors/bob", "alice", nil)
	s.decode(resp, &status)
	s.Equal(false, status["registered"])
}

func (s *HandlerSuite) TestAddAttestorForbiddenForNonAdmin() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})

	resp := s.request(http.MethodPost, "/v1/attestors", "mallory", map[string]any{"attestor": "mallory"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *HandlerSuite) TestRecordAndFetch() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})
	s.request(http.MethodPost, "/v1/attestors", "alice", map[string]any{"attestor": "bob"})

	resp := s.request(http.MethodPost, "/v1/attestations", "bob", recordBody("bob", 0x01))
	s.Equal(http.StatusCreated, resp.StatusCode)
	var att models.Attestation
	s.decode(resp, &att)
	s.Equal(uint64(0), att.ID)
	s.Equal(models.Identity("bob"), att.Issuer)

	resp = s.request(http.MethodGet, "/v1/attestations/0", "alice", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var got models.Attestation
	s.decode(resp, &got)
	s.Equal(att, got)
}

func (s *HandlerSuite) TestRecordReplayConflicts() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})
	s.request(http.MethodPost, "/v1/attestors", "alice", map[string]any{"attestor": "bob"})

	resp := s.request(http.MethodPost, "/v1/attestations", "bob", recordBody("bob", 0x02))
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp = s.request(http.MethodPost, "/v1/attestations", "bob", recordBody("bob", 0x02))
	s.Equal(http.StatusConflict, resp.StatusCode)
	var body map[string]string
	s.decode(resp, &body)
	s.Equal("replay_attack", body["error"])
}

func (s *HandlerSuite) TestRecordMalformedHash() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})
	s.request(http.MethodPost, "/v1/attestors", "alice", map[string]any{"attestor": "bob"})

	body := recordBody("bob", 0x03)
	body["payload_hash"] = "abcd"
	resp := s.request(http.MethodPost, "/v1/attestations", "bob", body)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var envelope map[string]string
	s.decode(resp, &envelope)
	s.Equal("invalid_hash", envelope["error"])
}

func (s *HandlerSuite) TestGetUnknownAttestation() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})

	resp := s.request(http.MethodGet, "/v1/attestations/99", "alice", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestTransferAdmin() {
	s.request(http.MethodPost, "/v1/registry/initialize", "alice", map[string]any{})

	resp := s.request(http.MethodPost, "/v1/registry/admin/transfer", "alice", map[string]any{"new_admin": "carol"})
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.request(http.MethodGet, "/v1/registry/admin", "alice", nil)
	var body map[string]string
	s.decode(resp, &body)
	s.Equal("carol", body["admin"])
}
