// Package handler is the thin HTTP dispatch layer. It authenticates the
// caller, unmarshals arguments, delegates to the service and translates
// domain errors; it holds no business logic of its own.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attestry/internal/attestation/models"
	"attestry/internal/attestation/service"
	"attestry/internal/platform/middleware"
	dErrors "attestry/pkg/domain-errors"
)

// Registry defines the operations the handler dispatches to.
type Registry interface {
	Initialize(ctx context.Context, admin models.Identity) error
	TransferAdmin(ctx context.Context, caller, newAdmin models.Identity) error
	AddAttestor(ctx context.Context, caller, attestor models.Identity) error
	RemoveAttestor(ctx context.Context, caller, attestor models.Identity) error
	Record(ctx context.Context, caller models.Identity, input service.RecordInput) (models.Attestation, error)
	GetAttestation(ctx context.Context, id uint64) (models.Attestation, error)
	GetAdmin(ctx context.Context) (models.Identity, error)
	IsAttestor(ctx context.Context, identity models.Identity) (bool, error)
}

// Handler handles the registry endpoints.
type Handler struct {
	registry  Registry
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New creates a registry Handler.
func New(registry Registry, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{
		registry:  registry,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the registry routes onto a chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.RequireAuth(h.validator, h.logger))

	router.Post("/registry/initialize", h.handleInitialize)
	router.Post("/registry/admin/transfer", h.handleTransferAdmin)
	router.Get("/registry/admin", h.handleGetAdmin)
	router.Post("/attestors", h.handleAddAttestor)
	router.Delete("/attestors/{identity}", h.handleRemoveAttestor)
	router.Get("/attestors/{identity}", h.handleIsAttestor)
	router.Post("/attestations", h.handleRecord)
	router.Get("/attestations/{id}", h.handleGetAttestation)

	r.Mount("/v1", router)
}

type initializeRequest struct {
	Admin string `json:"admin"`
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	admin := models.Identity(req.Admin)
	if admin.IsZero() {
		// Callers may bootstrap themselves as admin.
		admin = models.Identity(middleware.GetIdentity(ctx))
	}
	if err := h.registry.Initialize(ctx, admin); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"admin": string(admin)})
}

type transferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := models.Identity(middleware.GetIdentity(ctx))
	var req transferAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewAdmin == "" {
		writeBadRequest(w, "invalid request body")
		return
	}
	if err := h.registry.TransferAdmin(ctx, caller, models.Identity(req.NewAdmin)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, err := h.registry.GetAdmin(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": string(admin)})
}

type addAttestorRequest struct {
	Attestor string `json:"attestor"`
}

func (h *Handler) handleAddAttestor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := models.Identity(middleware.GetIdentity(ctx))
	var req addAttestorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Attestor == "" {
		writeBadRequest(w, "invalid request body")
		return
	}
	if err := h.registry.AddAttestor(ctx, caller, models.Identity(req.Attestor)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleRemoveAttestor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := models.Identity(middleware.GetIdentity(ctx))
	attestor := models.Identity(chi.URLParam(r, "identity"))
	if err := h.registry.RemoveAttestor(ctx, caller, attestor); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleIsAttestor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := models.Identity(chi.URLParam(r, "identity"))
	registered, err := h.registry.IsAttestor(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attestor":   string(identity),
		"registered": registered,
	})
}

type recordRequest struct {
	Issuer      string `json:"issuer"`
	Subject     string `json:"subject"`
	Timestamp   uint64 `json:"timestamp"`
	PayloadHash string `json:"payload_hash"` // hex, 64 chars
	Signature   string `json:"signature"`    // base64
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := models.Identity(middleware.GetIdentity(ctx))
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	hash, err := models.HashFromHex(req.PayloadHash)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		writeBadRequest(w, "signature is not valid base64")
		return
	}

	att, err := h.registry.Record(ctx, caller, service.RecordInput{
		Issuer:      models.Identity(req.Issuer),
		Subject:     models.Identity(req.Subject),
		Timestamp:   req.Timestamp,
		PayloadHash: hash[:],
		Signature:   signature,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

func (h *Handler) handleGetAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "attestation id must be an unsigned integer")
		return
	}
	att, err := h.registry.GetAttestation(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

// writeError translates domain errors into the JSON error envelope. Anything
// without a code is an internal failure and its detail stays out of the
// response.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if code == 0 {
		h.logger.ErrorContext(ctx, "internal error",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             code.String(),
		"error_description": err.Error(),
	})
}

func writeBadRequest(w http.ResponseWriter, description string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":             "bad_request",
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
