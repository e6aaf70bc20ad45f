package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credtrust/internal/issuer"
	issuerservice "credtrust/internal/issuer/service"
	"credtrust/internal/platform/middleware"
	"credtrust/internal/transport/http/shared"
	sharedjson "credtrust/internal/transport/http/shared/json"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

type registerIssuerRequest struct {
	Name string `json:"name"`
}

type rejectIssuerRequest struct {
	Reason string `json:"reason"`
}

type issuerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	DID             string `json:"did,omitempty"`
}

func toIssuerResponse(record *issuer.Issuer) issuerResponse {
	return issuerResponse{
		ID:              record.ID.String(),
		Name:            record.Name,
		Status:          string(record.Status),
		RejectionReason: record.RejectionReason,
		DID:             record.DID,
	}
}

// IssuerHandler serves issuer onboarding and review endpoints.
type IssuerHandler struct {
	service *issuerservice.Service
	logger  *slog.Logger
}

func NewIssuerHandler(service *issuerservice.Service, logger *slog.Logger) *IssuerHandler {
	return &IssuerHandler{service: service, logger: logger}
}

// Register mounts self-service issuer routes on an authenticated router.
func (h *IssuerHandler) Register(r chi.Router) {
	r.Post("/issuers", h.handleRegister)
	r.Post("/issuers/{issuerID}/resubmit", h.handleResubmit)
}

// RegisterAdmin mounts review routes behind the admin gate.
func (h *IssuerHandler) RegisterAdmin(r chi.Router) {
	r.Post("/issuers/{issuerID}/approve", h.handleApprove)
	r.Post("/issuers/{issuerID}/reject", h.handleReject)
}

func (h *IssuerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req registerIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.service.Register(ctx, principal, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "issuer registration failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toIssuerResponse(record))
}

func (h *IssuerHandler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.Resubmit(ctx, principal, issuerID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IssuerHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.Approve(ctx, principal, issuerID); err != nil {
		h.logger.WarnContext(ctx, "issuer approval failed",
			"issuer_id", issuerID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IssuerHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req rejectIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.Reject(ctx, principal, issuerID, req.Reason); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
