package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credtrust/internal/did"
	"credtrust/internal/platform/middleware"
	"credtrust/internal/transport/http/shared"
	sharedjson "credtrust/internal/transport/http/shared/json"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

type assignDIDRequest struct {
	// DID is optional; empty means mint a fresh one on the trust network.
	DID string `json:"did,omitempty"`
}

type didResponse struct {
	DID string `json:"did"`
}

// DIDHandler serves DID registry endpoints.
type DIDHandler struct {
	service *did.Service
	logger  *slog.Logger
}

func NewDIDHandler(service *did.Service, logger *slog.Logger) *DIDHandler {
	return &DIDHandler{service: service, logger: logger}
}

// Register mounts DID routes on an authenticated router.
func (h *DIDHandler) Register(r chi.Router) {
	r.Post("/teams/{teamID}/did", h.handleAssignTeamDID)
	r.Get("/teams/{teamID}/did", h.handleGetTeamDID)
	r.Post("/issuers/{issuerID}/did", h.handleAssignIssuerDID)
	r.Get("/platform/did", h.handleGetPlatformDID)
}

// RegisterAdmin mounts the platform DID mutation behind the admin gate.
func (h *DIDHandler) RegisterAdmin(r chi.Router) {
	r.Put("/platform/did", h.handleSetPlatformDID)
}

func (h *DIDHandler) handleAssignTeamDID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req assignDIDRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	assigned, err := h.service.AssignTeamDID(ctx, principal, teamID, req.DID)
	if err != nil {
		h.logger.WarnContext(ctx, "team DID assignment failed",
			"team_id", teamID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, didResponse{DID: assigned})
}

func (h *DIDHandler) handleGetTeamDID(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	assigned, err := h.service.TeamDID(r.Context(), teamID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if assigned == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "team has no DID assigned"))
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, didResponse{DID: assigned})
}

func (h *DIDHandler) handleAssignIssuerDID(w http.ResponseWriter, r *http.Request) {
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

	var req assignDIDRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	assigned, err := h.service.AssignIssuerDID(ctx, principal, issuerID, req.DID)
	if err != nil {
		h.logger.WarnContext(ctx, "issuer DID assignment failed",
			"issuer_id", issuerID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, didResponse{DID: assigned})
}

func (h *DIDHandler) handleGetPlatformDID(w http.ResponseWriter, r *http.Request) {
	assigned, err := h.service.PlatformDID(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if assigned == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "platform DID not set"))
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, didResponse{DID: assigned})
}

func (h *DIDHandler) handleSetPlatformDID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req assignDIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.SetPlatformDID(ctx, principal, req.DID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
