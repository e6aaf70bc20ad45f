package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credtrust/internal/cleanup"
	"credtrust/internal/platform/middleware"
	"credtrust/internal/transport/http/shared"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

// CleanupHandler serves the cascade deletion endpoints.
type CleanupHandler struct {
	service *cleanup.Service
	logger  *slog.Logger
}

func NewCleanupHandler(service *cleanup.Service, logger *slog.Logger) *CleanupHandler {
	return &CleanupHandler{service: service, logger: logger}
}

// RegisterAdmin mounts the admin-only cascades.
func (h *CleanupHandler) RegisterAdmin(r chi.Router) {
	r.Delete("/users/{userID}", h.handleDeleteUser)
	r.Delete("/issuers/{issuerID}", h.handleDeleteIssuer)
}

// Register mounts member removal, which team owners may call themselves.
func (h *CleanupHandler) Register(r chi.Router) {
	r.Delete("/teams/{teamID}/members/{userID}", h.handleRemoveMember)
}

func (h *CleanupHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.DeleteUser(ctx, principal, userID); err != nil {
		h.logger.WarnContext(ctx, "user cascade failed",
			"user_id", userID.String(),
			"device", middleware.GetDevice(ctx),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CleanupHandler) handleDeleteIssuer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteIssuer(ctx, principal, issuerID); err != nil {
		h.logger.WarnContext(ctx, "issuer cascade failed",
			"issuer_id", issuerID.String(),
			"device", middleware.GetDevice(ctx),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CleanupHandler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
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
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.RemoveTeamMember(ctx, principal, teamID, userID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
