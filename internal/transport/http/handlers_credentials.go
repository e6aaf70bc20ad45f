package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credtrust/internal/credential/models"
	credservice "credtrust/internal/credential/service"
	"credtrust/internal/platform/middleware"
	"credtrust/internal/transport/http/shared"
	sharedjson "credtrust/internal/transport/http/shared/json"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

type submitCredentialRequest struct {
	CandidateID string `json:"candidate_id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	SubType     string `json:"sub_type,omitempty"`
	FileRef     string `json:"file_ref,omitempty"`
	IssuerID    string `json:"issuer_id,omitempty"`
}

type approveCredentialRequest struct {
	Attributes map[string]any `json:"attributes,omitempty"`
}

type rejectCredentialRequest struct {
	Reason string `json:"reason,omitempty"`
}

type credentialResponse struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Title      string          `json:"title"`
	SubType    string          `json:"sub_type,omitempty"`
	FileRef    string          `json:"file_ref,omitempty"`
	IssuerID   string          `json:"issuer_id,omitempty"`
	Status     string          `json:"status"`
	Verified   bool            `json:"verified"`
	VCPayload  json.RawMessage `json:"vc_payload,omitempty"`
	VerifiedAt string          `json:"verified_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

func toCredentialResponse(c *models.Credential) credentialResponse {
	resp := credentialResponse{
		ID:        c.ID.String(),
		Category:  string(c.Category),
		Title:     c.Title,
		SubType:   c.SubType,
		FileRef:   c.FileRef,
		Status:    string(c.Status),
		Verified:  c.Verified,
		VCPayload: c.VCPayload,
		CreatedAt: c.CreatedAt.Format(timeFormat),
	}
	if c.HasIssuer() {
		resp.IssuerID = c.IssuerID.String()
	}
	if c.VerifiedAt != nil {
		resp.VerifiedAt = c.VerifiedAt.Format(timeFormat)
	}
	return resp
}

// CredentialHandler serves the credential lifecycle endpoints.
type CredentialHandler struct {
	service *credservice.Service
	logger  *slog.Logger
}

func NewCredentialHandler(service *credservice.Service, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{service: service, logger: logger}
}

// Register mounts credential routes on an authenticated router.
func (h *CredentialHandler) Register(r chi.Router) {
	r.Post("/credentials", h.handleSubmit)
	r.Get("/credentials/{credentialID}", h.handleGet)
	r.Post("/credentials/{credentialID}/approve", h.handleApprove)
	r.Post("/credentials/{credentialID}/reject", h.handleReject)
	r.Post("/credentials/{credentialID}/unverify", h.handleUnverify)
	r.Get("/candidates/{candidateID}/credentials", h.handleList)
	r.Post("/candidates/{candidateID}/credentials/verify", h.handleVerifyPortfolio)
}

func (h *CredentialHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req submitCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	candidateID, err := id.ParseCandidateID(req.CandidateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	submit := credservice.SubmitRequest{
		CandidateID: candidateID,
		Category:    models.Category(req.Category),
		Title:       req.Title,
		SubType:     req.SubType,
		FileRef:     req.FileRef,
	}
	if req.IssuerID != "" {
		issuerID, err := id.ParseIssuerID(req.IssuerID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		submit.IssuerID = &issuerID
	}

	credential, err := h.service.Submit(ctx, principal, submit)
	if err != nil {
		h.logFailure(r, "submit", err)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toCredentialResponse(credential))
}

func (h *CredentialHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	credential, err := h.service.Get(ctx, principal, credentialID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *CredentialHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req approveCredentialRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	credential, err := h.service.Approve(ctx, principal, credentialID, req.Attributes)
	if err != nil {
		h.logFailure(r, "approve", err)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *CredentialHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req rejectCredentialRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	credential, err := h.service.Reject(ctx, principal, credentialID, req.Reason)
	if err != nil {
		h.logFailure(r, "reject", err)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *CredentialHandler) handleUnverify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	credential, err := h.service.Unverify(ctx, principal, credentialID)
	if err != nil {
		h.logFailure(r, "unverify", err)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *CredentialHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	credentials, err := h.service.List(ctx, principal, candidateID, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]credentialResponse, len(credentials))
	for i, credential := range credentials {
		out[i] = toCredentialResponse(credential)
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"credentials": out})
}

func (h *CredentialHandler) handleVerifyPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	checks, err := h.service.VerifyPortfolio(ctx, principal, candidateID)
	if err != nil {
		h.logFailure(r, "verify_portfolio", err)
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"results": checks})
}

func (h *CredentialHandler) logFailure(r *http.Request, operation string, err error) {
	h.logger.WarnContext(r.Context(), "credential operation failed",
		"operation", operation,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
