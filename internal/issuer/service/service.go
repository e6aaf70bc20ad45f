package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"credtrust/internal/audit"
	"credtrust/internal/issuer"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

// AuditPublisher emits audit events for issuer lifecycle actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns issuer onboarding and admin review. Activation via DID
// assignment is handled by the DID registry; this service covers the manual
// review path and self-service resubmission.
type Service struct {
	store   issuer.Store
	auditor AuditPublisher
	logger  *slog.Logger
}

func NewService(store issuer.Store, auditor AuditPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// Register creates a PENDING issuer owned by the calling user. A user owns at
// most one issuer organization.
func (s *Service) Register(ctx context.Context, principal id.Principal, name string) (*issuer.Issuer, error) {
	if principal.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user context required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}

	if _, err := s.store.FindByOwner(ctx, principal.UserID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user already owns an issuer")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer ownership")
	}

	record := &issuer.Issuer{
		ID:        id.NewIssuerID(),
		OwnerID:   principal.UserID,
		Name:      name,
		Status:    issuer.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issuer")
	}
	return record, nil
}

// Approve activates an issuer after admin review. Approval requires the
// issuer to already hold a DID; without one it cannot sign credentials.
func (s *Service) Approve(ctx context.Context, principal id.Principal, issuerID id.IssuerID) error {
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	record, err := s.findIssuer(ctx, issuerID)
	if err != nil {
		return err
	}
	if record.DID == "" {
		return dErrors.New(dErrors.CodeFailedPrecondition, "issuer has no DID assigned")
	}

	record.Status = issuer.StatusActive
	record.RejectionReason = ""
	if err := s.store.Update(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer")
	}

	s.emitReview(ctx, principal, record, "approved")
	return nil
}

// Reject marks an issuer REJECTED with a reviewer-supplied reason.
func (s *Service) Reject(ctx context.Context, principal id.Principal, issuerID id.IssuerID, reason string) error {
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}

	record, err := s.findIssuer(ctx, issuerID)
	if err != nil {
		return err
	}

	record.Status = issuer.StatusRejected
	record.RejectionReason = reason
	if err := s.store.Update(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer")
	}

	s.emitReview(ctx, principal, record, "rejected")
	return nil
}

// Resubmit moves a REJECTED issuer back to PENDING for another review round.
// Only the owner may resubmit, and only from REJECTED.
func (s *Service) Resubmit(ctx context.Context, principal id.Principal, issuerID id.IssuerID) error {
	record, err := s.findIssuer(ctx, issuerID)
	if err != nil {
		return err
	}
	if record.OwnerID != principal.UserID {
		return dErrors.New(dErrors.CodeForbidden, "caller does not own this issuer")
	}
	if record.Status != issuer.StatusRejected {
		return dErrors.New(dErrors.CodeFailedPrecondition, "only rejected issuers can be resubmitted")
	}

	record.Status = issuer.StatusPending
	record.RejectionReason = ""
	if err := s.store.Update(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer")
	}
	return nil
}

func (s *Service) findIssuer(ctx context.Context, issuerID id.IssuerID) (*issuer.Issuer, error) {
	if issuerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issuer ID required")
	}
	record, err := s.store.FindByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup issuer")
	}
	return record, nil
}

func (s *Service) emitReview(ctx context.Context, principal id.Principal, record *issuer.Issuer, decision string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		ActorID:  principal.UserID.String(),
		Action:   string(audit.EventIssuerReviewed),
		EntityID: record.ID.String(),
		Detail:   decision,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to emit issuer review audit event", "error", err)
	}
}
