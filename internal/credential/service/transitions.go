package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"credtrust/internal/audit"
	"credtrust/internal/credential/models"
	"credtrust/internal/credential/store"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

// approvableFrom lists the states Approve accepts as a source. VERIFIED is
// excluded: re-approving a verified credential is a no-op request, not a
// transition.
var approvableFrom = map[models.Status]bool{
	models.StatusPending:    true,
	models.StatusRejected:   true,
	models.StatusUnverified: true,
}

// Approve verifies a credential as the linked issuer's owner and stores the
// signed payload from the trust network.
//
// The network call cannot join the database transaction, so this runs as a
// two-phase unit: issue first (skipped when a payload already exists), then
// persist inside a transaction that re-validates the credential state. A
// persistence failure after a fresh issuance leaves a signed artifact with no
// local record; that mismatch is audited and counted, never silently dropped.
func (s *Service) Approve(ctx context.Context, principal id.Principal, credentialID id.CredentialID, attributes map[string]any) (*models.Credential, error) {
	ctx, span := otel.Tracer("credtrust/credential").Start(ctx, "lifecycle.Approve")
	span.SetAttributes(attribute.String("credential_id", credentialID.String()))
	defer span.End()

	credential, err := s.fetch(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	issuerRecord, err := s.linkedIssuerOwned(ctx, principal, credential)
	if err != nil {
		s.countTransition("approve", "denied")
		return nil, err
	}

	if !approvableFrom[credential.Status] {
		s.countTransition("approve", "precondition_failed")
		return nil, dErrors.New(dErrors.CodeFailedPrecondition, "credential is already verified")
	}
	if issuerRecord.DID == "" {
		s.countTransition("approve", "precondition_failed")
		return nil, dErrors.New(dErrors.CodeFailedPrecondition, "issuer has no DID assigned")
	}

	candidate, err := s.candidates.FindByID(ctx, credential.CandidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "candidate no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup candidate")
	}
	subjectDID, err := s.teamDIDs.TeamDID(ctx, candidate.TeamID)
	if err != nil {
		return nil, err
	}
	if subjectDID == "" {
		s.countTransition("approve", "precondition_failed")
		return nil, dErrors.New(dErrors.CodeFailedPrecondition, "candidate's team has no DID assigned")
	}

	// Phase one: obtain a signed payload. An existing payload is reused as-is
	// so a repeated Approve never produces a second network artifact.
	var issued json.RawMessage
	if credential.HasPayload() {
		s.emit(ctx, principal, audit.EventPayloadReused, credential.ID, "")
	} else {
		issued, err = s.issue(ctx, issuerRecord.DID, subjectDID, attributes, credential)
		if err != nil {
			s.countTransition("approve", "issuance_failed")
			return nil, err
		}
	}

	// Phase two: persist. Re-fetch inside the transaction so a concurrent
	// transition on the same credential cannot be overwritten blindly.
	now := s.now()
	err = s.tx.RunInTx(ctx, credential.ID, func(txStore store.Store) error {
		current, err := txStore.FindByID(ctx, credential.ID)
		if err != nil {
			return err
		}
		if !approvableFrom[current.Status] {
			return dErrors.New(dErrors.CodeFailedPrecondition, "credential is already verified")
		}
		if !current.HasIssuer() || *current.IssuerID != issuerRecord.ID {
			return dErrors.New(dErrors.CodeFailedPrecondition, "issuer linkage changed during approval")
		}
		return txStore.UpdateStatus(ctx, credential.ID, models.StatusChange{
			Status:     models.StatusVerified,
			VerifiedAt: &now,
			VCPayload:  issued,
		})
	})
	if err != nil {
		if len(issued) > 0 {
			s.reportOrphanedIssuance(ctx, principal, credential.ID, err)
		}
		s.countTransition("approve", "persist_failed")
		if dErrors.HasCode(err, dErrors.CodeFailedPrecondition) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist approval")
	}

	s.emit(ctx, principal, audit.EventCredentialApproved, credential.ID, "")
	s.countTransition("approve", "success")
	return s.fetch(ctx, credential.ID)
}

// Reject marks a credential REJECTED. Allowed from any state by the linked
// issuer's owner.
func (s *Service) Reject(ctx context.Context, principal id.Principal, credentialID id.CredentialID, reason string) (*models.Credential, error) {
	credential, err := s.fetch(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if _, err := s.linkedIssuerOwned(ctx, principal, credential); err != nil {
		s.countTransition("reject", "denied")
		return nil, err
	}

	now := s.now()
	err = s.tx.RunInTx(ctx, credential.ID, func(txStore store.Store) error {
		return txStore.UpdateStatus(ctx, credential.ID, models.StatusChange{
			Status:     models.StatusRejected,
			VerifiedAt: &now,
		})
	})
	if err != nil {
		s.countTransition("reject", "persist_failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist rejection")
	}

	s.emit(ctx, principal, audit.EventCredentialRejected, credential.ID, reason)
	s.countTransition("reject", "success")
	return s.fetch(ctx, credential.ID)
}

// Unverify reverses a verification. Only VERIFIED credentials qualify. The
// stored payload is retained, so a later Approve reuses it without re-issuing.
func (s *Service) Unverify(ctx context.Context, principal id.Principal, credentialID id.CredentialID) (*models.Credential, error) {
	credential, err := s.fetch(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if _, err := s.linkedIssuerOwned(ctx, principal, credential); err != nil {
		s.countTransition("unverify", "denied")
		return nil, err
	}
	if credential.Status != models.StatusVerified {
		s.countTransition("unverify", "precondition_failed")
		return nil, dErrors.New(dErrors.CodeFailedPrecondition, "only verified credentials can be unverified")
	}

	err = s.tx.RunInTx(ctx, credential.ID, func(txStore store.Store) error {
		current, err := txStore.FindByID(ctx, credential.ID)
		if err != nil {
			return err
		}
		if current.Status != models.StatusVerified {
			return dErrors.New(dErrors.CodeFailedPrecondition, "only verified credentials can be unverified")
		}
		return txStore.UpdateStatus(ctx, credential.ID, models.StatusChange{
			Status:     models.StatusUnverified,
			VerifiedAt: nil,
		})
	})
	if err != nil {
		s.countTransition("unverify", "persist_failed")
		if dErrors.HasCode(err, dErrors.CodeFailedPrecondition) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist unverification")
	}

	s.emit(ctx, principal, audit.EventCredentialUnverified, credential.ID, "")
	s.countTransition("unverify", "success")
	return s.fetch(ctx, credential.ID)
}

func (s *Service) issue(ctx context.Context, issuerDID, subjectDID string, attributes map[string]any, credential *models.Credential) (json.RawMessage, error) {
	if attributes == nil {
		attributes = map[string]any{
			"title":    credential.Title,
			"category": string(credential.Category),
		}
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.IssuanceCalls.Inc()
	}
	payload, err := s.gateway.IssueCredential(ctx, issuerDID, subjectDID, attributes, string(credential.Category))
	if s.metrics != nil {
		s.metrics.IssuanceLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IssuanceFailures.Inc()
		}
		return nil, err
	}
	return payload, nil
}

func (s *Service) reportOrphanedIssuance(ctx context.Context, principal id.Principal, credentialID id.CredentialID, cause error) {
	if s.metrics != nil {
		s.metrics.IssuanceOrphaned.Inc()
	}
	if s.logger != nil {
		s.logger.Error("signed credential issued but not persisted",
			"credential_id", credentialID.String(),
			"error", cause,
		)
	}
	s.emit(ctx, principal, audit.EventIssuanceOrphaned, credentialID, cause.Error())
}
