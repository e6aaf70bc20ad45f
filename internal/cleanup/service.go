// Package cleanup executes multi-entity deletions as single atomic units.
// Each cascade collects every dependent row first and sweeps them in
// dependency order, so a user with many pipelines or an issuer with many
// credentials is handled in full, never one row at a time.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"credtrust/internal/audit"
	"credtrust/internal/did"
	"credtrust/internal/platform/metrics"
	"credtrust/internal/team"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

// AuditPublisher emits audit events for cascade operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor sets the audit publisher for the service.
func WithAuditor(a AuditPublisher) Option {
	return func(s *Service) { s.auditor = a }
}

// Service coordinates cascade deletions.
type Service struct {
	tx      Tx
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(tx Tx, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// DeleteIssuer removes an issuer and resets every credential that references
// it. Admin only. After completion no credential references the issuer and no
// VERIFIED credential survives the loss of its signer.
func (s *Service) DeleteIssuer(ctx context.Context, principal id.Principal, issuerID id.IssuerID) error {
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if issuerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "issuer ID is required")
	}

	var resetCount int
	err := s.tx.RunInTx(ctx, func(stores Stores) error {
		if _, err := stores.Issuers.FindByID(ctx, issuerID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "issuer not found")
			}
			return err
		}
		var err error
		resetCount, err = resetIssuerCredentials(ctx, stores, issuerID)
		if err != nil {
			return err
		}
		return stores.Issuers.Delete(ctx, issuerID)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "issuer cascade failed")
	}

	s.record(ctx, principal, audit.EventIssuerDeleted, "issuer", issuerID.String(),
		fmt.Sprintf("credentials_reset=%d", resetCount))
	return nil
}

// DeleteUser removes a user and everything hanging off them: activity log,
// owned pipelines with their memberships, candidate profile with quiz
// attempts and credentials, owned issuer with its credential cascade, team
// memberships, and any now-empty team they created. One atomic unit; after
// completion no entity references the user.
func (s *Service) DeleteUser(ctx context.Context, principal id.Principal, userID id.UserID) error {
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "user ID is required")
	}

	err := s.tx.RunInTx(ctx, func(stores Stores) error {
		if _, err := stores.Users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return err
		}

		if err := stores.Activity.DeleteByUser(ctx, userID); err != nil {
			return err
		}

		// Collect every owned pipeline id up front, then sweep them in bulk.
		pipelines, err := stores.Pipelines.ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		pipelineIDs := make([]id.PipelineID, len(pipelines))
		for i, pipeline := range pipelines {
			pipelineIDs[i] = pipeline.ID
		}
		if _, err := stores.Pipelines.DeleteAll(ctx, pipelineIDs); err != nil {
			return err
		}

		candidate, err := stores.Candidates.FindByUser(ctx, userID)
		switch {
		case err == nil:
			if err := stores.Quizzes.DeleteByCandidate(ctx, candidate.ID); err != nil {
				return err
			}
			if err := stores.Pipelines.RemoveCandidate(ctx, candidate.ID); err != nil {
				return err
			}
			if err := stores.Credentials.DeleteByCandidate(ctx, candidate.ID); err != nil {
				return err
			}
			if err := stores.Candidates.Delete(ctx, candidate.ID); err != nil {
				return err
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		owned, err := stores.Issuers.FindByOwner(ctx, userID)
		switch {
		case err == nil:
			if _, err := resetIssuerCredentials(ctx, stores, owned.ID); err != nil {
				return err
			}
			if err := stores.Issuers.Delete(ctx, owned.ID); err != nil {
				return err
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		if err := stores.Teams.RemoveMembershipsByUser(ctx, userID); err != nil {
			return err
		}

		created, err := stores.Teams.TeamsCreatedBy(ctx, userID)
		if err != nil {
			return err
		}
		for _, createdTeam := range created {
			count, err := stores.Teams.MemberCount(ctx, createdTeam.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := deleteTeamDID(ctx, stores, createdTeam.ID); err != nil {
				return err
			}
			if err := stores.Teams.DeleteTeam(ctx, createdTeam.ID); err != nil {
				return err
			}
		}

		return stores.Users.Delete(ctx, userID)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "user cascade failed")
	}

	s.record(ctx, principal, audit.EventUserDeleted, "user", userID.String(), "")
	return nil
}

// RemoveTeamMember removes one membership and falls the user back to their
// personal team when that was their last one. A user is never left with zero
// memberships.
func (s *Service) RemoveTeamMember(ctx context.Context, principal id.Principal, teamID id.TeamID, userID id.UserID) error {
	if teamID.IsNil() || userID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "team ID and user ID are required")
	}

	err := s.tx.RunInTx(ctx, func(stores Stores) error {
		if !principal.IsAdmin() {
			role, err := stores.Teams.RoleOf(ctx, teamID, principal.UserID)
			if err != nil || role != team.RoleOwner {
				return dErrors.New(dErrors.CodeForbidden, "team owner role required")
			}
		}

		if err := stores.Teams.RemoveMembership(ctx, teamID, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "membership not found")
			}
			return err
		}

		remaining, err := stores.Teams.MembershipsByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			return nil
		}

		personal, err := stores.Teams.FindPersonalTeam(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		return stores.Teams.AddMembership(ctx, team.Membership{
			TeamID:   personal.ID,
			UserID:   userID,
			Role:     team.RoleOwner,
			JoinedAt: s.now(),
		})
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeForbidden) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "member removal failed")
	}

	s.record(ctx, principal, audit.EventTeamMemberRemoved, "team", teamID.String(), userID.String())
	return nil
}

// resetIssuerCredentials clears the issuer reference from every credential
// that names it and drops the issuer's DID assignment. Returns how many
// credentials were reset.
func resetIssuerCredentials(ctx context.Context, stores Stores, issuerID id.IssuerID) (int, error) {
	count, err := stores.Credentials.ResetByIssuer(ctx, issuerID)
	if err != nil {
		return 0, err
	}
	err = stores.DIDs.DeleteByOwner(ctx, did.OwnerIssuer, uuid.UUID(issuerID))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, err
	}
	return count, nil
}

func deleteTeamDID(ctx context.Context, stores Stores, teamID id.TeamID) error {
	err := stores.DIDs.DeleteByOwner(ctx, did.OwnerTeam, uuid.UUID(teamID))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) record(ctx context.Context, principal id.Principal, action audit.AuditEvent, entity, entityID, detail string) {
	if s.metrics != nil {
		s.metrics.CascadeDeletes.WithLabelValues(entity).Inc()
	}
	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			ActorID:  principal.UserID.String(),
			Action:   string(action),
			EntityID: entityID,
			Detail:   detail,
		})
		if err != nil && s.logger != nil {
			s.logger.Error("failed to emit cascade audit event", "error", err, "action", string(action))
		}
	}
}
