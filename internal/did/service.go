package did

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"credtrust/internal/audit"
	"credtrust/internal/issuer"
	"credtrust/internal/platform/metrics"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

// Minter obtains fresh DIDs from the external trust network when the caller
// does not supply one.
type Minter interface {
	CreateDID(ctx context.Context) (string, error)
}

// TeamRoles exposes the membership role lookup needed for owner checks.
type TeamRoles interface {
	RoleOf(ctx context.Context, teamID id.TeamID, userID id.UserID) (string, error)
}

// AuditPublisher emits audit events for DID assignments.
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

// Service manages the one-time binding of DIDs to teams and issuers, and the
// admin-mutable platform DID singleton.
type Service struct {
	store   Store
	issuers issuer.Store
	teams   TeamRoles
	minter  Minter
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, issuers issuer.Store, teams TeamRoles, minter Minter, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		issuers: issuers,
		teams:   teams,
		minter:  minter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// AssignTeamDID binds a DID to a team exactly once. Only the team owner may
// assign. An empty did mints a fresh one from the trust network.
func (s *Service) AssignTeamDID(ctx context.Context, principal id.Principal, teamID id.TeamID, did string) (string, error) {
	if teamID.IsNil() {
		return "", dErrors.New(dErrors.CodeBadRequest, "team ID required")
	}

	role, err := s.teams.RoleOf(ctx, teamID, principal.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeForbidden, "caller is not a member of this team")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check team role")
	}
	if role != "owner" {
		return "", dErrors.New(dErrors.CodeForbidden, "team owner role required")
	}

	// Fail fast before minting: a network round-trip for a team that already
	// holds a DID would leave an unused identifier on the network.
	if _, err := s.store.Find(ctx, OwnerTeam, uuid.UUID(teamID)); err == nil {
		return "", dErrors.New(dErrors.CodeConflict, "team already has a DID assigned")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing DID")
	}

	if did == "" {
		did, err = s.minter.CreateDID(ctx)
		if err != nil {
			return "", err
		}
	}

	assignment := Assignment{
		OwnerType:  OwnerTeam,
		OwnerID:    uuid.UUID(teamID),
		DID:        did,
		AssignedBy: principal.UserID,
		AssignedAt: time.Now(),
	}
	if err := s.store.Create(ctx, assignment); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeConflict, "team already has a DID assigned")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist DID assignment")
	}

	s.recordAssignment(ctx, principal, OwnerTeam, teamID.String())
	return did, nil
}

// AssignIssuerDID binds a DID to an issuer exactly once. First assignment is
// the activation signal for self-service issuers: the issuer flips to ACTIVE.
func (s *Service) AssignIssuerDID(ctx context.Context, principal id.Principal, issuerID id.IssuerID, did string) (string, error) {
	if issuerID.IsNil() {
		return "", dErrors.New(dErrors.CodeBadRequest, "issuer ID required")
	}
	record, err := s.issuers.FindByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup issuer")
	}
	if record.OwnerID != principal.UserID {
		return "", dErrors.New(dErrors.CodeForbidden, "caller does not own this issuer")
	}

	if _, err := s.store.Find(ctx, OwnerIssuer, uuid.UUID(issuerID)); err == nil {
		return "", dErrors.New(dErrors.CodeConflict, "issuer already has a DID assigned")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing DID")
	}

	if did == "" {
		did, err = s.minter.CreateDID(ctx)
		if err != nil {
			return "", err
		}
	}

	assignment := Assignment{
		OwnerType:  OwnerIssuer,
		OwnerID:    uuid.UUID(issuerID),
		DID:        did,
		AssignedBy: principal.UserID,
		AssignedAt: time.Now(),
	}
	if err := s.store.Create(ctx, assignment); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeConflict, "issuer already has a DID assigned")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist DID assignment")
	}

	// DID presence is the activation signal for self-service issuers.
	record.DID = did
	record.Status = issuer.StatusActive
	record.RejectionReason = ""
	if err := s.issuers.Update(ctx, record); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate issuer")
	}

	s.recordAssignment(ctx, principal, OwnerIssuer, issuerID.String())
	return did, nil
}

// SetPlatformDID overwrites the platform DID singleton. Admin only; no
// uniqueness check by design.
func (s *Service) SetPlatformDID(ctx context.Context, principal id.Principal, did string) error {
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if did == "" {
		return dErrors.New(dErrors.CodeValidation, "did is required")
	}

	assignment := Assignment{
		OwnerType:  OwnerPlatform,
		OwnerID:    PlatformOwnerID,
		DID:        did,
		AssignedBy: principal.UserID,
		AssignedAt: time.Now(),
	}
	if err := s.store.Upsert(ctx, assignment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set platform DID")
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			ActorID: principal.UserID.String(),
			Action:  string(audit.EventPlatformDIDChanged),
		})
	}
	return nil
}

// TeamDID returns the DID assigned to a team, or empty if none.
func (s *Service) TeamDID(ctx context.Context, teamID id.TeamID) (string, error) {
	assignment, err := s.store.Find(ctx, OwnerTeam, uuid.UUID(teamID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup team DID")
	}
	return assignment.DID, nil
}

// PlatformDID returns the current platform DID, or empty if unset.
func (s *Service) PlatformDID(ctx context.Context) (string, error) {
	assignment, err := s.store.Find(ctx, OwnerPlatform, PlatformOwnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup platform DID")
	}
	return assignment.DID, nil
}

func (s *Service) recordAssignment(ctx context.Context, principal id.Principal, ownerType OwnerType, entityID string) {
	if s.metrics != nil {
		s.metrics.DIDAssignments.WithLabelValues(string(ownerType)).Inc()
	}
	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			ActorID:  principal.UserID.String(),
			Action:   string(audit.EventDIDAssigned),
			EntityID: entityID,
			Detail:   string(ownerType),
		})
		if err != nil && s.logger != nil {
			s.logger.Error("failed to emit DID assignment audit event", "error", err)
		}
	}
}
