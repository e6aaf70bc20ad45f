// Package service is the credential lifecycle coordinator. All transition
// legality, authorization and precondition checks live here; the store beneath
// it is pure persistence.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"credtrust/internal/audit"
	"credtrust/internal/credential/models"
	"credtrust/internal/credential/store"
	"credtrust/internal/issuer"
	"credtrust/internal/platform/metrics"
	"credtrust/internal/storage"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Gateway is the external trust network surface the coordinator needs.
// Issuance is not idempotent on the network side; callers must check for an
// existing payload before calling IssueCredential.
type Gateway interface {
	IssueCredential(ctx context.Context, issuerDID, subjectDID string, attributes map[string]any, credentialType string) (json.RawMessage, error)
	VerifyCredential(ctx context.Context, payload json.RawMessage) bool
}

// Tx runs fn as one atomic unit against a credential store bound to the
// transaction. The credential ID keys row-level serialization for the
// in-memory implementation; the PostgreSQL implementation relies on the
// database's own isolation and ignores it.
type Tx interface {
	RunInTx(ctx context.Context, credentialID id.CredentialID, fn func(store.Store) error) error
}

// Candidates resolves the candidate a credential belongs to.
type Candidates interface {
	FindByID(ctx context.Context, candidateID id.CandidateID) (*storage.Candidate, error)
}

// TeamDIDs resolves the DID assigned to a team, empty when unassigned.
type TeamDIDs interface {
	TeamDID(ctx context.Context, teamID id.TeamID) (string, error)
}

// Issuers resolves issuer records for linkage and ownership checks.
type Issuers interface {
	FindByID(ctx context.Context, issuerID id.IssuerID) (*issuer.Issuer, error)
}

// AuditPublisher emits audit events for lifecycle actions.
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

// Service orchestrates credential lifecycle transitions.
type Service struct {
	store      store.Store
	tx         Tx
	candidates Candidates
	issuers    Issuers
	teamDIDs   TeamDIDs
	gateway    Gateway
	auditor    AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	credStore store.Store,
	tx Tx,
	candidates Candidates,
	issuers Issuers,
	teamDIDs TeamDIDs,
	gateway Gateway,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	svc := &Service{
		store:      credStore,
		tx:         tx,
		candidates: candidates,
		issuers:    issuers,
		teamDIDs:   teamDIDs,
		gateway:    gateway,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SubmitRequest carries a candidate's new claim.
type SubmitRequest struct {
	CandidateID id.CandidateID
	Category    models.Category
	Title       string
	SubType     string
	FileRef     string
	IssuerID    *id.IssuerID
}

// Submit creates a credential for a candidate. Naming an issuer routes the
// claim into the PENDING review queue and requires the issuer to be ACTIVE
// and the candidate's team to hold a DID; a self-asserted claim starts
// UNVERIFIED with no preconditions.
func (s *Service) Submit(ctx context.Context, principal id.Principal, req SubmitRequest) (*models.Credential, error) {
	if req.CandidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate ID is required")
	}
	if !req.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown credential category")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}

	candidate, err := s.candidates.FindByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup candidate")
	}
	if candidate.UserID != principal.UserID && !principal.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller does not own this candidate profile")
	}

	status := models.StatusUnverified
	if req.IssuerID != nil && !req.IssuerID.IsNil() {
		record, err := s.issuers.FindByID(ctx, *req.IssuerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup issuer")
		}
		if !record.CanSign() {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "issuer not active")
		}

		teamDID, err := s.teamDIDs.TeamDID(ctx, candidate.TeamID)
		if err != nil {
			return nil, err
		}
		if teamDID == "" {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "candidate's team has no DID assigned")
		}
		status = models.StatusPending
	} else {
		req.IssuerID = nil
	}

	credential := &models.Credential{
		ID:          id.NewCredentialID(),
		CandidateID: req.CandidateID,
		Category:    req.Category,
		Title:       strings.TrimSpace(req.Title),
		SubType:     req.SubType,
		FileRef:     req.FileRef,
		IssuerID:    req.IssuerID,
		Status:      status,
		Verified:    false,
		CreatedAt:   s.now(),
	}
	if err := s.store.Create(ctx, credential); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential")
	}

	s.emit(ctx, principal, audit.EventCredentialSubmitted, credential.ID, string(status))
	s.countTransition("submit", "success")
	return credential, nil
}

// Get returns one credential, readable by its candidate's user, the linked
// issuer's owner, recruiters and admins.
func (s *Service) Get(ctx context.Context, principal id.Principal, credentialID id.CredentialID) (*models.Credential, error) {
	credential, err := s.fetch(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, principal, credential); err != nil {
		return nil, err
	}
	return credential, nil
}

// List returns a candidate's credentials, filtered, sorted and paged.
func (s *Service) List(ctx context.Context, principal id.Principal, candidateID id.CandidateID, filter *models.ListFilter) ([]*models.Credential, error) {
	if candidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate ID is required")
	}

	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup candidate")
	}
	if candidate.UserID != principal.UserID && !principal.IsAdmin() && principal.Role != id.RoleRecruiter {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to read this candidate's credentials")
	}

	if filter == nil {
		filter = &models.ListFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.SortBy == "" {
		filter.SortBy = models.SortByCreatedAt
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown credential category")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown credential status")
	}

	credentials, err := s.store.ListByCandidate(ctx, candidateID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return credentials, nil
}

func (s *Service) fetch(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	if credentialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "credential ID is required")
	}
	credential, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup credential")
	}
	return credential, nil
}

func (s *Service) authorizeRead(ctx context.Context, principal id.Principal, credential *models.Credential) error {
	if principal.IsAdmin() || principal.Role == id.RoleRecruiter {
		return nil
	}
	candidate, err := s.candidates.FindByID(ctx, credential.CandidateID)
	if err == nil && candidate.UserID == principal.UserID {
		return nil
	}
	if credential.HasIssuer() {
		record, err := s.issuers.FindByID(ctx, *credential.IssuerID)
		if err == nil && record.OwnerID == principal.UserID {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "not allowed to read this credential")
}

// linkedIssuerOwned loads the credential's issuer and verifies the principal
// owns it. Every review transition runs through this gate.
func (s *Service) linkedIssuerOwned(ctx context.Context, principal id.Principal, credential *models.Credential) (*issuer.Issuer, error) {
	if !credential.HasIssuer() {
		return nil, dErrors.New(dErrors.CodeFailedPrecondition, "credential has no linked issuer")
	}
	record, err := s.issuers.FindByID(ctx, *credential.IssuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "linked issuer no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup issuer")
	}
	if record.OwnerID != principal.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller does not own the linked issuer")
	}
	return record, nil
}

func (s *Service) emit(ctx context.Context, principal id.Principal, action audit.AuditEvent, credentialID id.CredentialID, detail string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		ActorID:      principal.UserID.String(),
		Action:       string(action),
		CredentialID: credentialID.String(),
		Detail:       detail,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to emit lifecycle audit event",
			"error", err,
			"action", string(action),
			"credential_id", credentialID.String(),
		)
	}
}

func (s *Service) countTransition(transition, outcome string) {
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(transition, outcome).Inc()
	}
}
