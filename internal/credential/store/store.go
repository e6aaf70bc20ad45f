package store

import (
	"context"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// Error Contract:
// - FindByID returns sentinel.ErrNotFound when no record exists
// - UpdateStatus returns sentinel.ErrNotFound when the credential is missing
// - Other methods return nil on success or wrapped errors on infrastructure failure
var ErrNotFound = sentinel.ErrNotFound

// Store is pure persistence over the Credential entity. No business rules
// live here; transition legality is the coordinator's job. The one rule the
// store does own is the verified/status agreement: UpdateStatus derives the
// verified flag from the new status in the same write.
type Store interface {
	Create(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	ListByCandidate(ctx context.Context, candidateID id.CandidateID, filter *models.ListFilter) ([]*models.Credential, error)
	ListIDsByIssuer(ctx context.Context, issuerID id.IssuerID) ([]id.CredentialID, error)
	UpdateStatus(ctx context.Context, credentialID id.CredentialID, change models.StatusChange) error
	ResetByIssuer(ctx context.Context, issuerID id.IssuerID) (int, error)
	DeleteByCandidate(ctx context.Context, candidateID id.CandidateID) error
}
