package issuer

import (
	"context"

	id "credtrust/pkg/domain"
)

// Store persists issuer organizations.
//
// Error Contract:
// - FindByID and FindByOwner return sentinel.ErrNotFound when no record exists
// - Update returns sentinel.ErrNotFound when the issuer is missing
type Store interface {
	Create(ctx context.Context, issuer *Issuer) error
	FindByID(ctx context.Context, issuerID id.IssuerID) (*Issuer, error)
	FindByOwner(ctx context.Context, ownerID id.UserID) (*Issuer, error)
	Update(ctx context.Context, issuer *Issuer) error
	Delete(ctx context.Context, issuerID id.IssuerID) error
}
