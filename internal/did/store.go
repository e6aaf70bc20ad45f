package did

import (
	"context"

	"github.com/google/uuid"
)

// Store persists DID assignments.
//
// Error Contract:
// - Find returns sentinel.ErrNotFound when no assignment exists
// - Create returns sentinel.ErrConflict when the owner already holds a DID
// - Upsert never conflicts; it exists for the platform singleton only
type Store interface {
	Create(ctx context.Context, assignment Assignment) error
	Upsert(ctx context.Context, assignment Assignment) error
	Find(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) (Assignment, error)
	DeleteByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) error
}
