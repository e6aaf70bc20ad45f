package did

import (
	"time"

	"github.com/google/uuid"

	id "credtrust/pkg/domain"
)

// OwnerType names the entity kind a DID is bound to.
type OwnerType string

const (
	OwnerTeam     OwnerType = "team"
	OwnerIssuer   OwnerType = "issuer"
	OwnerPlatform OwnerType = "platform"
)

// PlatformOwnerID is the fixed owner id of the platform DID singleton.
var PlatformOwnerID = uuid.Nil

// Assignment binds a DID to its owning entity. For teams and issuers the
// binding is write-once through the normal path; the platform row is the one
// admin-mutable exception.
type Assignment struct {
	OwnerType  OwnerType
	OwnerID    uuid.UUID
	DID        string
	AssignedBy id.UserID
	AssignedAt time.Time
}
