package team

import (
	"time"

	id "credtrust/pkg/domain"
)

// Membership roles within a team. Distinct from platform roles: the team
// owner role gates DID assignment and member management.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Team groups candidates under a shared DID. Every user gets a personal team
// at signup; Personal teams are the fallback target when a user is removed
// from a shared team.
type Team struct {
	ID        id.TeamID
	CreatorID id.UserID
	Name      string
	Personal  bool
	CreatedAt time.Time
}

// Membership links a user to a team with a role.
type Membership struct {
	TeamID   id.TeamID
	UserID   id.UserID
	Role     string
	JoinedAt time.Time
}
