package team

import (
	"context"

	id "credtrust/pkg/domain"
)

// Store persists teams and memberships.
//
// Error Contract:
// - FindTeam, RoleOf and FindPersonalTeam return sentinel.ErrNotFound when absent
// - AddMembership returns sentinel.ErrConflict when the membership already exists
type Store interface {
	CreateTeam(ctx context.Context, team *Team) error
	FindTeam(ctx context.Context, teamID id.TeamID) (*Team, error)
	FindPersonalTeam(ctx context.Context, creatorID id.UserID) (*Team, error)
	TeamsCreatedBy(ctx context.Context, creatorID id.UserID) ([]*Team, error)
	DeleteTeam(ctx context.Context, teamID id.TeamID) error

	AddMembership(ctx context.Context, membership Membership) error
	RemoveMembership(ctx context.Context, teamID id.TeamID, userID id.UserID) error
	RemoveMembershipsByUser(ctx context.Context, userID id.UserID) error
	MembershipsByUser(ctx context.Context, userID id.UserID) ([]Membership, error)
	RoleOf(ctx context.Context, teamID id.TeamID, userID id.UserID) (string, error)
	MemberCount(ctx context.Context, teamID id.TeamID) (int, error)
}
