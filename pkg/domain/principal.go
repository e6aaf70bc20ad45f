package domain

// Role is the platform-level role carried by the authentication layer.
// Team-level roles (owner/member) live on team memberships, not here.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
	RoleIssuer    Role = "issuer"
	RoleRecruiter Role = "recruiter"
)

// Principal is the opaque (userID, role) pair supplied by the surrounding
// auth system. The lifecycle core never manages sessions.
type Principal struct {
	UserID UserID
	Role   Role
}

// IsAdmin reports whether the principal holds the platform admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
