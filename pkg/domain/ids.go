// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "credtrust/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing UserID where IssuerID is expected.
type (
	UserID       uuid.UUID
	CandidateID  uuid.UUID
	IssuerID     uuid.UUID
	TeamID       uuid.UUID
	CredentialID uuid.UUID
	PipelineID   uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseCandidateID(s string) (CandidateID, error) {
	id, err := parseUUID(s, "candidate ID")
	return CandidateID(id), err
}

func ParseIssuerID(s string) (IssuerID, error) {
	id, err := parseUUID(s, "issuer ID")
	return IssuerID(id), err
}

func ParseTeamID(s string) (TeamID, error) {
	id, err := parseUUID(s, "team ID")
	return TeamID(id), err
}

func ParseCredentialID(s string) (CredentialID, error) {
	id, err := parseUUID(s, "credential ID")
	return CredentialID(id), err
}

func ParsePipelineID(s string) (PipelineID, error) {
	id, err := parseUUID(s, "pipeline ID")
	return PipelineID(id), err
}

// New functions - for entity creation in services and tests.

func NewUserID() UserID             { return UserID(uuid.New()) }
func NewCandidateID() CandidateID   { return CandidateID(uuid.New()) }
func NewIssuerID() IssuerID         { return IssuerID(uuid.New()) }
func NewTeamID() TeamID             { return TeamID(uuid.New()) }
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }
func NewPipelineID() PipelineID     { return PipelineID(uuid.New()) }

// String methods - for logging and debugging.

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id CandidateID) String() string  { return uuid.UUID(id).String() }
func (id IssuerID) String() string     { return uuid.UUID(id).String() }
func (id TeamID) String() string       { return uuid.UUID(id).String() }
func (id CredentialID) String() string { return uuid.UUID(id).String() }
func (id PipelineID) String() string   { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id IssuerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PipelineID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here. Use IsNil() at the service layer for business
// validation, which lets store lookups return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "malformed "+label)
	}
	return id, nil
}
