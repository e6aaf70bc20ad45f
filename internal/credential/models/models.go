package models

import (
	"encoding/json"
	"time"

	id "credtrust/pkg/domain"
)

// Category classifies what a credential claims.
type Category string

const (
	CategoryEducation     Category = "EDUCATION"
	CategoryExperience    Category = "EXPERIENCE"
	CategoryProject       Category = "PROJECT"
	CategoryAward         Category = "AWARD"
	CategoryCertification Category = "CERTIFICATION"
	CategoryOther         Category = "OTHER"
)

// IsValid reports whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEducation, CategoryExperience, CategoryProject,
		CategoryAward, CategoryCertification, CategoryOther:
		return true
	}
	return false
}

// Status is the credential verification state. No state is terminal; all
// states are reachable through coordinator transitions.
type Status string

const (
	StatusUnverified Status = "UNVERIFIED"
	StatusPending    Status = "PENDING"
	StatusVerified   Status = "VERIFIED"
	StatusRejected   Status = "REJECTED"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnverified, StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Credential is a single claim record owned by a candidate.
//
// Verified is a redundant cache of Status == StatusVerified kept for cheap
// recruiter-side filtering. The two must always agree; the store enforces this
// by deriving Verified from Status on every write.
type Credential struct {
	ID          id.CredentialID
	CandidateID id.CandidateID
	Category    Category
	Title       string
	SubType     string
	FileRef     string
	IssuerID    *id.IssuerID
	Status      Status
	Verified    bool
	VCPayload   json.RawMessage
	VerifiedAt  *time.Time
	CreatedAt   time.Time
}

// HasIssuer reports whether the credential is linked to an issuer
// (nil means self-asserted).
func (c *Credential) HasIssuer() bool {
	return c.IssuerID != nil && !c.IssuerID.IsNil()
}

// HasPayload reports whether a signed credential has been stored.
func (c *Credential) HasPayload() bool {
	return len(c.VCPayload) > 0
}

// StatusChange is the single mutation unit for verification state. Verified
// is never carried separately: stores derive it from Status so the agreement
// invariant cannot drift.
type StatusChange struct {
	Status      Status
	VerifiedAt  *time.Time
	VCPayload   json.RawMessage // appended only when newly issued; nil leaves the stored payload untouched
	ClearIssuer bool            // set during issuer cascade teardown
}

// SortField enumerates the sortable credential columns.
type SortField string

const (
	SortByCreatedAt  SortField = "created_at"
	SortByTitle      SortField = "title"
	SortByVerifiedAt SortField = "verified_at"
)

// ListFilter narrows and orders ListByCandidate reads.
type ListFilter struct {
	Category *Category
	Status   *Status
	SortBy   SortField
	SortDesc bool
	Limit    int
	Offset   int
}
