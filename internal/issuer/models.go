package issuer

import (
	"time"

	id "credtrust/pkg/domain"
)

// Status tracks an issuer organization through admin review.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
)

// Issuer is an organization that can review and sign candidate claims once
// ACTIVE and DID-bearing.
type Issuer struct {
	ID              id.IssuerID
	OwnerID         id.UserID
	Name            string
	Status          Status
	RejectionReason string
	DID             string
	CreatedAt       time.Time
}

// CanSign reports whether the issuer may accept new credential submissions.
func (i *Issuer) CanSign() bool {
	return i.Status == StatusActive
}
