package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	ActorID      string    `json:"actor_id"`
	Action       string    `json:"action"`
	EntityID     string    `json:"entity_id,omitempty"`
	CredentialID string    `json:"credential_id,omitempty"`
	Device       string    `json:"device,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

type AuditEvent string

const (
	EventCredentialSubmitted  AuditEvent = "credential_submitted"
	EventCredentialApproved   AuditEvent = "credential_approved"
	EventCredentialRejected   AuditEvent = "credential_rejected"
	EventCredentialUnverified AuditEvent = "credential_unverified"
	EventIssuanceOrphaned     AuditEvent = "issuance_unpersisted"
	EventPayloadReused        AuditEvent = "vc_payload_reused"
	EventDIDAssigned          AuditEvent = "did_assigned"
	EventPlatformDIDChanged   AuditEvent = "platform_did_changed"
	EventIssuerReviewed       AuditEvent = "issuer_reviewed"
	EventIssuerDeleted        AuditEvent = "issuer_deleted"
	EventUserDeleted          AuditEvent = "user_deleted"
	EventTeamMemberRemoved    AuditEvent = "team_member_removed"
)
