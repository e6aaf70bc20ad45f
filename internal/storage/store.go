package storage

import (
	"context"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = sentinel.ErrNotFound

// UserStore persists platform accounts.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

// CandidateStore persists candidate profiles.
type CandidateStore interface {
	Create(ctx context.Context, candidate *Candidate) error
	FindByID(ctx context.Context, candidateID id.CandidateID) (*Candidate, error)
	FindByUser(ctx context.Context, userID id.UserID) (*Candidate, error)
	Delete(ctx context.Context, candidateID id.CandidateID) error
}

// PipelineStore persists pipelines and their candidate memberships.
type PipelineStore interface {
	Create(ctx context.Context, pipeline *Pipeline) error
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*Pipeline, error)
	AddMembership(ctx context.Context, membership PipelineMembership) error
	// DeleteAll removes the given pipelines and every membership row in them,
	// returning the number of pipelines removed.
	DeleteAll(ctx context.Context, pipelineIDs []id.PipelineID) (int, error)
	RemoveCandidate(ctx context.Context, candidateID id.CandidateID) error
}

// ActivityStore persists the per-user activity log.
type ActivityStore interface {
	Append(ctx context.Context, entry *ActivityEntry) error
	ListByUser(ctx context.Context, userID id.UserID) ([]ActivityEntry, error)
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// QuizStore persists quiz attempts.
type QuizStore interface {
	Append(ctx context.Context, attempt *QuizAttempt) error
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]QuizAttempt, error)
	DeleteByCandidate(ctx context.Context, candidateID id.CandidateID) error
}
