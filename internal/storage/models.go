// Package storage holds the minor platform entities that the cascade cleanup
// service sweeps: users, candidates, pipelines, activity log rows and quiz
// attempts. They have no lifecycle of their own here; they exist so deletes
// can be exercised end to end.
package storage

import (
	"time"

	id "credtrust/pkg/domain"
)

// User is a platform account.
type User struct {
	ID        id.UserID
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// Candidate is the credential-holding profile attached to a user.
type Candidate struct {
	ID        id.CandidateID
	UserID    id.UserID
	TeamID    id.TeamID
	CreatedAt time.Time
}

// Pipeline is a recruiter-owned hiring pipeline.
type Pipeline struct {
	ID        id.PipelineID
	OwnerID   id.UserID
	Name      string
	CreatedAt time.Time
}

// PipelineMembership places a candidate in a pipeline stage.
type PipelineMembership struct {
	PipelineID  id.PipelineID
	CandidateID id.CandidateID
	Stage       string
	AddedAt     time.Time
}

// ActivityEntry is one row of a user's activity log.
type ActivityEntry struct {
	ID        int64
	UserID    id.UserID
	Action    string
	CreatedAt time.Time
}

// QuizAttempt records a candidate's scored quiz run.
type QuizAttempt struct {
	ID          int64
	CandidateID id.CandidateID
	QuizName    string
	Score       int
	TakenAt     time.Time
}
