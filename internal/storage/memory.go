package storage

import (
	"context"
	"sync"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// InMemoryUsers is a map-backed UserStore for tests and local development.
type InMemoryUsers struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{users: make(map[id.UserID]*User)}
}

func (s *InMemoryUsers) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	copyUser := *user
	s.users[user.ID] = &copyUser
	return nil
}

func (s *InMemoryUsers) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copyUser := *user
	return &copyUser, nil
}

func (s *InMemoryUsers) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

// InMemoryCandidates is a map-backed CandidateStore.
type InMemoryCandidates struct {
	mu         sync.RWMutex
	candidates map[id.CandidateID]*Candidate
}

func NewInMemoryCandidates() *InMemoryCandidates {
	return &InMemoryCandidates{candidates: make(map[id.CandidateID]*Candidate)}
}

func (s *InMemoryCandidates) Create(_ context.Context, candidate *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[candidate.ID]; ok {
		return sentinel.ErrConflict
	}
	copyCandidate := *candidate
	s.candidates[candidate.ID] = &copyCandidate
	return nil
}

func (s *InMemoryCandidates) FindByID(_ context.Context, candidateID id.CandidateID) (*Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, ErrNotFound
	}
	copyCandidate := *candidate
	return &copyCandidate, nil
}

func (s *InMemoryCandidates) FindByUser(_ context.Context, userID id.UserID) (*Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, candidate := range s.candidates {
		if candidate.UserID == userID {
			copyCandidate := *candidate
			return &copyCandidate, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryCandidates) Delete(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[candidateID]; !ok {
		return ErrNotFound
	}
	delete(s.candidates, candidateID)
	return nil
}

// InMemoryPipelines is a map-backed PipelineStore.
type InMemoryPipelines struct {
	mu         sync.RWMutex
	pipelines  map[id.PipelineID]*Pipeline
	placements map[id.PipelineID][]PipelineMembership
}

func NewInMemoryPipelines() *InMemoryPipelines {
	return &InMemoryPipelines{
		pipelines:  make(map[id.PipelineID]*Pipeline),
		placements: make(map[id.PipelineID][]PipelineMembership),
	}
}

func (s *InMemoryPipelines) Create(_ context.Context, pipeline *Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pipelines[pipeline.ID]; ok {
		return sentinel.ErrConflict
	}
	copyPipeline := *pipeline
	s.pipelines[pipeline.ID] = &copyPipeline
	return nil
}

func (s *InMemoryPipelines) ListByOwner(_ context.Context, ownerID id.UserID) ([]*Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pipelines []*Pipeline
	for _, pipeline := range s.pipelines {
		if pipeline.OwnerID == ownerID {
			copyPipeline := *pipeline
			pipelines = append(pipelines, &copyPipeline)
		}
	}
	return pipelines, nil
}

func (s *InMemoryPipelines) AddMembership(_ context.Context, membership PipelineMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pipelines[membership.PipelineID]; !ok {
		return ErrNotFound
	}
	s.placements[membership.PipelineID] = append(s.placements[membership.PipelineID], membership)
	return nil
}

func (s *InMemoryPipelines) DeleteAll(_ context.Context, pipelineIDs []id.PipelineID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, pipelineID := range pipelineIDs {
		if _, ok := s.pipelines[pipelineID]; !ok {
			continue
		}
		delete(s.pipelines, pipelineID)
		delete(s.placements, pipelineID)
		removed++
	}
	return removed, nil
}

func (s *InMemoryPipelines) RemoveCandidate(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pipelineID, memberships := range s.placements {
		kept := memberships[:0]
		for _, membership := range memberships {
			if membership.CandidateID != candidateID {
				kept = append(kept, membership)
			}
		}
		s.placements[pipelineID] = kept
	}
	return nil
}

// MembershipCount reports placements in one pipeline. Test helper.
func (s *InMemoryPipelines) MembershipCount(pipelineID id.PipelineID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.placements[pipelineID])
}

// InMemoryActivity is a map-backed ActivityStore.
type InMemoryActivity struct {
	mu      sync.RWMutex
	entries map[id.UserID][]ActivityEntry
	nextID  int64
}

func NewInMemoryActivity() *InMemoryActivity {
	return &InMemoryActivity{entries: make(map[id.UserID][]ActivityEntry)}
}

func (s *InMemoryActivity) Append(_ context.Context, entry *ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries[entry.UserID] = append(s.entries[entry.UserID], *entry)
	return nil
}

func (s *InMemoryActivity) ListByUser(_ context.Context, userID id.UserID) ([]ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[userID]
	out := make([]ActivityEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *InMemoryActivity) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

// InMemoryQuizzes is a map-backed QuizStore.
type InMemoryQuizzes struct {
	mu       sync.RWMutex
	attempts map[id.CandidateID][]QuizAttempt
	nextID   int64
}

func NewInMemoryQuizzes() *InMemoryQuizzes {
	return &InMemoryQuizzes{attempts: make(map[id.CandidateID][]QuizAttempt)}
}

func (s *InMemoryQuizzes) Append(_ context.Context, attempt *QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	attempt.ID = s.nextID
	s.attempts[attempt.CandidateID] = append(s.attempts[attempt.CandidateID], *attempt)
	return nil
}

func (s *InMemoryQuizzes) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := s.attempts[candidateID]
	out := make([]QuizAttempt, len(attempts))
	copy(out, attempts)
	return out, nil
}

func (s *InMemoryQuizzes) DeleteByCandidate(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, candidateID)
	return nil
}
