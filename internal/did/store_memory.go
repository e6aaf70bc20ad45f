package did

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"credtrust/pkg/platform/sentinel"
)

type ownerKey struct {
	ownerType OwnerType
	ownerID   uuid.UUID
}

// InMemoryStore stores DID assignments in memory for tests.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[ownerKey]Assignment
}

// NewInMemoryStore constructs an empty in-memory DID store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assignments: make(map[ownerKey]Assignment)}
}

func (s *InMemoryStore) Create(_ context.Context, assignment Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey{assignment.OwnerType, assignment.OwnerID}
	if _, ok := s.assignments[key]; ok {
		return sentinel.ErrConflict
	}
	s.assignments[key] = assignment
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, assignment Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[ownerKey{assignment.OwnerType, assignment.OwnerID}] = assignment
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, ownerType OwnerType, ownerID uuid.UUID) (Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[ownerKey{ownerType, ownerID}]
	if !ok {
		return Assignment{}, sentinel.ErrNotFound
	}
	return assignment, nil
}

func (s *InMemoryStore) DeleteByOwner(_ context.Context, ownerType OwnerType, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, ownerKey{ownerType, ownerID})
	return nil
}
