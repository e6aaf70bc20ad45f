package issuer

import (
	"context"
	"sync"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// InMemoryStore stores issuers in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	issuers map[id.IssuerID]*Issuer
}

// NewInMemoryStore constructs an empty in-memory issuer store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[id.IssuerID]*Issuer)}
}

func (s *InMemoryStore) Create(_ context.Context, issuer *Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuers[issuer.ID]; ok {
		return sentinel.ErrConflict
	}
	copyIssuer := *issuer
	s.issuers[issuer.ID] = &copyIssuer
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, issuerID id.IssuerID) (*Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, ok := s.issuers[issuerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyIssuer := *issuer
	return &copyIssuer, nil
}

func (s *InMemoryStore) FindByOwner(_ context.Context, ownerID id.UserID) (*Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, issuer := range s.issuers {
		if issuer.OwnerID == ownerID {
			copyIssuer := *issuer
			return &copyIssuer, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, issuer *Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuers[issuer.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copyIssuer := *issuer
	s.issuers[issuer.ID] = &copyIssuer
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, issuerID id.IssuerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuers[issuerID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.issuers, issuerID)
	return nil
}
