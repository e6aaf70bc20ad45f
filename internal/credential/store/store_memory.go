package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// InMemoryStore stores credentials in memory for tests and local development.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[id.CredentialID]*models.Credential
}

// New constructs an empty in-memory credential store.
func New() *InMemoryStore {
	return &InMemoryStore{credentials: make(map[id.CredentialID]*models.Credential)}
}

func (s *InMemoryStore) Create(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credential.ID]; ok {
		return sentinel.ErrConflict
	}
	copyCred := cloneCredential(credential)
	s.credentials[credential.ID] = copyCred
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCredential(credential), nil
}

func (s *InMemoryStore) ListByCandidate(_ context.Context, candidateID id.CandidateID, filter *models.ListFilter) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Credential
	for _, credential := range s.credentials {
		if credential.CandidateID != candidateID {
			continue
		}
		if filter != nil {
			if filter.Category != nil && credential.Category != *filter.Category {
				continue
			}
			if filter.Status != nil && credential.Status != *filter.Status {
				continue
			}
		}
		matched = append(matched, cloneCredential(credential))
	}

	sortCredentials(matched, filter)
	return paginate(matched, filter), nil
}

func (s *InMemoryStore) ListIDsByIssuer(_ context.Context, issuerID id.IssuerID) ([]id.CredentialID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []id.CredentialID
	for _, credential := range s.credentials {
		if credential.IssuerID != nil && *credential.IssuerID == issuerID {
			ids = append(ids, credential.ID)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, credentialID id.CredentialID, change models.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[credentialID]
	if !ok {
		return sentinel.ErrNotFound
	}

	credential.Status = change.Status
	credential.Verified = change.Status == models.StatusVerified
	credential.VerifiedAt = change.VerifiedAt
	if change.VCPayload != nil {
		credential.VCPayload = append([]byte(nil), change.VCPayload...)
	}
	if change.ClearIssuer {
		credential.IssuerID = nil
	}
	return nil
}

func (s *InMemoryStore) ResetByIssuer(_ context.Context, issuerID id.IssuerID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, credential := range s.credentials {
		if credential.IssuerID == nil || *credential.IssuerID != issuerID {
			continue
		}
		credential.IssuerID = nil
		credential.Status = models.StatusUnverified
		credential.Verified = false
		credential.VerifiedAt = nil
		count++
	}
	return count, nil
}

func (s *InMemoryStore) DeleteByCandidate(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for credID, credential := range s.credentials {
		if credential.CandidateID == candidateID {
			delete(s.credentials, credID)
		}
	}
	return nil
}

func cloneCredential(c *models.Credential) *models.Credential {
	copyCred := *c
	if c.IssuerID != nil {
		issuerID := *c.IssuerID
		copyCred.IssuerID = &issuerID
	}
	if c.VerifiedAt != nil {
		verifiedAt := *c.VerifiedAt
		copyCred.VerifiedAt = &verifiedAt
	}
	if c.VCPayload != nil {
		copyCred.VCPayload = append([]byte(nil), c.VCPayload...)
	}
	return &copyCred
}

func sortCredentials(credentials []*models.Credential, filter *models.ListFilter) {
	field := models.SortByCreatedAt
	desc := false
	if filter != nil {
		if filter.SortBy != "" {
			field = filter.SortBy
		}
		desc = filter.SortDesc
	}

	sort.SliceStable(credentials, func(i, j int) bool {
		var less bool
		switch field {
		case models.SortByTitle:
			less = credentials[i].Title < credentials[j].Title
		case models.SortByVerifiedAt:
			less = earlier(credentials[i].VerifiedAt, credentials[j].VerifiedAt)
		default:
			less = credentials[i].CreatedAt.Before(credentials[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

// earlier orders nil VerifiedAt values first so unverified rows group together.
func earlier(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func paginate(credentials []*models.Credential, filter *models.ListFilter) []*models.Credential {
	if filter == nil {
		return credentials
	}
	offset := filter.Offset
	if offset > len(credentials) {
		return nil
	}
	credentials = credentials[offset:]
	if filter.Limit > 0 && filter.Limit < len(credentials) {
		credentials = credentials[:filter.Limit]
	}
	return credentials
}
