package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New()
}

func (s *MemoryStoreSuite) seed(candidateID id.CandidateID, issuerID *id.IssuerID, status models.Status, title string, createdAt time.Time) *models.Credential {
	credential := &models.Credential{
		ID:          id.NewCredentialID(),
		CandidateID: candidateID,
		Category:    models.CategoryEducation,
		Title:       title,
		IssuerID:    issuerID,
		Status:      status,
		Verified:    status == models.StatusVerified,
		CreatedAt:   createdAt,
	}
	s.Require().NoError(s.store.Create(s.ctx, credential))
	return credential
}

func (s *MemoryStoreSuite) TestCreateDuplicateConflicts() {
	credential := s.seed(id.NewCandidateID(), nil, models.StatusUnverified, "A", time.Now())
	err := s.store.Create(s.ctx, credential)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestUpdateStatusDerivesVerified() {
	credential := s.seed(id.NewCandidateID(), nil, models.StatusPending, "A", time.Now())
	now := time.Now()

	s.Run("verified follows status up", func() {
		err := s.store.UpdateStatus(s.ctx, credential.ID, models.StatusChange{
			Status:     models.StatusVerified,
			VerifiedAt: &now,
			VCPayload:  json.RawMessage(`{"jwt":"x"}`),
		})
		s.Require().NoError(err)

		stored, err := s.store.FindByID(s.ctx, credential.ID)
		s.Require().NoError(err)
		s.True(stored.Verified)
		s.Equal(models.StatusVerified, stored.Status)
	})

	s.Run("verified follows status down, payload survives", func() {
		err := s.store.UpdateStatus(s.ctx, credential.ID, models.StatusChange{
			Status: models.StatusUnverified,
		})
		s.Require().NoError(err)

		stored, err := s.store.FindByID(s.ctx, credential.ID)
		s.Require().NoError(err)
		s.False(stored.Verified)
		s.Nil(stored.VerifiedAt)
		s.JSONEq(`{"jwt":"x"}`, string(stored.VCPayload))
	})
}

func (s *MemoryStoreSuite) TestUpdateStatusClearIssuer() {
	issuerID := id.NewIssuerID()
	credential := s.seed(id.NewCandidateID(), &issuerID, models.StatusPending, "A", time.Now())

	err := s.store.UpdateStatus(s.ctx, credential.ID, models.StatusChange{
		Status:      models.StatusUnverified,
		ClearIssuer: true,
	})
	s.Require().NoError(err)

	stored, err := s.store.FindByID(s.ctx, credential.ID)
	s.Require().NoError(err)
	s.Nil(stored.IssuerID)
}

func (s *MemoryStoreSuite) TestUpdateStatusNotFound() {
	err := s.store.UpdateStatus(s.ctx, id.NewCredentialID(), models.StatusChange{Status: models.StatusRejected})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestResetByIssuer() {
	issuerID := id.NewIssuerID()
	otherIssuer := id.NewIssuerID()
	candidateID := id.NewCandidateID()

	now := time.Now()
	linked := make([]*models.Credential, 3)
	for i := range linked {
		linked[i] = s.seed(candidateID, &issuerID, models.StatusVerified, "linked", now)
	}
	untouched := s.seed(candidateID, &otherIssuer, models.StatusVerified, "other", now)

	count, err := s.store.ResetByIssuer(s.ctx, issuerID)
	s.Require().NoError(err)
	s.Equal(3, count)

	for _, credential := range linked {
		stored, err := s.store.FindByID(s.ctx, credential.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnverified, stored.Status)
		s.False(stored.Verified)
		s.Nil(stored.IssuerID)
	}

	kept, err := s.store.FindByID(s.ctx, untouched.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, kept.Status)
	s.NotNil(kept.IssuerID)
}

func (s *MemoryStoreSuite) TestDeleteByCandidate() {
	candidateID := id.NewCandidateID()
	otherCandidate := id.NewCandidateID()

	doomed := s.seed(candidateID, nil, models.StatusUnverified, "A", time.Now())
	kept := s.seed(otherCandidate, nil, models.StatusUnverified, "B", time.Now())

	s.Require().NoError(s.store.DeleteByCandidate(s.ctx, candidateID))

	_, err := s.store.FindByID(s.ctx, doomed.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByID(s.ctx, kept.ID)
	s.NoError(err)
}

func (s *MemoryStoreSuite) TestListByCandidate() {
	candidateID := id.NewCandidateID()
	base := time.Now()

	oldest := s.seed(candidateID, nil, models.StatusUnverified, "Charlie", base.Add(-2*time.Hour))
	middle := s.seed(candidateID, nil, models.StatusPending, "Alpha", base.Add(-time.Hour))
	newest := s.seed(candidateID, nil, models.StatusUnverified, "Bravo", base)
	s.seed(id.NewCandidateID(), nil, models.StatusUnverified, "Other", base)

	s.Run("default sort is created_at ascending", func() {
		credentials, err := s.store.ListByCandidate(s.ctx, candidateID, nil)
		s.Require().NoError(err)
		s.Require().Len(credentials, 3)
		s.Equal(oldest.ID, credentials[0].ID)
		s.Equal(newest.ID, credentials[2].ID)
	})

	s.Run("status filter", func() {
		pending := models.StatusPending
		credentials, err := s.store.ListByCandidate(s.ctx, candidateID, &models.ListFilter{Status: &pending})
		s.Require().NoError(err)
		s.Require().Len(credentials, 1)
		s.Equal(middle.ID, credentials[0].ID)
	})

	s.Run("title sort descending", func() {
		credentials, err := s.store.ListByCandidate(s.ctx, candidateID, &models.ListFilter{
			SortBy: models.SortByTitle, SortDesc: true,
		})
		s.Require().NoError(err)
		s.Require().Len(credentials, 3)
		s.Equal("Charlie", credentials[0].Title)
		s.Equal("Alpha", credentials[2].Title)
	})

	s.Run("pagination", func() {
		credentials, err := s.store.ListByCandidate(s.ctx, candidateID, &models.ListFilter{Limit: 1, Offset: 1})
		s.Require().NoError(err)
		s.Require().Len(credentials, 1)
		s.Equal(middle.ID, credentials[0].ID)

		credentials, err = s.store.ListByCandidate(s.ctx, candidateID, &models.ListFilter{Offset: 10})
		s.Require().NoError(err)
		s.Empty(credentials)
	})
}

func (s *MemoryStoreSuite) TestListIDsByIssuer() {
	issuerID := id.NewIssuerID()
	candidateID := id.NewCandidateID()

	s.seed(candidateID, &issuerID, models.StatusPending, "A", time.Now())
	s.seed(candidateID, &issuerID, models.StatusPending, "B", time.Now())
	s.seed(candidateID, nil, models.StatusUnverified, "C", time.Now())

	ids, err := s.store.ListIDsByIssuer(s.ctx, issuerID)
	s.Require().NoError(err)
	s.Len(ids, 2)
}

func (s *MemoryStoreSuite) TestCloneIsolation() {
	credential := s.seed(id.NewCandidateID(), nil, models.StatusUnverified, "A", time.Now())

	first, err := s.store.FindByID(s.ctx, credential.ID)
	s.Require().NoError(err)
	first.Title = "mutated"

	second, err := s.store.FindByID(s.ctx, credential.ID)
	s.Require().NoError(err)
	s.Equal("A", second.Title)
}
