package service

import (
	"encoding/json"
	"time"

	"go.uber.org/mock/gomock"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
)

func (s *LifecycleSuite) TestVerifyPortfolio() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)

	good := s.seedCredential(models.StatusPending, true)
	bad := s.seedCredential(models.StatusPending, true)
	unsigned := s.seedCredential(models.StatusUnverified, false)

	now := time.Now()
	s.Require().NoError(s.credStore.UpdateStatus(s.ctx, good.ID, models.StatusChange{
		Status: models.StatusVerified, VerifiedAt: &now, VCPayload: json.RawMessage(`{"jwt":"good"}`),
	}))
	s.Require().NoError(s.credStore.UpdateStatus(s.ctx, bad.ID, models.StatusChange{
		Status: models.StatusVerified, VerifiedAt: &now, VCPayload: json.RawMessage(`{"jwt":"tampered"}`),
	}))

	s.gateway.EXPECT().VerifyCredential(gomock.Any(), json.RawMessage(`{"jwt":"good"}`)).Return(true)
	s.gateway.EXPECT().VerifyCredential(gomock.Any(), json.RawMessage(`{"jwt":"tampered"}`)).Return(false)

	checks, err := s.service.VerifyPortfolio(s.ctx, s.candidate, s.candidateID)
	s.Require().NoError(err)
	s.Require().Len(checks, 3)

	byID := map[id.CredentialID]PortfolioCheck{}
	for _, check := range checks {
		byID[check.CredentialID] = check
	}
	s.True(byID[good.ID].Verified)
	s.True(byID[good.ID].HasPayload)
	s.False(byID[bad.ID].Verified)
	s.True(byID[bad.ID].HasPayload)
	s.False(byID[unsigned.ID].HasPayload)
	s.False(byID[unsigned.ID].Verified)

	// Advisory only: the tampered credential keeps its stored state.
	stored, err := s.credStore.FindByID(s.ctx, bad.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, stored.Status)
	s.True(stored.Verified)
}
