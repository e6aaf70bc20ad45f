package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credtrust/internal/credential/models"
	"credtrust/internal/credential/service/mocks"
	"credtrust/internal/credential/store"
	"credtrust/internal/issuer"
	"credtrust/internal/storage"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

const testTeamDID = "did:key:team-1"

type LifecycleSuite struct {
	suite.Suite
	ctx context.Context

	credStore  *store.InMemoryStore
	gateway    *mocks.MockGateway
	candidates *mocks.MockCandidates
	issuers    *mocks.MockIssuers
	teamDIDs   *mocks.MockTeamDIDs
	service    *Service

	candidateID id.CandidateID
	teamID      id.TeamID
	issuerID    id.IssuerID
	owner       id.Principal
	candidate   id.Principal
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	ctrl := gomock.NewController(s.T())

	s.credStore = store.New()
	s.gateway = mocks.NewMockGateway(ctrl)
	s.candidates = mocks.NewMockCandidates(ctrl)
	s.issuers = mocks.NewMockIssuers(ctrl)
	s.teamDIDs = mocks.NewMockTeamDIDs(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(
		s.credStore,
		NewMemoryTx(s.credStore),
		s.candidates,
		s.issuers,
		s.teamDIDs,
		s.gateway,
		logger,
	)

	s.candidateID = id.NewCandidateID()
	s.teamID = id.NewTeamID()
	s.issuerID = id.NewIssuerID()
	s.owner = id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	s.candidate = id.Principal{UserID: id.NewUserID(), Role: id.RoleCandidate}
}

func (s *LifecycleSuite) candidateRecord() *storage.Candidate {
	return &storage.Candidate{
		ID:     s.candidateID,
		UserID: s.candidate.UserID,
		TeamID: s.teamID,
	}
}

func (s *LifecycleSuite) activeIssuer() *issuer.Issuer {
	return &issuer.Issuer{
		ID:      s.issuerID,
		OwnerID: s.owner.UserID,
		Name:    "Acme University",
		Status:  issuer.StatusActive,
		DID:     "did:key:issuer-1",
	}
}

func (s *LifecycleSuite) seedCredential(status models.Status, withIssuer bool) *models.Credential {
	credential := &models.Credential{
		ID:          id.NewCredentialID(),
		CandidateID: s.candidateID,
		Category:    models.CategoryEducation,
		Title:       "BSc Computer Science",
		Status:      status,
		Verified:    status == models.StatusVerified,
		CreatedAt:   time.Now(),
	}
	if withIssuer {
		issuerID := s.issuerID
		credential.IssuerID = &issuerID
	}
	s.Require().NoError(s.credStore.Create(s.ctx, credential))
	return credential
}

func (s *LifecycleSuite) TestSubmitSelfAsserted() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)

	credential, err := s.service.Submit(s.ctx, s.candidate, SubmitRequest{
		CandidateID: s.candidateID,
		Category:    models.CategoryProject,
		Title:       "Side project",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusUnverified, credential.Status)
	s.False(credential.Verified)
	s.False(credential.HasIssuer())
}

func (s *LifecycleSuite) TestSubmitWithActiveIssuer() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return(testTeamDID, nil)

	issuerID := s.issuerID
	credential, err := s.service.Submit(s.ctx, s.candidate, SubmitRequest{
		CandidateID: s.candidateID,
		Category:    models.CategoryEducation,
		Title:       "BSc Computer Science",
		IssuerID:    &issuerID,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusPending, credential.Status)
	s.False(credential.Verified)
}

func (s *LifecycleSuite) TestSubmitInactiveIssuerFails() {
	pending := s.activeIssuer()
	pending.Status = issuer.StatusPending
	pending.DID = ""
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(pending, nil)

	issuerID := s.issuerID
	_, err := s.service.Submit(s.ctx, s.candidate, SubmitRequest{
		CandidateID: s.candidateID,
		Category:    models.CategoryEducation,
		Title:       "BSc Computer Science",
		IssuerID:    &issuerID,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func (s *LifecycleSuite) TestSubmitWithoutTeamDIDFails() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return("", nil)

	issuerID := s.issuerID
	_, err := s.service.Submit(s.ctx, s.candidate, SubmitRequest{
		CandidateID: s.candidateID,
		Category:    models.CategoryEducation,
		Title:       "BSc Computer Science",
		IssuerID:    &issuerID,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func (s *LifecycleSuite) TestApproveIssuesAndVerifies() {
	credential := s.seedCredential(models.StatusPending, true)
	payload := json.RawMessage(`{"jwt":"signed"}`)

	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return(testTeamDID, nil)
	s.gateway.EXPECT().
		IssueCredential(gomock.Any(), "did:key:issuer-1", testTeamDID, gomock.Any(), string(models.CategoryEducation)).
		Return(payload, nil)

	updated, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, updated.Status)
	s.True(updated.Verified)
	s.JSONEq(string(payload), string(updated.VCPayload))
	s.NotNil(updated.VerifiedAt)
}

// A second approval after an unverify must reuse the stored payload instead
// of producing a second signed artifact.
func (s *LifecycleSuite) TestApproveIssuesExactlyOnce() {
	credential := s.seedCredential(models.StatusPending, true)
	payload := json.RawMessage(`{"jwt":"signed"}`)

	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil).AnyTimes()
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil).AnyTimes()
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return(testTeamDID, nil).AnyTimes()
	s.gateway.EXPECT().
		IssueCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(payload, nil).
		Times(1)

	_, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().NoError(err)
	_, err = s.service.Unverify(s.ctx, s.owner, credential.ID)
	s.Require().NoError(err)

	updated, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, updated.Status)
	s.JSONEq(string(payload), string(updated.VCPayload))
}

func (s *LifecycleSuite) TestApproveGatewayFailureLeavesCredentialUntouched() {
	credential := s.seedCredential(models.StatusPending, true)

	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return(testTeamDID, nil)
	s.gateway.EXPECT().
		IssueCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeServiceFailure, "network down"))

	_, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeServiceFailure))

	stored, findErr := s.credStore.FindByID(s.ctx, credential.ID)
	s.Require().NoError(findErr)
	s.Equal(models.StatusPending, stored.Status)
	s.False(stored.Verified)
	s.False(stored.HasPayload())
}

func (s *LifecycleSuite) TestApproveWithoutTeamDIDKeepsPending() {
	credential := s.seedCredential(models.StatusPending, true)

	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	s.teamDIDs.EXPECT().TeamDID(gomock.Any(), s.teamID).Return("", nil)

	_, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))

	stored, findErr := s.credStore.FindByID(s.ctx, credential.ID)
	s.Require().NoError(findErr)
	s.Equal(models.StatusPending, stored.Status)
}

func (s *LifecycleSuite) TestApproveRequiresIssuerDID() {
	credential := s.seedCredential(models.StatusPending, true)
	noDID := s.activeIssuer()
	noDID.DID = ""
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(noDID, nil)

	_, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func (s *LifecycleSuite) TestApproveByNonOwnerForbidden() {
	credential := s.seedCredential(models.StatusPending, true)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)

	stranger := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	_, err := s.service.Approve(s.ctx, stranger, credential.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *LifecycleSuite) TestApproveAlreadyVerifiedFails() {
	credential := s.seedCredential(models.StatusVerified, true)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)

	_, err := s.service.Approve(s.ctx, s.owner, credential.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func (s *LifecycleSuite) TestRejectFromAnyState() {
	for _, status := range []models.Status{models.StatusPending, models.StatusVerified, models.StatusUnverified} {
		credential := s.seedCredential(status, true)
		s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)

		updated, err := s.service.Reject(s.ctx, s.owner, credential.ID, "insufficient evidence")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, updated.Status)
		s.False(updated.Verified)
		s.NotNil(updated.VerifiedAt)
	}
}

func (s *LifecycleSuite) TestUnverifyRetainsPayload() {
	credential := s.seedCredential(models.StatusPending, true)
	payload := json.RawMessage(`{"jwt":"signed"}`)
	now := time.Now()
	s.Require().NoError(s.credStore.UpdateStatus(s.ctx, credential.ID, models.StatusChange{
		Status:     models.StatusVerified,
		VerifiedAt: &now,
		VCPayload:  payload,
	}))

	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)

	updated, err := s.service.Unverify(s.ctx, s.owner, credential.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnverified, updated.Status)
	s.False(updated.Verified)
	s.Nil(updated.VerifiedAt)
	s.JSONEq(string(payload), string(updated.VCPayload))
}

func (s *LifecycleSuite) TestUnverifyRequiresVerified() {
	credential := s.seedCredential(models.StatusPending, true)
	s.issuers.EXPECT().FindByID(gomock.Any(), s.issuerID).Return(s.activeIssuer(), nil)

	_, err := s.service.Unverify(s.ctx, s.owner, credential.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func (s *LifecycleSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, s.candidate, id.NewCredentialID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestListClampsAndFilters() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)
	for range 3 {
		s.seedCredential(models.StatusUnverified, false)
	}

	credentials, err := s.service.List(s.ctx, s.candidate, s.candidateID, &models.ListFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(credentials, 2)
}

func (s *LifecycleSuite) TestListForbiddenForOtherCandidate() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidateID).Return(s.candidateRecord(), nil)

	other := id.Principal{UserID: id.NewUserID(), Role: id.RoleCandidate}
	_, err := s.service.List(s.ctx, other, s.candidateID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// Persistence failure after a fresh issuance must surface an error and flag
// the orphaned artifact, not pretend the approval went through.
func TestApproveOrphanedIssuanceSurfacesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	credStore := store.New()
	gateway := mocks.NewMockGateway(ctrl)
	candidates := mocks.NewMockCandidates(ctrl)
	issuers := mocks.NewMockIssuers(ctrl)
	teamDIDs := mocks.NewMockTeamDIDs(ctrl)
	tx := mocks.NewMockTx(ctrl)
	auditor := mocks.NewMockAuditPublisher(ctrl)

	svc := NewService(credStore, tx, candidates, issuers, teamDIDs, gateway, logger, WithAuditor(auditor))

	ctx := context.Background()
	candidateID := id.NewCandidateID()
	issuerID := id.NewIssuerID()
	teamID := id.NewTeamID()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	credential := &models.Credential{
		ID:          id.NewCredentialID(),
		CandidateID: candidateID,
		Category:    models.CategoryCertification,
		Title:       "AWS SAA",
		IssuerID:    &issuerID,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := credStore.Create(ctx, credential); err != nil {
		t.Fatal(err)
	}

	issuers.EXPECT().FindByID(gomock.Any(), issuerID).Return(&issuer.Issuer{
		ID: issuerID, OwnerID: owner.UserID, Status: issuer.StatusActive, DID: "did:key:issuer-1",
	}, nil)
	candidates.EXPECT().FindByID(gomock.Any(), candidateID).Return(&storage.Candidate{
		ID: candidateID, UserID: id.NewUserID(), TeamID: teamID,
	}, nil)
	teamDIDs.EXPECT().TeamDID(gomock.Any(), teamID).Return(testTeamDID, nil)
	gateway.EXPECT().
		IssueCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(json.RawMessage(`{"jwt":"signed"}`), nil)
	tx.EXPECT().
		RunInTx(gomock.Any(), credential.ID, gomock.Any()).
		Return(errors.New("connection reset"))
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.Approve(ctx, owner, credential.ID, nil)
	if err == nil {
		t.Fatal("expected error from failed persistence")
	}
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
