package cleanup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credtrust/internal/credential/models"
	credstore "credtrust/internal/credential/store"
	"credtrust/internal/did"
	"credtrust/internal/issuer"
	"credtrust/internal/storage"
	"credtrust/internal/team"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
	"credtrust/pkg/platform/sentinel"
)

type CascadeSuite struct {
	suite.Suite
	ctx context.Context

	credentials *credstore.InMemoryStore
	issuers     *issuer.InMemoryStore
	dids        *did.InMemoryStore
	teams       *team.InMemoryStore
	users       *storage.InMemoryUsers
	candidates  *storage.InMemoryCandidates
	pipelines   *storage.InMemoryPipelines
	activity    *storage.InMemoryActivity
	quizzes     *storage.InMemoryQuizzes
	service     *Service

	admin id.Principal
}

func TestCascadeSuite(t *testing.T) {
	suite.Run(t, new(CascadeSuite))
}

func (s *CascadeSuite) SetupTest() {
	s.ctx = context.Background()

	s.credentials = credstore.New()
	s.issuers = issuer.NewInMemoryStore()
	s.dids = did.NewInMemoryStore()
	s.teams = team.NewInMemoryStore()
	s.users = storage.NewInMemoryUsers()
	s.candidates = storage.NewInMemoryCandidates()
	s.pipelines = storage.NewInMemoryPipelines()
	s.activity = storage.NewInMemoryActivity()
	s.quizzes = storage.NewInMemoryQuizzes()

	tx := NewMemoryTx(Stores{
		Credentials: s.credentials,
		Issuers:     s.issuers,
		DIDs:        s.dids,
		Teams:       s.teams,
		Users:       s.users,
		Candidates:  s.candidates,
		Pipelines:   s.pipelines,
		Activity:    s.activity,
		Quizzes:     s.quizzes,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(tx, logger)

	s.admin = id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}
}

func (s *CascadeSuite) seedUser(role id.Role) *storage.User {
	user := &storage.User{
		ID:        id.NewUserID(),
		Email:     uuid.NewString() + "@example.com",
		Name:      "Test User",
		Role:      string(role),
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *CascadeSuite) seedTeam(creatorID id.UserID, personal bool) *team.Team {
	record := &team.Team{
		ID:        id.NewTeamID(),
		CreatorID: creatorID,
		Name:      "Team",
		Personal:  personal,
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.teams.CreateTeam(s.ctx, record))
	return record
}

func (s *CascadeSuite) seedCandidate(userID id.UserID, teamID id.TeamID) *storage.Candidate {
	candidate := &storage.Candidate{
		ID:        id.NewCandidateID(),
		UserID:    userID,
		TeamID:    teamID,
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.candidates.Create(s.ctx, candidate))
	return candidate
}

func (s *CascadeSuite) seedIssuer(ownerID id.UserID) *issuer.Issuer {
	record := &issuer.Issuer{
		ID:        id.NewIssuerID(),
		OwnerID:   ownerID,
		Name:      "Acme University",
		Status:    issuer.StatusActive,
		DID:       "did:key:issuer",
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.issuers.Create(s.ctx, record))
	s.Require().NoError(s.dids.Create(s.ctx, did.Assignment{
		OwnerType:  did.OwnerIssuer,
		OwnerID:    uuid.UUID(record.ID),
		DID:        record.DID,
		AssignedBy: s.admin.UserID,
		AssignedAt: time.Now(),
	}))
	return record
}

func (s *CascadeSuite) seedVerifiedCredential(candidateID id.CandidateID, issuerID id.IssuerID) *models.Credential {
	now := time.Now()
	issuerRef := issuerID
	credential := &models.Credential{
		ID:          id.NewCredentialID(),
		CandidateID: candidateID,
		Category:    models.CategoryEducation,
		Title:       "BSc Computer Science",
		IssuerID:    &issuerRef,
		Status:      models.StatusVerified,
		Verified:    true,
		VCPayload:   json.RawMessage(`{"jwt":"signed"}`),
		VerifiedAt:  &now,
		CreatedAt:   now,
	}
	s.Require().NoError(s.credentials.Create(s.ctx, credential))
	return credential
}

func (s *CascadeSuite) TestDeleteIssuerResetsEveryCredential() {
	owner := s.seedUser(id.RoleIssuer)
	candidateUser := s.seedUser(id.RoleCandidate)
	teamRecord := s.seedTeam(candidateUser.ID, true)
	candidate := s.seedCandidate(candidateUser.ID, teamRecord.ID)
	issuerRecord := s.seedIssuer(owner.ID)

	seeded := make([]*models.Credential, 3)
	for i := range seeded {
		seeded[i] = s.seedVerifiedCredential(candidate.ID, issuerRecord.ID)
	}

	s.Require().NoError(s.service.DeleteIssuer(s.ctx, s.admin, issuerRecord.ID))

	_, err := s.issuers.FindByID(s.ctx, issuerRecord.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.dids.Find(s.ctx, did.OwnerIssuer, uuid.UUID(issuerRecord.ID))
	s.ErrorIs(err, sentinel.ErrNotFound)

	for _, credential := range seeded {
		stored, err := s.credentials.FindByID(s.ctx, credential.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnverified, stored.Status)
		s.False(stored.Verified)
		s.Nil(stored.VerifiedAt)
		s.Nil(stored.IssuerID)
	}
}

func (s *CascadeSuite) TestDeleteIssuerRequiresAdmin() {
	owner := s.seedUser(id.RoleIssuer)
	issuerRecord := s.seedIssuer(owner.ID)

	err := s.service.DeleteIssuer(s.ctx, id.Principal{UserID: owner.ID, Role: id.RoleIssuer}, issuerRecord.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.issuers.FindByID(s.ctx, issuerRecord.ID)
	s.NoError(err)
}

func (s *CascadeSuite) TestDeleteIssuerNotFound() {
	err := s.service.DeleteIssuer(s.ctx, s.admin, id.NewIssuerID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CascadeSuite) TestDeleteUserSweepsRecruiterPipelines() {
	recruiter := s.seedUser(id.RoleRecruiter)
	candidateUser := s.seedUser(id.RoleCandidate)
	teamRecord := s.seedTeam(candidateUser.ID, true)
	candidate := s.seedCandidate(candidateUser.ID, teamRecord.ID)

	pipelineIDs := make([]id.PipelineID, 3)
	for i := range pipelineIDs {
		pipeline := &storage.Pipeline{
			ID:        id.NewPipelineID(),
			OwnerID:   recruiter.ID,
			Name:      "Backend hiring",
			CreatedAt: time.Now(),
		}
		s.Require().NoError(s.pipelines.Create(s.ctx, pipeline))
		s.Require().NoError(s.pipelines.AddMembership(s.ctx, storage.PipelineMembership{
			PipelineID:  pipeline.ID,
			CandidateID: candidate.ID,
			Stage:       "screening",
			AddedAt:     time.Now(),
		}))
		pipelineIDs[i] = pipeline.ID
	}
	s.Require().NoError(s.activity.Append(s.ctx, &storage.ActivityEntry{
		UserID: recruiter.ID, Action: "pipeline.created", CreatedAt: time.Now(),
	}))

	s.Require().NoError(s.service.DeleteUser(s.ctx, s.admin, recruiter.ID))

	_, err := s.users.FindByID(s.ctx, recruiter.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	remaining, err := s.pipelines.ListByOwner(s.ctx, recruiter.ID)
	s.Require().NoError(err)
	s.Empty(remaining)
	for _, pipelineID := range pipelineIDs {
		s.Zero(s.pipelines.MembershipCount(pipelineID))
	}

	entries, err := s.activity.ListByUser(s.ctx, recruiter.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *CascadeSuite) TestDeleteUserSweepsCandidateProfile() {
	candidateUser := s.seedUser(id.RoleCandidate)
	teamRecord := s.seedTeam(candidateUser.ID, true)
	candidate := s.seedCandidate(candidateUser.ID, teamRecord.ID)
	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: teamRecord.ID, UserID: candidateUser.ID, Role: team.RoleOwner, JoinedAt: time.Now(),
	}))

	owner := s.seedUser(id.RoleIssuer)
	issuerRecord := s.seedIssuer(owner.ID)
	credential := s.seedVerifiedCredential(candidate.ID, issuerRecord.ID)

	recruiter := s.seedUser(id.RoleRecruiter)
	pipeline := &storage.Pipeline{ID: id.NewPipelineID(), OwnerID: recruiter.ID, Name: "Hiring", CreatedAt: time.Now()}
	s.Require().NoError(s.pipelines.Create(s.ctx, pipeline))
	s.Require().NoError(s.pipelines.AddMembership(s.ctx, storage.PipelineMembership{
		PipelineID: pipeline.ID, CandidateID: candidate.ID, Stage: "offer", AddedAt: time.Now(),
	}))
	s.Require().NoError(s.quizzes.Append(s.ctx, &storage.QuizAttempt{
		CandidateID: candidate.ID, QuizName: "go-basics", Score: 90, TakenAt: time.Now(),
	}))

	s.Require().NoError(s.service.DeleteUser(s.ctx, s.admin, candidateUser.ID))

	_, err := s.candidates.FindByUser(s.ctx, candidateUser.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.credentials.FindByID(s.ctx, credential.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	attempts, err := s.quizzes.ListByCandidate(s.ctx, candidate.ID)
	s.Require().NoError(err)
	s.Empty(attempts)

	// Another recruiter's pipeline survives, minus the deleted candidate.
	s.Zero(s.pipelines.MembershipCount(pipeline.ID))
	kept, err := s.pipelines.ListByOwner(s.ctx, recruiter.ID)
	s.Require().NoError(err)
	s.Len(kept, 1)

	// The now-empty personal team goes with the user.
	_, err = s.teams.FindTeam(s.ctx, teamRecord.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CascadeSuite) TestDeleteUserResetsOwnedIssuerCredentials() {
	owner := s.seedUser(id.RoleIssuer)
	issuerRecord := s.seedIssuer(owner.ID)

	candidateUser := s.seedUser(id.RoleCandidate)
	teamRecord := s.seedTeam(candidateUser.ID, true)
	candidate := s.seedCandidate(candidateUser.ID, teamRecord.ID)
	credential := s.seedVerifiedCredential(candidate.ID, issuerRecord.ID)

	s.Require().NoError(s.service.DeleteUser(s.ctx, s.admin, owner.ID))

	_, err := s.issuers.FindByOwner(s.ctx, owner.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	stored, err := s.credentials.FindByID(s.ctx, credential.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnverified, stored.Status)
	s.False(stored.Verified)
	s.Nil(stored.IssuerID)
}

func (s *CascadeSuite) TestRemoveTeamMemberFallsBackToPersonalTeam() {
	ownerUser := s.seedUser(id.RoleRecruiter)
	memberUser := s.seedUser(id.RoleCandidate)

	shared := s.seedTeam(ownerUser.ID, false)
	personal := s.seedTeam(memberUser.ID, true)

	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: ownerUser.ID, Role: team.RoleOwner, JoinedAt: time.Now(),
	}))
	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: memberUser.ID, Role: team.RoleMember, JoinedAt: time.Now(),
	}))

	principal := id.Principal{UserID: ownerUser.ID, Role: id.RoleRecruiter}
	s.Require().NoError(s.service.RemoveTeamMember(s.ctx, principal, shared.ID, memberUser.ID))

	memberships, err := s.teams.MembershipsByUser(s.ctx, memberUser.ID)
	s.Require().NoError(err)
	s.Require().Len(memberships, 1)
	s.Equal(personal.ID, memberships[0].TeamID)
	s.Equal(team.RoleOwner, memberships[0].Role)
}

func (s *CascadeSuite) TestRemoveTeamMemberKeepsOtherMemberships() {
	ownerUser := s.seedUser(id.RoleRecruiter)
	memberUser := s.seedUser(id.RoleCandidate)

	shared := s.seedTeam(ownerUser.ID, false)
	other := s.seedTeam(ownerUser.ID, false)
	s.seedTeam(memberUser.ID, true)

	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: ownerUser.ID, Role: team.RoleOwner, JoinedAt: time.Now(),
	}))
	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: memberUser.ID, Role: team.RoleMember, JoinedAt: time.Now(),
	}))
	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: other.ID, UserID: memberUser.ID, Role: team.RoleMember, JoinedAt: time.Now(),
	}))

	s.Require().NoError(s.service.RemoveTeamMember(s.ctx, s.admin, shared.ID, memberUser.ID))

	memberships, err := s.teams.MembershipsByUser(s.ctx, memberUser.ID)
	s.Require().NoError(err)
	s.Require().Len(memberships, 1)
	s.Equal(other.ID, memberships[0].TeamID)
}

func (s *CascadeSuite) TestRemoveTeamMemberRequiresOwner() {
	ownerUser := s.seedUser(id.RoleRecruiter)
	memberUser := s.seedUser(id.RoleCandidate)
	shared := s.seedTeam(ownerUser.ID, false)

	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: memberUser.ID, Role: team.RoleMember, JoinedAt: time.Now(),
	}))

	principal := id.Principal{UserID: memberUser.ID, Role: id.RoleCandidate}
	err := s.service.RemoveTeamMember(s.ctx, principal, shared.ID, memberUser.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CascadeSuite) TestRemoveTeamMemberMissingMembership() {
	ownerUser := s.seedUser(id.RoleRecruiter)
	shared := s.seedTeam(ownerUser.ID, false)
	s.Require().NoError(s.teams.AddMembership(s.ctx, team.Membership{
		TeamID: shared.ID, UserID: ownerUser.ID, Role: team.RoleOwner, JoinedAt: time.Now(),
	}))

	err := s.service.RemoveTeamMember(s.ctx, s.admin, shared.ID, id.NewUserID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
