package did

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credtrust/internal/issuer"
	"credtrust/internal/team"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

// stubMinter returns a fixed DID and counts how often the network was hit.
type stubMinter struct {
	did   string
	err   error
	calls int
}

func (m *stubMinter) CreateDID(context.Context) (string, error) {
	m.calls++
	return m.did, m.err
}

type didFixture struct {
	store   *InMemoryStore
	issuers *issuer.InMemoryStore
	teams   *team.InMemoryStore
	minter  *stubMinter
	service *Service
}

func newDIDFixture(t *testing.T) *didFixture {
	t.Helper()
	f := &didFixture{
		store:   NewInMemoryStore(),
		issuers: issuer.NewInMemoryStore(),
		teams:   team.NewInMemoryStore(),
		minter:  &stubMinter{did: "did:key:minted"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(f.store, f.issuers, f.teams, f.minter, logger)
	return f
}

func (f *didFixture) seedTeamOwner(t *testing.T) (id.TeamID, id.Principal) {
	t.Helper()
	ctx := context.Background()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleRecruiter}
	record := &team.Team{ID: id.NewTeamID(), CreatorID: owner.UserID, Name: "Team", CreatedAt: time.Now()}
	require.NoError(t, f.teams.CreateTeam(ctx, record))
	require.NoError(t, f.teams.AddMembership(ctx, team.Membership{
		TeamID: record.ID, UserID: owner.UserID, Role: team.RoleOwner, JoinedAt: time.Now(),
	}))
	return record.ID, owner
}

func TestAssignTeamDID(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)
	teamID, owner := f.seedTeamOwner(t)

	did, err := f.service.AssignTeamDID(ctx, owner, teamID, "did:key:supplied")
	require.NoError(t, err)
	assert.Equal(t, "did:key:supplied", did)
	assert.Zero(t, f.minter.calls)

	stored, err := f.service.TeamDID(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, "did:key:supplied", stored)
}

func TestAssignTeamDIDMintsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)
	teamID, owner := f.seedTeamOwner(t)

	did, err := f.service.AssignTeamDID(ctx, owner, teamID, "")
	require.NoError(t, err)
	assert.Equal(t, "did:key:minted", did)
	assert.Equal(t, 1, f.minter.calls)
}

func TestAssignTeamDIDTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)
	teamID, owner := f.seedTeamOwner(t)

	_, err := f.service.AssignTeamDID(ctx, owner, teamID, "did:key:first")
	require.NoError(t, err)

	_, err = f.service.AssignTeamDID(ctx, owner, teamID, "did:key:second")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// Second attempt fails before minting and leaves the first binding intact.
	assert.Zero(t, f.minter.calls)
	stored, err := f.service.TeamDID(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, "did:key:first", stored)
}

func TestAssignTeamDIDRequiresOwnerRole(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)
	teamID, _ := f.seedTeamOwner(t)

	member := id.Principal{UserID: id.NewUserID(), Role: id.RoleCandidate}
	require.NoError(t, f.teams.AddMembership(ctx, team.Membership{
		TeamID: teamID, UserID: member.UserID, Role: team.RoleMember, JoinedAt: time.Now(),
	}))

	_, err := f.service.AssignTeamDID(ctx, member, teamID, "did:key:x")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	outsider := id.Principal{UserID: id.NewUserID(), Role: id.RoleRecruiter}
	_, err = f.service.AssignTeamDID(ctx, outsider, teamID, "did:key:x")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestAssignIssuerDIDActivatesIssuer(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	record := &issuer.Issuer{
		ID:      id.NewIssuerID(),
		OwnerID: owner.UserID,
		Name:    "Acme University",
		Status:  issuer.StatusPending,
	}
	require.NoError(t, f.issuers.Create(ctx, record))

	did, err := f.service.AssignIssuerDID(ctx, owner, record.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "did:key:minted", did)

	updated, err := f.issuers.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.StatusActive, updated.Status)
	assert.Equal(t, "did:key:minted", updated.DID)
}

func TestAssignIssuerDIDTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	record := &issuer.Issuer{ID: id.NewIssuerID(), OwnerID: owner.UserID, Name: "Acme", Status: issuer.StatusPending}
	require.NoError(t, f.issuers.Create(ctx, record))

	_, err := f.service.AssignIssuerDID(ctx, owner, record.ID, "did:key:first")
	require.NoError(t, err)
	_, err = f.service.AssignIssuerDID(ctx, owner, record.ID, "did:key:second")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAssignIssuerDIDRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	record := &issuer.Issuer{ID: id.NewIssuerID(), OwnerID: id.NewUserID(), Name: "Acme", Status: issuer.StatusPending}
	require.NoError(t, f.issuers.Create(ctx, record))

	stranger := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	_, err := f.service.AssignIssuerDID(ctx, stranger, record.ID, "did:key:x")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestSetPlatformDIDOverwrites(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}

	require.NoError(t, f.service.SetPlatformDID(ctx, admin, "did:web:platform.v1"))
	require.NoError(t, f.service.SetPlatformDID(ctx, admin, "did:web:platform.v2"))

	stored, err := f.service.PlatformDID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "did:web:platform.v2", stored)
}

func TestSetPlatformDIDRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	err := f.service.SetPlatformDID(ctx, id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}, "did:web:x")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestTeamDIDEmptyWhenUnassigned(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	stored, err := f.service.TeamDID(ctx, id.NewTeamID())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPlatformDIDEmptyWhenUnset(t *testing.T) {
	ctx := context.Background()
	f := newDIDFixture(t)

	stored, err := f.service.PlatformDID(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
