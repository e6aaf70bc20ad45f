package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credtrust/internal/issuer"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

func newTestService() (*Service, *issuer.InMemoryStore) {
	store := issuer.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, nil, logger), store
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	record, err := svc.Register(ctx, owner, "Acme University")
	require.NoError(t, err)
	assert.Equal(t, issuer.StatusPending, record.Status)
	assert.Equal(t, owner.UserID, record.OwnerID)
	assert.Empty(t, record.DID)
}

func TestRegisterSecondIssuerConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	_, err := svc.Register(ctx, owner, "Acme University")
	require.NoError(t, err)

	_, err = svc.Register(ctx, owner, "Second Org")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegisterRequiresName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Register(ctx, id.Principal{UserID: id.NewUserID()}, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApproveRequiresDID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}

	record, err := svc.Register(ctx, id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}, "Acme")
	require.NoError(t, err)

	err = svc.Approve(ctx, admin, record.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}

	record, err := svc.Register(ctx, id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}, "Acme")
	require.NoError(t, err)
	record.DID = "did:key:issuer"
	require.NoError(t, store.Update(ctx, record))

	require.NoError(t, svc.Approve(ctx, admin, record.ID))

	updated, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.StatusActive, updated.Status)
}

func TestApproveRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	record, err := svc.Register(ctx, owner, "Acme")
	require.NoError(t, err)

	err = svc.Approve(ctx, owner, record.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestRejectThenResubmit(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	record, err := svc.Register(ctx, owner, "Acme")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, admin, record.ID, "incomplete documentation"))
	rejected, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.StatusRejected, rejected.Status)
	assert.Equal(t, "incomplete documentation", rejected.RejectionReason)

	require.NoError(t, svc.Resubmit(ctx, owner, record.ID))
	resubmitted, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.StatusPending, resubmitted.Status)
	assert.Empty(t, resubmitted.RejectionReason)
}

func TestRejectRequiresReason(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}

	err := svc.Reject(ctx, admin, id.NewIssuerID(), "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestResubmitOnlyFromRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	record, err := svc.Register(ctx, owner, "Acme")
	require.NoError(t, err)

	err = svc.Resubmit(ctx, owner, record.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFailedPrecondition))
}

func TestResubmitRequiresOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	admin := id.Principal{UserID: id.NewUserID(), Role: id.RoleAdmin}
	owner := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}

	record, err := svc.Register(ctx, owner, "Acme")
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, admin, record.ID, "no"))

	stranger := id.Principal{UserID: id.NewUserID(), Role: id.RoleIssuer}
	err = svc.Resubmit(ctx, stranger, record.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
