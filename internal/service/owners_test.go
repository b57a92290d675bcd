package service

import (
	"context"
	"testing"
	"time"

	"tracker_service/internal/apperr"
	"tracker_service/internal/auth"
	"tracker_service/internal/models"
	"tracker_service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *service {
	tokens := auth.NewTokenService("test-secret")
	return NewService(storage.NewMemoryStorage(), tokens, 365*24*time.Hour)
}

func TestRegisterOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	owner, err := svc.RegisterOwner(ctx, "Acme", "Acme Corp", "Ops@Acme.example", "secret1", "Acme Inc", "555-0100")
	require.NoError(t, err)

	assert.Equal(t, "acme", owner.OwnerID, "owner id is case-normalized")
	assert.Equal(t, "ops@acme.example", owner.Email, "email is case-normalized")
	assert.True(t, owner.IsActive)
	assert.Nil(t, owner.LastLogin)
}

func TestRegisterOwnerConflictOwnerID(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	_, err = svc.RegisterOwner(ctx, "acme", "Other", "other@acme.example", "secret1", "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ownerId", appErr.Field)
}

func TestRegisterOwnerConflictEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	_, err = svc.RegisterOwner(ctx, "globex", "Globex", "ops@acme.example", "secret1", "", "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, "email", appErr.Field)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	owner, err := svc.Authenticate(ctx, "acme", "secret1")
	require.NoError(t, err)
	require.NotNil(t, owner.LastLogin, "successful login records lastLogin")
	assert.WithinDuration(t, time.Now(), *owner.LastLogin, 5*time.Second)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "acme", "wrong")
	_, unknownID := svc.Authenticate(ctx, "nobody", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownID)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(wrongPassword))
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(unknownID))
	assert.Equal(t, wrongPassword.Error(), unknownID.Error())
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	// Soft-disable directly through storage; owners have no self-service
	// deactivation endpoint.
	require.NoError(t, svc.storage.SetOwnerActive(ctx, "acme", false))

	_, err = svc.Authenticate(ctx, "acme", "secret1")
	assert.Equal(t, apperr.KindAccountDisabled, apperr.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "acme", "wrong", "newsecret")
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, "acme", "secret1", "newsecret")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "acme", "secret1")
	assert.Error(t, err, "old password no longer works")

	_, err = svc.Authenticate(ctx, "acme", "newsecret")
	assert.NoError(t, err)
}

func TestChangePasswordIsRehashed(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "acme", "secret1", "newsecret"))

	cred, err := svc.storage.GetCredentialsByOwnerID(ctx, "acme")
	require.NoError(t, err)
	assert.NotEqual(t, "newsecret", cred.PasswordHash, "password is never persisted in plaintext")
	assert.True(t, auth.CheckPasswordHash(cred.PasswordHash, "newsecret"))
}

func TestUpdateOwnerProfilePartial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, "acme", "Acme", "ops@acme.example", "secret1", "Acme Inc", "555-0100")
	require.NoError(t, err)

	name := "Acme Holdings"
	owner, err := svc.UpdateOwnerProfile(ctx, "acme", models.OwnerProfileUpdate{OwnerName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Acme Holdings", owner.OwnerName)
	assert.Equal(t, "ops@acme.example", owner.Email, "unset fields stay untouched")
	assert.Equal(t, "555-0100", owner.Phone)
}
