package auth

import (
	"testing"
	"time"

	"tracker_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue(models.PrincipalOwner, "acme", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principalID, err := svc.Verify(token, models.PrincipalOwner)
	require.NoError(t, err)
	assert.Equal(t, "acme", principalID)
}

func TestVerifyKindMismatch(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue(models.PrincipalOwner, "acme", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(token, models.PrincipalDevice)
	assert.ErrorIs(t, err, ErrPrincipalMismatch)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue(models.PrincipalDevice, "tracker-1", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token, models.PrincipalDevice)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewTokenService(testSecret)

	_, err := svc.Verify("not-a-token", models.PrincipalOwner)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewTokenService(testSecret).Issue(models.PrincipalOwner, "acme", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService("other-secret").Verify(token, models.PrincipalOwner)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTampered(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue(models.PrincipalOwner, "acme", time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	_, err = svc.Verify(tampered, models.PrincipalOwner)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
