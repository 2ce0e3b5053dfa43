package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/models"
)

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	user := &models.User{Email: "seller@example.com", Role: models.RoleUser}
	user.ID = "user-1"

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "seller@example.com", claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	user := &models.User{}
	user.ID = "user-1"
	token, err := svc.Issue(user)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTService("other-secret", time.Hour)
	require.NoError(t, err)

	user := &models.User{}
	user.ID = "user-1"
	token, err := other.Issue(user)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService("  ", time.Hour)
	require.Error(t, err)
}
