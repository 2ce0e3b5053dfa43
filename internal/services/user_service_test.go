package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/models"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
)

func TestUserAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "seller@example.com", models.RoleUser)

	users, err := NewUserService(env.db)
	require.NoError(t, err)

	ctx := context.Background()
	got, err := users.Authenticate(ctx, "Seller@Example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = users.Authenticate(ctx, "seller@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody@example.com", "whatever")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserGet(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "seller@example.com", models.RoleUser)

	users, err := NewUserService(env.db)
	require.NoError(t, err)

	got, err := users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = users.Get(context.Background(), "missing")
	require.Equal(t, "NOT_FOUND", apperrors.FromError(err).Code)
}
