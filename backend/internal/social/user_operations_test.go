package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wavegram/backend/pkg/errors"
)

func TestRegisterNormalizesAndDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register(context.Background(), RegisterParams{
		Username:     "  Alice  ",
		Email:        "Alice@Example.COM",
		FullName:     "Alice Smith",
		PasswordHash: "hashed",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.Avatar.URL)
	assert.Equal(t, 0, user.Followers.Len())
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{
		Username: "alice", Email: "alice@example.com",
		FullName: "Alice", PasswordHash: "hashed",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{
		Username: "ALICE", Email: "other@example.com",
		FullName: "Other", PasswordHash: "hashed",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = svc.Register(ctx, RegisterParams{
		Username: "alice2", Email: "alice@example.com",
		FullName: "Other", PasswordHash: "hashed",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []RegisterParams{
		{Email: "a@b.c", FullName: "A", PasswordHash: "h"},
		{Username: "a", FullName: "A", PasswordHash: "h"},
		{Username: "a", Email: "a@b.c", PasswordHash: "h"},
		{Username: "a", Email: "a@b.c", FullName: "A"},
	}
	for _, params := range cases {
		_, err := svc.Register(ctx, params)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	}
}

func TestUserByLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterParams{
		Username: "alice", Email: "alice@example.com",
		FullName: "Alice", PasswordHash: "hashed",
	})
	require.NoError(t, err)

	byName, err := svc.UserByLogin(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := svc.UserByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = svc.UserByLogin(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, st := newTestService(t)
	seedUser(t, st, "u-alice", "alice")
	seedUser(t, st, "u-bob", "bob")
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, "u-alice", UpdateProfileParams{FullName: "Alice Q"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Q", updated.FullName)
	assert.Equal(t, "alice", updated.Username)

	_, err = svc.UpdateProfile(ctx, "u-alice", UpdateProfileParams{Username: "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = svc.UpdateProfile(ctx, "u-alice", UpdateProfileParams{})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestRefreshTokenLifecycle(t *testing.T) {
	svc, st := newTestService(t)
	seedUser(t, st, "u-alice", "alice")
	ctx := context.Background()

	require.NoError(t, svc.StoreRefreshToken(ctx, "u-alice", "token-1"))
	user, err := svc.UserByID(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, "token-1", user.RefreshToken)

	require.NoError(t, svc.ClearRefreshToken(ctx, "u-alice"))
	user, err = svc.UserByID(ctx, "u-alice")
	require.NoError(t, err)
	assert.Empty(t, user.RefreshToken)
}

func TestAvatarLifecycle(t *testing.T) {
	svc, st := newTestService(t)
	seedUser(t, st, "u-alice", "alice")
	ctx := context.Background()

	updated, err := svc.UpdateAvatar(ctx, "u-alice", "https://cdn.example.com/a.png", "pub-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", updated.Avatar.URL)

	_, err = svc.UpdateAvatar(ctx, "u-alice", "", "")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	cleared, err := svc.RemoveAvatar(ctx, "u-alice")
	require.NoError(t, err)
	assert.Empty(t, cleared.Avatar.URL)
}
