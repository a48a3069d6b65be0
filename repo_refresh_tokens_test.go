package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/identity"
)

func TestRefreshTokens_SaveAndFind(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	accountID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour).UTC()

	record, err := repo.RefreshTokens().Save(ctx, accountID, "token-one", expiresAt)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, record.ID)

	found, err := repo.RefreshTokens().FindByToken(ctx, "token-one")
	require.NoError(t, err)
	assert.Equal(t, accountID, found.AccountID)
	assert.WithinDuration(t, expiresAt, found.ExpiresAt, time.Second)
	assert.False(t, found.Expired(time.Now()))
}

func TestRefreshTokens_SaveReplacesExisting(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	accountID := uuid.New()

	_, err := repo.RefreshTokens().Save(ctx, accountID, "token-one", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = repo.RefreshTokens().Save(ctx, accountID, "token-two", time.Now().Add(2*time.Hour))
	require.NoError(t, err)

	// The old token is gone, only the replacement resolves
	_, err = repo.RefreshTokens().FindByToken(ctx, "token-one")
	assert.ErrorIs(t, err, identity.ErrRefreshTokenNotFound)

	found, err := repo.RefreshTokens().FindByToken(ctx, "token-two")
	require.NoError(t, err)
	assert.Equal(t, accountID, found.AccountID)
}

func TestRefreshTokens_FindMiss(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.RefreshTokens().FindByToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, identity.ErrRefreshTokenNotFound)
}

func TestRefreshTokens_DeleteByAccount(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	accountID := uuid.New()
	_, err := repo.RefreshTokens().Save(ctx, accountID, "token-one", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.RefreshTokens().DeleteByAccount(ctx, accountID))

	_, err = repo.RefreshTokens().FindByToken(ctx, "token-one")
	assert.ErrorIs(t, err, identity.ErrRefreshTokenNotFound)
}

func TestRefreshToken_Expired(t *testing.T) {
	token := &identity.RefreshToken{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, token.Expired(time.Now()))

	token.ExpiresAt = time.Now().Add(time.Minute)
	assert.False(t, token.Expired(time.Now()))
}
