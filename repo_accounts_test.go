package identity_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/identity"
)

func TestAccounts_CreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Accounts().Create(ctx, &identity.Account{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, identity.RoleUser, created.Role, "role defaults when omitted")

	byEmail, err := repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)
}

func TestAccounts_ExistsByEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	exists, err := repo.Accounts().ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Accounts().Create(ctx, &identity.Account{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	exists, err = repo.Accounts().ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccounts_GetMiss(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Accounts().GetByEmail(ctx, "missing@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))

	_, err = repo.Accounts().GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccounts_DeleteByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Accounts().Create(ctx, &identity.Account{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Accounts().DeleteByID(ctx, created.ID))

	_, err = repo.Accounts().GetByID(ctx, created.ID)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  identity.Role
		ok    bool
	}{
		{"admin", identity.RoleAdmin, true},
		{"ADMIN", identity.RoleAdmin, true},
		{"user", identity.RoleUser, true},
		{"", identity.RoleUser, true},
		{" user ", identity.RoleUser, true},
		{"superuser", "", false},
	}

	for _, tt := range tests {
		role, ok := identity.ParseRole(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, role, "input %q", tt.input)
	}
}
