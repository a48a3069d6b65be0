package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskhive/identity"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := identity.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = identity.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := identity.HashPassword("correct-horse-battery")
	assert.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, identity.ComparePasswordAndHash("correct-horse-battery", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := identity.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash", func(t *testing.T) {
		assert.Error(t, identity.ComparePasswordAndHash("anything", "not-a-hash"))
	})
}
