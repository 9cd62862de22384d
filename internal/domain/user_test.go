package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleForRegistration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleAdmin, RoleForRegistration(0))
	assert.Equal(t, RoleUser, RoleForRegistration(1))
	assert.Equal(t, RoleUser, RoleForRegistration(42))
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	user, err := NewUser(" alice ", "correct-horse", RoleAdmin, now)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "correct-horse", user.Password)
	assert.True(t, user.IsAdmin())

	testCases := []struct {
		name     string
		username string
		password string
		role     Role
		err      error
	}{
		{"empty username", "", "password123", RoleUser, ErrEmptyUsername},
		{"short username", "ab", "password123", RoleUser, ErrInvalidUsername},
		{"username with space", "bob smith", "password123", RoleUser, ErrInvalidUsername},
		{"short password", "bob", "short", RoleUser, ErrPasswordTooShort},
		{"long password", "bob", strings.Repeat("p", 73), RoleUser, ErrPasswordTooLong},
		{"missing password", "bob", "", RoleUser, ErrEmptyPassword},
		{"bad role", "bob", "password123", Role("root"), ErrInvalidRole},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewUser(tc.username, tc.password, tc.role, now)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestUserValidate_HashedOnly(t *testing.T) {
	t.Parallel()

	user := &User{
		ID:             uuid.New(),
		Username:       "carol",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
		Role:           RoleUser,
	}
	assert.NoError(t, user.Validate())
}
