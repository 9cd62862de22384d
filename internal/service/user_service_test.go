package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.userSvc.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, first.Role, "first user becomes admin")
	assert.Empty(t, first.Password)
	assert.NotEqual(t, "password123", first.HashedPassword)

	second, err := env.userSvc.Register(ctx, "bob", "password456")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, second.Role)

	_, err = env.userSvc.Register(ctx, "alice", "password789")
	assert.ErrorIs(t, err, store.ErrUsernameExists)

	_, err = env.userSvc.Register(ctx, "x", "password123")
	assert.True(t, domain.IsValidationError(err))

	_, err = env.userSvc.Register(ctx, "carol", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	n, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// failingUserStore wraps a working store but fails every insert.
type failingUserStore struct {
	store.UserStore
	createErr error
}

func (s *failingUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &failingUserStore{UserStore: s.UserStore.WithTx(tx), createErr: s.createErr}
}

func (s *failingUserStore) Create(context.Context, *domain.User) error {
	return s.createErr
}

func TestUserService_RegisterFailureLogIsRedacted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	createErr := errors.New("dial failed for postgres://taskpulse:hunter22@db:5432/taskpulse")
	svc := NewUserService(
		&failingUserStore{UserStore: env.users, createErr: createErr},
		env.db,
		auth.NewBcrypt(bcrypt.MinCost),
		env.jwtService,
		nil,
	)

	var buf bytes.Buffer
	ctx := logger.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	_, err := svc.Register(ctx, "alice", "password123")
	require.Error(t, err)
	assert.ErrorIs(t, err, createErr)

	logged := buf.String()
	assert.Contains(t, logged, "failed to register user")
	assert.Contains(t, logged, "[REDACTED_CREDENTIAL]")
	assert.NotContains(t, logged, "hunter22")
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.userSvc.Register(ctx, "alice", "password123")
	require.NoError(t, err)

	result, err := env.userSvc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.ExpiresAt.IsZero())

	claims, err := env.jwtService.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = env.userSvc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.userSvc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := env.userSvc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}
