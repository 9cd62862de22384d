package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// UserService provides registration and authentication.
type UserService interface {
	// Register creates a user. The first user ever registered becomes an
	// admin; everyone after that is a regular user.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Login checks credentials and issues an access token.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	db        *sql.DB
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	tokens    auth.JWTService
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	passwords *auth.Bcrypt,
	tokens auth.JWTService,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		db:        db,
		hasher:    passwords,
		verifier:  passwords,
		tokens:    tokens,
		logger:    logger.With("component", "user_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// Register implements UserService.Register. Counting users and inserting
// the new one happen under the registration lock in one transaction.
func (s *UserServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, password, domain.RoleUser, s.now())
	if err != nil {
		return nil, err
	}

	user.HashedPassword, err = s.hasher.Hash(password)
	if err != nil {
		return nil, NewServiceError("register", "hashing password", err)
	}
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		if err := txStore.LockRegistration(ctx); err != nil {
			return err
		}
		count, err := txStore.Count(ctx)
		if err != nil {
			return err
		}
		user.Role = domain.RoleForRegistration(count)

		return txStore.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			log.Debug("attempted to register existing username", "username", user.Username)
			return nil, err
		}
		log.Error("failed to register user", redact.Attr(err), "username", user.Username)
		return nil, NewServiceError("register", "saving user", err)
	}

	log.Info("user registered",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// Login implements UserService.Login
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, NewServiceError("login", "loading user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(ctx, user.ID, user.Role)
	if err != nil {
		return nil, NewServiceError("login", "issuing token", err)
	}

	log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}
