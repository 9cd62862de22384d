package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"gorm.io/gorm"
)

// UserStore implements store.UserStore on SQLite.
type UserStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewUserStore creates a UserStore. If logger is nil, a default logger will be used.
func NewUserStore(db *gorm.DB, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(toUserModel(user)).Error; err != nil {
		mapped := mapError(err, store.ErrUserNotFound)
		if store.IsDuplicateError(mapped) {
			return store.ErrUsernameExists
		}
		log.Error("failed to create user",
			redact.Attr(err),
			slog.String("user_id", user.ID.String()))
		return mapped
	}

	log.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&m).Error; err != nil {
		return nil, mapError(err, store.ErrUserNotFound)
	}
	return m.toDomain()
}

// GetByUsername implements store.UserStore.GetByUsername
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&m).Error; err != nil {
		return nil, mapError(err, store.ErrUserNotFound)
	}
	return m.toDomain()
}

// Count implements store.UserStore.Count
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&userModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

// LockRegistration implements store.UserStore.LockRegistration. The single
// pooled connection already serializes registrations.
func (s *UserStore) LockRegistration(context.Context) error {
	return nil
}

// WithTx implements store.UserStore.WithTx
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: bindTx(s.db, tx), logger: s.logger}
}
