package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

type userModel struct {
	ID             string    `gorm:"primaryKey;type:text"`
	Username       string    `gorm:"uniqueIndex;size:80;not null"`
	HashedPassword string    `gorm:"not null"`
	Role           string    `gorm:"size:10;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

type taskModel struct {
	ID            string    `gorm:"primaryKey;type:text"`
	UserID        string    `gorm:"type:text;not null;index:idx_tasks_user_deadline,priority:1"`
	Title         string    `gorm:"size:100;not null"`
	Description   string    `gorm:"not null;default:''"`
	Priority      string    `gorm:"size:10;not null"`
	Status        string    `gorm:"size:20;not null;index:idx_tasks_completed_recurring,priority:1"`
	Deadline      time.Time `gorm:"not null;index:idx_tasks_user_deadline,priority:2"`
	Category      string    `gorm:"size:50;not null"`
	Recurrence    string    `gorm:"size:10;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
	CompletedAt   *time.Time
	RegeneratedAt *time.Time `gorm:"index:idx_tasks_completed_recurring,priority:2"`
	User          userModel  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (taskModel) TableName() string { return "tasks" }

func toUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:             u.ID.String(),
		Username:       u.Username,
		HashedPassword: u.HashedPassword,
		Role:           string(u.Role),
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
	}
}

func (m *userModel) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             id,
		Username:       m.Username,
		HashedPassword: m.HashedPassword,
		Role:           domain.Role(m.Role),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

// Times are normalized to UTC so that SQLite's text ordering matches
// chronological ordering.
func toTaskModel(t *domain.Task) *taskModel {
	return &taskModel{
		ID:            t.ID.String(),
		UserID:        t.UserID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		Deadline:      t.Deadline.UTC(),
		Category:      t.Category,
		Recurrence:    string(t.Recurrence),
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
		CompletedAt:   utcPtr(t.CompletedAt),
		RegeneratedAt: utcPtr(t.RegeneratedAt),
	}
}

func (m *taskModel) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:            id,
		UserID:        userID,
		Title:         m.Title,
		Description:   m.Description,
		Priority:      domain.Priority(m.Priority),
		Status:        domain.TaskStatus(m.Status),
		Deadline:      m.Deadline,
		Category:      m.Category,
		Recurrence:    domain.Recurrence(m.Recurrence),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   m.CompletedAt,
		RegeneratedAt: m.RegeneratedAt,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
