package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain/analytics"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// DashboardService computes per-user task analytics.
type DashboardService interface {
	GetDashboard(ctx context.Context, ownerID uuid.UUID) (*analytics.Summary, error)
}

// DashboardServiceImpl implements DashboardService over a TaskStore.
type DashboardServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(taskStore store.TaskStore, logger *slog.Logger) *DashboardServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardServiceImpl{
		taskStore: taskStore,
		logger:    logger.With("component", "dashboard_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ DashboardService = (*DashboardServiceImpl)(nil)

// GetDashboard implements DashboardService.GetDashboard
func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, ownerID uuid.UUID) (*analytics.Summary, error) {
	tasks, err := s.taskStore.List(ctx, ownerID, store.TaskFilter{})
	if err != nil {
		return nil, NewServiceError("dashboard", "loading tasks", err)
	}

	summary := analytics.Summarize(ownerID, tasks, s.now())
	return &summary, nil
}
