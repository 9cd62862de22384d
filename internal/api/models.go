package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/domain/analytics"
	"github.com/phrazzld/taskpulse-api/internal/recurrence"
	"github.com/phrazzld/taskpulse-api/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Message  string    `json:"message"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
	Role   string    `json:"role"`

	// ExpiresAt is the RFC 3339 timestamp when the token expires
	ExpiresAt string `json:"expires_at"`
}

// CreateTaskRequest defines the payload for creating a task. Deadline is
// YYYY-MM-DD or RFC 3339.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=100"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"    validate:"required"`
	Category    string `json:"category"    validate:"max=50"`
	Recurring   string `json:"recurring"`
}

// UpdateTaskRequest defines a partial task update. Absent fields are left
// unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=100"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Deadline    *string `json:"deadline"`
	Category    *string `json:"category"    validate:"omitempty,max=50"`
	Recurring   *string `json:"recurring"`
}

// TaskResponse is the JSON form of a task. Status is the display status.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Deadline    string     `json:"deadline"`
	Category    string     `json:"category"`
	Recurring   string     `json:"recurring"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// DashboardResponse is the JSON form of a user's analytics summary.
type DashboardResponse struct {
	Basic     DashboardBasic     `json:"basic"`
	Advanced  DashboardAdvanced  `json:"advanced"`
	Breakdown DashboardBreakdown `json:"breakdown"`
}

// DashboardBasic holds the headline counts.
type DashboardBasic struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
	Rate      string `json:"rate"`
}

// DashboardAdvanced holds the derived statistics.
type DashboardAdvanced struct {
	AvgCompletionHours float64 `json:"avg_completion_hours"`
	TopPriority        string  `json:"top_priority"`
}

// DashboardBreakdown holds per-priority and per-category counts.
type DashboardBreakdown struct {
	ByPriority map[string]int `json:"by_priority"`
	ByCategory map[string]int `json:"by_category"`
}

// RunResultResponse is returned by a manual recurrence run.
type RunResultResponse struct {
	Generated          []uuid.UUID              `json:"generated"`
	GeneratedCount     int                      `json:"generated_count"`
	Considered         int                      `json:"considered"`
	AlreadyRegenerated int                      `json:"already_regenerated"`
	Skipped            []recurrence.SkippedTask `json:"skipped"`
	DurationMillis     int64                    `json:"duration_ms"`
}

// toParams converts a create request into domain parameters.
func (req *CreateTaskRequest) toParams() (domain.TaskParams, error) {
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return domain.TaskParams{}, err
	}

	params := domain.TaskParams{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    deadline,
		Category:    req.Category,
	}
	if req.Priority != "" {
		if params.Priority, err = domain.ParsePriority(req.Priority); err != nil {
			return domain.TaskParams{}, err
		}
	}
	if params.Recurrence, err = domain.ParseRecurrence(req.Recurring); err != nil {
		return domain.TaskParams{}, err
	}
	return params, nil
}

// toPatch converts an update request into a domain patch.
func (req *UpdateTaskRequest) toPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}

	if req.Priority != nil {
		p, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Priority = &p
	}
	if req.Status != nil {
		s, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Status = &s
	}
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Deadline = &d
	}
	if req.Recurring != nil {
		rec, err := domain.ParseRecurrence(*req.Recurring)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Recurrence = &rec
	}
	return patch, nil
}

func taskToResponse(view *service.TaskView) TaskResponse {
	task := view.Task
	return TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Status:      string(view.Status),
		Deadline:    task.Deadline.UTC().Format(DateLayout),
		Category:    task.Category,
		Recurring:   string(task.Recurrence),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
	}
}

func summaryToResponse(summary *analytics.Summary) DashboardResponse {
	byPriority := summary.ByPriority
	if byPriority == nil {
		byPriority = map[string]int{}
	}
	byCategory := summary.ByCategory
	if byCategory == nil {
		byCategory = map[string]int{}
	}

	return DashboardResponse{
		Basic: DashboardBasic{
			Total:     summary.Total,
			Completed: summary.Completed,
			Overdue:   summary.Overdue,
			Rate:      formatRate(summary.CompletionRate),
		},
		Advanced: DashboardAdvanced{
			AvgCompletionHours: summary.AvgCompletionHours,
			TopPriority:        summary.TopPriority,
		},
		Breakdown: DashboardBreakdown{
			ByPriority: byPriority,
			ByCategory: byCategory,
		},
	}
}

func runResultToResponse(result *recurrence.RunResult) RunResultResponse {
	return RunResultResponse{
		Generated:          result.Generated,
		GeneratedCount:     len(result.Generated),
		Considered:         result.Considered,
		AlreadyRegenerated: result.AlreadyRegenerated,
		Skipped:            result.Skipped,
		DurationMillis:     result.Duration.Milliseconds(),
	}
}
