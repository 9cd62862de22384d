package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the stored (or displayed) state of a task.
// Pending and Completed are the well-known values, but users may store
// any other non-blank label. Overdue is only ever derived, never stored.
type TaskStatus string

// Well-known task status values
const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
	TaskStatusOverdue   TaskStatus = "Overdue"
)

// Priority categorizes a task for filtering and aggregation.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Recurrence describes how often a completed task spawns its next occurrence.
type Recurrence string

// Possible recurrence values
const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Task defaults and limits
const (
	DefaultCategory   = "General"
	DefaultPriority   = PriorityMedium
	MaxTitleLength    = 100
	MaxCategoryLength = 50
	MaxStatusLength   = 20
)

// Validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong  = errors.New("task title is too long")
	ErrEmptyDeadline     = errors.New("task deadline is required")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidRecurrence = errors.New("invalid task recurrence")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrCategoryTooLong   = errors.New("task category is too long")
	ErrCompletionState   = errors.New("completed_at must be set exactly when status is Completed")
)

// Task is a unit of personal work owned by a single user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	Deadline    time.Time  `json:"deadline"`
	Category    string     `json:"category"`
	Recurrence  Recurrence `json:"recurrence"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// RegeneratedAt records when the recurrence engine produced this task's
	// next occurrence. It is cleared whenever the task leaves Completed.
	RegeneratedAt *time.Time `json:"-"`
}

// TaskParams carries the caller-supplied fields of a new task.
// Zero values are replaced by the documented defaults.
type TaskParams struct {
	Title       string
	Description string
	Priority    Priority
	Deadline    time.Time
	Category    string
	Recurrence  Recurrence
}

// NewTask creates a new pending Task owned by userID.
// It assigns a fresh ID, applies defaults and validates the result.
func NewTask(userID uuid.UUID, params TaskParams, now time.Time) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Priority:    params.Priority,
		Status:      TaskStatusPending,
		Deadline:    params.Deadline,
		Category:    strings.TrimSpace(params.Category),
		Recurrence:  params.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if task.Priority == "" {
		task.Priority = DefaultPriority
	}
	if task.Category == "" {
		task.Category = DefaultCategory
	}
	if task.Recurrence == "" {
		task.Recurrence = RecurrenceNone
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns a ValidationError naming the first invalid field.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyTaskID)
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "is required", ErrEmptyTaskUserID)
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required", ErrEmptyTaskTitle)
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("title", "is too long", ErrTaskTitleTooLong)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
	if err := validateStoredStatus(t.Status); err != nil {
		return err
	}
	if t.Deadline.IsZero() {
		return NewValidationError("deadline", "is required", ErrEmptyDeadline)
	}
	if utf8.RuneCountInString(t.Category) > MaxCategoryLength {
		return NewValidationError("category", "is too long", ErrCategoryTooLong)
	}
	if !t.Recurrence.IsValid() {
		return NewValidationError("recurrence", "must be one of none, daily, weekly", ErrInvalidRecurrence)
	}
	if (t.Status == TaskStatusCompleted) != (t.CompletedAt != nil) {
		return NewValidationError("completed_at", "is inconsistent with status", ErrCompletionState)
	}
	return nil
}

// SetStatus moves the task to status at time now.
//
// Entering Completed stamps CompletedAt; staying Completed keeps the
// original stamp. Leaving Completed clears both CompletedAt and
// RegeneratedAt.
func (t *Task) SetStatus(status TaskStatus, now time.Time) error {
	if err := validateStoredStatus(status); err != nil {
		return err
	}

	wasCompleted := t.Status == TaskStatusCompleted
	t.Status = status

	switch {
	case status == TaskStatusCompleted && (!wasCompleted || t.CompletedAt == nil):
		completedAt := now
		t.CompletedAt = &completedAt
	case status != TaskStatusCompleted:
		t.CompletedAt = nil
		t.RegeneratedAt = nil
	}

	t.UpdatedAt = now
	return nil
}

// IsCompleted reports whether the stored status is Completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// IsRecurring reports whether the task spawns further occurrences.
func (t *Task) IsRecurring() bool {
	return t.Recurrence != "" && t.Recurrence != RecurrenceNone
}

// TaskPatch holds a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *TaskStatus
	Deadline    *time.Time
	Category    *string
	Recurrence  *Recurrence
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.Deadline == nil && p.Category == nil && p.Recurrence == nil
}

// Apply returns a copy of the task with patch applied at time now.
// The receiver is never modified, so a failed patch leaves it intact.
func (t *Task) Apply(patch TaskPatch, now time.Time) (*Task, error) {
	updated := *t

	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.Deadline != nil {
		updated.Deadline = *patch.Deadline
	}
	if patch.Category != nil {
		updated.Category = strings.TrimSpace(*patch.Category)
		if updated.Category == "" {
			updated.Category = DefaultCategory
		}
	}
	if patch.Recurrence != nil {
		updated.Recurrence = *patch.Recurrence
	}
	if patch.Status != nil {
		if err := updated.SetStatus(*patch.Status, now); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = now

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// IsValid reports whether r is one of the known recurrence values.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	default:
		return false
	}
}

// ParsePriority converts user input into a Priority, ignoring case.
func ParsePriority(s string) (Priority, error) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
}

// ParseRecurrence converts user input into a Recurrence, ignoring case.
// Blank input means RecurrenceNone.
func ParseRecurrence(s string) (Recurrence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RecurrenceNone, nil
	}
	for _, r := range []Recurrence{RecurrenceNone, RecurrenceDaily, RecurrenceWeekly} {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", NewValidationError("recurrence", "must be one of none, daily, weekly", ErrInvalidRecurrence)
}

// ParseStatus converts user input into a storable TaskStatus.
// The well-known values are matched case-insensitively and canonicalized;
// other labels are kept verbatim. Overdue is rejected.
func ParseStatus(s string) (TaskStatus, error) {
	s = strings.TrimSpace(s)
	for _, known := range []TaskStatus{TaskStatusPending, TaskStatusCompleted} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	status := TaskStatus(s)
	if err := validateStoredStatus(status); err != nil {
		return "", err
	}
	return status, nil
}

func validateStoredStatus(status TaskStatus) error {
	if strings.TrimSpace(string(status)) == "" {
		return NewValidationError("status", "is required", ErrInvalidTaskStatus)
	}
	if strings.EqualFold(string(status), string(TaskStatusOverdue)) {
		return NewValidationError("status", "Overdue is derived and cannot be stored", ErrInvalidTaskStatus)
	}
	if utf8.RuneCountInString(string(status)) > MaxStatusLength {
		return NewValidationError("status", "is too long", ErrInvalidTaskStatus)
	}
	return nil
}
