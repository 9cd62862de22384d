package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the next-occurrence arithmetic
var (
	ErrNilTask         = errors.New("task cannot be nil")
	ErrNotRecurring    = errors.New("task does not recur")
	ErrMissingDeadline = errors.New("recurring task has no deadline")
)

// NextDeadline computes the deadline of the occurrence following deadline.
// Daily adds one calendar day and weekly adds seven, so wall-clock time is
// preserved across DST changes in the deadline's location.
func NextDeadline(deadline time.Time, recurrence Recurrence) (time.Time, error) {
	if deadline.IsZero() {
		return time.Time{}, ErrMissingDeadline
	}

	switch recurrence {
	case RecurrenceDaily:
		return deadline.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return deadline.AddDate(0, 0, 7), nil
	case RecurrenceNone, "":
		return time.Time{}, ErrNotRecurring
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, recurrence)
	}
}

// NextOccurrence builds the task that follows source.
//
// The occurrence copies title, description, priority, category, recurrence
// and owner from source, starts Pending with a fresh ID, and is stamped as
// created at now. The source itself is not modified.
func NextOccurrence(source *Task, now time.Time) (*Task, error) {
	if source == nil {
		return nil, ErrNilTask
	}

	deadline, err := NextDeadline(source.Deadline, source.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", source.ID, err)
	}

	return &Task{
		ID:          uuid.New(),
		UserID:      source.UserID,
		Title:       source.Title,
		Description: source.Description,
		Priority:    source.Priority,
		Status:      TaskStatusPending,
		Deadline:    deadline,
		Category:    source.Category,
		Recurrence:  source.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: nil,
	}, nil
}
