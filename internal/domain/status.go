package domain

import "time"

// ResolveStatus returns the status a client should see for task at now.
//
// A task that is not Completed and whose deadline is strictly before now
// is shown as Overdue; every other task shows its stored status. The result
// is never written back.
func ResolveStatus(task *Task, now time.Time) TaskStatus {
	if task.Status != TaskStatusCompleted && task.Deadline.Before(now) {
		return TaskStatusOverdue
	}
	return task.Status
}

// IsOverdue reports whether task resolves to Overdue at now.
func IsOverdue(task *Task, now time.Time) bool {
	return ResolveStatus(task, now) == TaskStatusOverdue
}
